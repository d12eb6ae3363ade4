package service

import (
	"context"
	"errors"
	"fmt"

	"deckster-be/internal/pkg/logger"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/pkg/events"
	pkgNats "deckster-be/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// StoreReaperService releases remote file search stores after their
// session is deleted, off the request path. The API only soft-deletes,
// so the store teardown rides the durable bus and survives restarts.
type StoreReaperService struct {
	subscriber *pkgNats.Subscriber
	knowledge  IKnowledgeService
	logger     logger.ILogger
}

func NewStoreReaperService(sub *pkgNats.Subscriber, knowledge IKnowledgeService, log logger.ILogger) *StoreReaperService {
	return &StoreReaperService{
		subscriber: sub,
		knowledge:  knowledge,
		logger:     log,
	}
}

// Start attaches the durable consumer. Without NATS the reaper is
// inert and stores are only reclaimed by the scheduled cleanup.
func (s *StoreReaperService) Start() {
	if s.subscriber == nil {
		s.logger.Warn("StoreReaper", "No event bus connection, store reaping disabled", nil)
		return
	}

	err := s.subscriber.SubscribeType(events.TypeSessionDeleted, "store-reaper", s.handleSessionDeleted)
	if err != nil {
		s.logger.Error("StoreReaper", "Failed to attach consumer", map[string]interface{}{"error": err.Error()})
		return
	}

	s.logger.Info("StoreReaper", "Listening for deleted sessions", nil)
}

func (s *StoreReaperService) handleSessionDeleted(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	rawUser, _ := payload["user_id"].(string)
	sessionId, _ := payload["session_id"].(string)

	userId, err := uuid.Parse(rawUser)
	if err != nil || sessionId == "" {
		s.logger.Warn("StoreReaper", "Dropping event with malformed payload", map[string]interface{}{
			"user_id":    rawUser,
			"session_id": sessionId,
		})
		return nil
	}

	if err := s.knowledge.DeleteStore(ctx, userId, sessionId); err != nil {
		var appErr *serverutils.AppError
		if errors.As(err, &appErr) && (appErr.Code == fiber.StatusNotFound || appErr.Code == fiber.StatusForbidden) {
			// The session row is already gone. Nothing left to reclaim.
			return nil
		}
		return fmt.Errorf("store teardown for session %s: %w", sessionId, err)
	}

	s.logger.Info("StoreReaper", "Released file search store", map[string]interface{}{"session_id": sessionId})
	return nil
}
