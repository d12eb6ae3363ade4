package service

import (
	"context"
	"fmt"
	"time"

	"deckster-be/internal/dto"
	"deckster-be/internal/pkg/logger"
	"deckster-be/internal/repository/specification"
	"deckster-be/internal/repository/unitofwork"
	"deckster-be/pkg/filestore"
)

// ICleanupService removes abandoned draft sessions: drafts that never got a
// message and aged past the configured threshold. This is the only hard
// delete path in the system.
type ICleanupService interface {
	DryRun(ctx context.Context) (*dto.CleanupReport, error)
	Purge(ctx context.Context) (*dto.CleanupReport, error)
}

type cleanupService struct {
	uowFactory     unitofwork.RepositoryFactory
	store          filestore.FileSearchStore
	thresholdHours int
	logger         logger.ILogger
}

func NewCleanupService(
	uowFactory unitofwork.RepositoryFactory,
	store filestore.FileSearchStore,
	thresholdHours int,
	log logger.ILogger,
) ICleanupService {
	return &cleanupService{
		uowFactory:     uowFactory,
		store:          store,
		thresholdHours: thresholdHours,
		logger:         log,
	}
}

func (s *cleanupService) DryRun(ctx context.Context) (*dto.CleanupReport, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	candidates, err := s.findCandidates(ctx, uow)
	if err != nil {
		return nil, err
	}

	report := newReport(true, s.thresholdHours)
	report.CandidateIds = append(report.CandidateIds, candidates...)
	return report, nil
}

func (s *cleanupService) Purge(ctx context.Context) (*dto.CleanupReport, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	candidates, err := s.findCandidates(ctx, uow)
	if err != nil {
		return nil, err
	}

	report := newReport(false, s.thresholdHours)

	for _, sessionId := range candidates {
		report.CandidateIds = append(report.CandidateIds, sessionId)
		if err := s.purgeOne(ctx, uow, sessionId, report); err != nil {
			// One broken session must not stop the sweep.
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", sessionId, err))
		}
	}

	s.logger.Info("Cleanup", "Purge finished", map[string]interface{}{
		"sessions": report.SessionsDeleted,
		"messages": report.MessagesDeleted,
		"files":    report.FilesDeleted,
		"errors":   len(report.Errors),
	})

	return report, nil
}

// purgeOne deletes one session's rows in dependency order so a failure
// partway leaves no orphans pointing at a missing session.
func (s *cleanupService) purgeOne(ctx context.Context, uow unitofwork.UnitOfWork, sessionId string, report *dto.CleanupReport) error {
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByStringID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	// Remote store first, best-effort; an unreachable Gemini never blocks
	// the local cleanup.
	if session.GeminiStoreName != nil && *session.GeminiStoreName != "" && s.store != nil {
		if err := s.store.DeleteStore(ctx, *session.GeminiStoreName); err != nil {
			report.StoreDeleteFails++
			s.logger.Warn("Cleanup", "Failed to delete remote store", map[string]interface{}{
				"session_id": sessionId,
				"store":      *session.GeminiStoreName,
				"error":      err.Error(),
			})
		} else {
			report.StoresDeleted++
		}
	}

	files, err := uow.UploadedFileRepository().DeleteBySessionId(ctx, sessionId)
	if err != nil {
		return err
	}
	report.FilesDeleted += int(files)

	messages, err := uow.ChatMessageRepository().DeleteBySessionId(ctx, sessionId)
	if err != nil {
		return err
	}
	report.MessagesDeleted += int(messages)

	caches, err := uow.SessionStateCacheRepository().DeleteBySessionId(ctx, sessionId)
	if err != nil {
		return err
	}
	report.CachesDeleted += int(caches)

	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}
	report.SessionsDeleted++

	return nil
}

func (s *cleanupService) findCandidates(ctx context.Context, uow unitofwork.UnitOfWork) ([]string, error) {
	cutoff := time.Now().Add(-time.Duration(s.thresholdHours) * time.Hour)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.AbandonedDrafts{Cutoff: cutoff},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.Id)
	}
	return ids, nil
}

func newReport(dryRun bool, thresholdHours int) *dto.CleanupReport {
	return &dto.CleanupReport{
		DryRun:         dryRun,
		ThresholdHours: thresholdHours,
		CandidateIds:   []string{},
		RanAt:          time.Now(),
	}
}
