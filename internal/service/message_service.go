package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"deckster-be/internal/dto"
	"deckster-be/internal/entity"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/repository/specification"
	"deckster-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const maxMessagePageSize = 500

type IMessageService interface {
	Sync(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.SyncMessagesRequest) (*dto.SyncMessagesResponse, error)
	List(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.ListMessagesRequest) (*dto.ListMessagesResponse, error)
}

type messageService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewMessageService(uowFactory unitofwork.RepositoryFactory) IMessageService {
	return &messageService{
		uowFactory: uowFactory,
	}
}

func (s *messageService) Sync(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.SyncMessagesRequest) (*dto.SyncMessagesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByStringID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, serverutils.NewNotFound("Session not found")
	}
	if session.UserId != userId {
		return nil, serverutils.NewForbidden("Session belongs to another user")
	}

	// Each message is upserted independently; one bad item must not sink
	// the rest of the batch.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		saved    int
		failures []string
		maxTs    time.Time
	)

	for _, item := range req.Messages {
		wg.Add(1)
		go func(item dto.SyncMessageItem) {
			defer wg.Done()

			m := entity.ChatMessage{
				Id:            item.Id,
				ChatSessionId: sessionId,
				MessageType:   item.MessageType,
				Timestamp:     item.Timestamp,
				Payload:       []byte(item.Payload),
				UserText:      item.UserText,
				CreatedAt:     time.Now(),
				UpdatedAt:     time.Now(),
			}

			err := uow.ChatMessageRepository().Upsert(ctx, &m)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", item.Id, err))
				return
			}
			saved++
			if item.Timestamp.After(maxTs) {
				maxTs = item.Timestamp
			}
		}(item)
	}
	wg.Wait()

	// Advance lastMessageAt to the newest timestamp in the batch, never
	// backwards.
	if saved > 0 {
		if session.LastMessageAt == nil || maxTs.After(*session.LastMessageAt) {
			session.LastMessageAt = &maxTs
		}
		if session.FirstMessageAt == nil {
			session.FirstMessageAt = &maxTs
		}
		session.UpdatedAt = time.Now()
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			return nil, err
		}
	}

	return &dto.SyncMessagesResponse{
		Saved:  saved,
		Failed: len(failures),
		Total:  len(req.Messages),
		Errors: failures,
	}, nil
}

func (s *messageService) List(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.ListMessagesRequest) (*dto.ListMessagesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByStringID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, serverutils.NewNotFound("Session not found")
	}
	if session.UserId != userId {
		return nil, serverutils.NewForbidden("Session belongs to another user")
	}

	limit := req.Limit
	if limit <= 0 || limit > maxMessagePageSize {
		limit = maxMessagePageSize
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	specs := []specification.Specification{
		specification.ByChatSessionID{ChatSessionID: sessionId},
	}
	if req.MessageType != "" {
		specs = append(specs, specification.ByMessageType{MessageType: req.MessageType})
	}

	total, err := uow.ChatMessageRepository().Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	specs = append(specs,
		specification.OrderBy{Field: "timestamp", Desc: false},
		specification.Pagination{Limit: limit, Offset: offset},
	)

	messages, err := uow.ChatMessageRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := dto.ListMessagesResponse{
		Messages: make([]dto.MessageResponse, 0, len(messages)),
		HasMore:  int64(offset+len(messages)) < total,
	}
	for _, m := range messages {
		res.Messages = append(res.Messages, toMessageResponse(m))
	}

	return &res, nil
}
