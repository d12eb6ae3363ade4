package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"deckster-be/internal/dto"
	"deckster-be/internal/entity"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/repository/specification"
	"deckster-be/internal/repository/unitofwork"
	"deckster-be/pkg/events"

	"github.com/google/uuid"
)

// Sessions with no messages older than this are hidden from listings.
const ghostSessionAge = 7 * 24 * time.Hour

type ISessionService interface {
	List(ctx context.Context, userId uuid.UUID, req *dto.ListSessionsRequest) (*dto.ListSessionsResponse, error)
	Create(ctx context.Context, userId uuid.UUID, email, name string, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, userId uuid.UUID, id string) (*dto.SessionDetailResponse, error)
	Patch(ctx context.Context, userId uuid.UUID, id string, req *dto.PatchSessionRequest) (*dto.SessionResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id string) error
	Activate(ctx context.Context, userId uuid.UUID, id string) (*dto.ActivateSessionResponse, error)
}

type sessionService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
) ISessionService {
	return &sessionService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

func (s *sessionService) List(ctx context.Context, userId uuid.UUID, req *dto.ListSessionsRequest) (*dto.ListSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.ExcludeGhosts{Cutoff: time.Now().Add(-ghostSessionAge)},
	}
	if req.Status != "" {
		specs = append(specs, specification.ByStatus{Status: req.Status})
	} else {
		specs = append(specs, specification.NotStatus{Status: string(entity.SessionStatusDeleted)})
	}

	total, err := uow.ChatSessionRepository().Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	specs = append(specs,
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := dto.ListSessionsResponse{
		Sessions: make([]dto.SessionResponse, 0, len(sessions)),
		Total:    int(total),
	}
	for _, session := range sessions {
		res.Sessions = append(res.Sessions, toSessionResponse(session))
	}

	return &res, nil
}

func (s *sessionService) Create(ctx context.Context, userId uuid.UUID, email, name string, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// The OAuth adapter on the frontend can race us; make sure the user row
	// exists before hanging a session off it.
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &entity.User{
			Id:        userId,
			Email:     email,
			Name:      name,
			Role:      entity.UserRoleUser,
			Tier:      entity.UserTierFree,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, err
		}
	}

	existing, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByStringID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.UserId != userId {
			// Someone else's id; conflict without leaking its content.
			return nil, serverutils.NewConflict("Session id already exists", nil)
		}
		existingRes := toSessionResponse(existing)
		return nil, serverutils.NewConflict("Session already exists", existingRes)
	}

	now := time.Now()
	session := entity.ChatSession{
		Id:           req.Id,
		UserId:       userId,
		Title:        req.Title,
		Status:       entity.SessionStatusDraft,
		CurrentStage: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	res := toSessionResponse(&session)
	return &res, nil
}

func (s *sessionService) Get(ctx context.Context, userId uuid.UUID, id string) (*dto.SessionDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: id},
		specification.OrderBy{Field: "timestamp", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	stateCache, err := uow.SessionStateCacheRepository().FindOne(ctx,
		specification.ByChatSessionID{ChatSessionID: id},
	)
	if err != nil {
		return nil, err
	}

	res := dto.SessionDetailResponse{
		SessionResponse: toSessionResponse(session),
		Messages:        make([]dto.MessageResponse, 0, len(messages)),
	}
	for _, m := range messages {
		res.Messages = append(res.Messages, toMessageResponse(m))
	}
	if stateCache != nil {
		res.StateCache = &dto.SessionStateCacheResponse{
			ActiveVersion:  stateCache.ActiveVersion,
			SlideStructure: json.RawMessage(stateCache.SlideStructure),
			Status:         stateCache.Status,
			UpdatedAt:      stateCache.UpdatedAt,
		}
	}

	return &res, nil
}

func (s *sessionService) Patch(ctx context.Context, userId uuid.UUID, id string, req *dto.PatchSessionRequest) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	stageChanged := false
	if req.Title != nil {
		session.Title = *req.Title
	}
	if req.CurrentStage != nil && *req.CurrentStage != session.CurrentStage {
		session.CurrentStage = *req.CurrentStage
		stageChanged = true
	}
	if req.SlideCount != nil {
		session.SlideCount = *req.SlideCount
	}
	if req.IsFavorite != nil {
		session.IsFavorite = *req.IsFavorite
	}
	if req.StrawmanURL != nil {
		session.StrawmanURL = req.StrawmanURL
	}
	if req.StrawmanId != nil {
		session.StrawmanId = req.StrawmanId
	}
	if req.RefinedURL != nil {
		session.RefinedURL = req.RefinedURL
	}
	if req.RefinedId != nil {
		session.RefinedId = req.RefinedId
	}
	if req.FinalURL != nil {
		session.FinalURL = req.FinalURL
	}
	if req.FinalId != nil {
		session.FinalId = req.FinalId
	}
	if req.GeminiStoreName != nil {
		session.GeminiStoreName = req.GeminiStoreName
	}
	session.UpdatedAt = time.Now()

	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	if stageChanged {
		s.publishEvent(ctx, userId, events.TypeStageChanged, id, map[string]interface{}{
			"stage": session.CurrentStage,
		})
	}

	res := toSessionResponse(session)
	return &res, nil
}

func (s *sessionService) Delete(ctx context.Context, userId uuid.UUID, id string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	session.Status = entity.SessionStatusDeleted
	session.UpdatedAt = time.Now()
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return err
	}

	s.publishEvent(ctx, userId, events.TypeSessionDeleted, id, nil)
	return nil
}

func (s *sessionService) Activate(ctx context.Context, userId uuid.UUID, id string) (*dto.ActivateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	// Already active with a first message recorded: nothing to do.
	if session.Status == entity.SessionStatusActive && session.FirstMessageAt != nil {
		return &dto.ActivateSessionResponse{
			Id:             session.Id,
			Status:         string(session.Status),
			FirstMessageAt: session.FirstMessageAt,
			LastMessageAt:  session.LastMessageAt,
		}, nil
	}

	now := time.Now()
	session.Status = entity.SessionStatusActive
	session.FirstMessageAt = &now
	session.LastMessageAt = &now
	session.UpdatedAt = now

	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, userId, events.TypeSessionActivated, id, nil)

	return &dto.ActivateSessionResponse{
		Id:             session.Id,
		Status:         string(session.Status),
		FirstMessageAt: session.FirstMessageAt,
		LastMessageAt:  session.LastMessageAt,
	}, nil
}

// findOwned loads the session and enforces ownership. Missing sessions are
// 404, sessions owned by someone else are 403.
func (s *sessionService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, id string) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByStringID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, serverutils.NewNotFound("Session not found")
	}
	if session.UserId != userId {
		return nil, serverutils.NewForbidden("Session belongs to another user")
	}
	return session, nil
}

func (s *sessionService) publishEvent(ctx context.Context, userId uuid.UUID, eventType, sessionId string, data map[string]interface{}) {
	if s.publisherService == nil {
		return
	}
	envelope := SessionEventEnvelope{
		UserId:    userId,
		Type:      eventType,
		SessionId: sessionId,
		Data:      data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return
	}
	// Events are auxiliary; a publish failure never fails the request.
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		fmt.Printf("[WARN] Failed to publish %s event: %v\n", eventType, err)
	}
}

func toSessionResponse(session *entity.ChatSession) dto.SessionResponse {
	return dto.SessionResponse{
		Id:              session.Id,
		Title:           session.Title,
		Status:          string(session.Status),
		CurrentStage:    session.CurrentStage,
		FirstMessageAt:  session.FirstMessageAt,
		LastMessageAt:   session.LastMessageAt,
		StrawmanURL:     session.StrawmanURL,
		StrawmanId:      session.StrawmanId,
		RefinedURL:      session.RefinedURL,
		RefinedId:       session.RefinedId,
		FinalURL:        session.FinalURL,
		FinalId:         session.FinalId,
		SlideCount:      session.SlideCount,
		IsFavorite:      session.IsFavorite,
		GeminiStoreName: session.GeminiStoreName,
		CreatedAt:       session.CreatedAt,
		UpdatedAt:       session.UpdatedAt,
	}
}

func toMessageResponse(m *entity.ChatMessage) dto.MessageResponse {
	return dto.MessageResponse{
		Id:          m.Id,
		MessageType: m.MessageType,
		Timestamp:   m.Timestamp,
		Payload:     json.RawMessage(m.Payload),
		UserText:    m.UserText,
	}
}
