package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"deckster-be/internal/dto"
	"deckster-be/internal/entity"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/repository/specification"
	"deckster-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewSessionService(factory, &capturePublisher{})
	ctx := context.Background()

	user := seedUser(t, factory)

	res, err := svc.Create(ctx, user.Id, user.Email, user.Name, &dto.CreateSessionRequest{
		Id:    "sess-1",
		Title: "Q3 Review",
	})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", res.Id)
	assert.Equal(t, "draft", res.Status)
	assert.Equal(t, 1, res.CurrentStage)
	assert.Nil(t, res.FirstMessageAt)
}

func TestCreateSessionLazyUser(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewSessionService(factory, &capturePublisher{})
	ctx := context.Background()

	// No seeded user row: the token arrived before the OAuth callback
	// persisted one.
	userId := uuid.New()
	_, err := svc.Create(ctx, userId, "late@example.com", "Late User", &dto.CreateSessionRequest{Id: "sess-lazy"})
	require.NoError(t, err)

	uow := factory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "late@example.com", user.Email)
	assert.Equal(t, entity.UserTierFree, user.Tier)
}

func TestCreateSessionDuplicateId(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewSessionService(factory, &capturePublisher{})
	ctx := context.Background()

	owner := seedUser(t, factory)
	other := seedUser(t, factory)
	seedSession(t, factory, owner.Id, "sess-dup", nil)

	// Retrying your own create conflicts but returns the existing session.
	_, err := svc.Create(ctx, owner.Id, owner.Email, owner.Name, &dto.CreateSessionRequest{Id: "sess-dup"})
	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusConflict, appErr.Code)
	require.NotNil(t, appErr.Data)
	assert.Equal(t, "sess-dup", appErr.Data.(dto.SessionResponse).Id)

	// Someone else's id conflicts without leaking its content.
	_, err = svc.Create(ctx, other.Id, other.Email, other.Name, &dto.CreateSessionRequest{Id: "sess-dup"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusConflict, appErr.Code)
	assert.Nil(t, appErr.Data)
}

func TestSessionOwnership(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewSessionService(factory, &capturePublisher{})
	ctx := context.Background()

	owner := seedUser(t, factory)
	intruder := seedUser(t, factory)
	seedSession(t, factory, owner.Id, "sess-owned", nil)

	var appErr *serverutils.AppError

	_, err := svc.Get(ctx, intruder.Id, "sess-owned")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusForbidden, appErr.Code)

	_, err = svc.Get(ctx, owner.Id, "no-such-session")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusNotFound, appErr.Code)

	err = svc.Delete(ctx, intruder.Id, "sess-owned")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusForbidden, appErr.Code)
}

func TestActivateSessionIdempotent(t *testing.T) {
	factory := newTestFactory(t)
	publisher := &capturePublisher{}
	svc := NewSessionService(factory, publisher)
	ctx := context.Background()

	user := seedUser(t, factory)
	seedSession(t, factory, user.Id, "sess-act", nil)

	first, err := svc.Activate(ctx, user.Id, "sess-act")
	require.NoError(t, err)
	assert.Equal(t, "active", first.Status)
	require.NotNil(t, first.FirstMessageAt)

	second, err := svc.Activate(ctx, user.Id, "sess-act")
	require.NoError(t, err)
	assert.Equal(t, "active", second.Status)
	// The second call must not move the timestamps.
	assert.WithinDuration(t, *first.FirstMessageAt, *second.FirstMessageAt, time.Millisecond)

	// Only the first activation publishes an event.
	assert.Len(t, publisher.published(), 1)
}

func TestListSessionsExcludesGhostsAndDeleted(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewSessionService(factory, &capturePublisher{})
	ctx := context.Background()

	user := seedUser(t, factory)
	now := time.Now()

	seedSession(t, factory, user.Id, "sess-live", func(s *entity.ChatSession) {
		s.Status = entity.SessionStatusActive
		s.LastMessageAt = &now
	})
	seedSession(t, factory, user.Id, "sess-fresh-draft", nil)
	seedSession(t, factory, user.Id, "sess-ghost", func(s *entity.ChatSession) {
		s.CreatedAt = now.Add(-8 * 24 * time.Hour)
	})
	seedSession(t, factory, user.Id, "sess-deleted", func(s *entity.ChatSession) {
		s.Status = entity.SessionStatusDeleted
		s.LastMessageAt = &now
	})

	res, err := svc.List(ctx, user.Id, &dto.ListSessionsRequest{})
	require.NoError(t, err)

	ids := make([]string, 0, len(res.Sessions))
	for _, s := range res.Sessions {
		ids = append(ids, s.Id)
	}
	assert.ElementsMatch(t, []string{"sess-live", "sess-fresh-draft"}, ids)
	assert.Equal(t, 2, res.Total)
}

func TestListSessionsScopedToUser(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewSessionService(factory, &capturePublisher{})
	ctx := context.Background()

	alice := seedUser(t, factory)
	bob := seedUser(t, factory)
	seedSession(t, factory, alice.Id, "sess-alice", nil)
	seedSession(t, factory, bob.Id, "sess-bob", nil)

	res, err := svc.List(ctx, alice.Id, &dto.ListSessionsRequest{})
	require.NoError(t, err)
	require.Len(t, res.Sessions, 1)
	assert.Equal(t, "sess-alice", res.Sessions[0].Id)
}

func TestPatchSessionStageChange(t *testing.T) {
	factory := newTestFactory(t)
	publisher := &capturePublisher{}
	svc := NewSessionService(factory, publisher)
	ctx := context.Background()

	user := seedUser(t, factory)
	seedSession(t, factory, user.Id, "sess-patch", nil)

	stage := 3
	title := "Renamed"
	res, err := svc.Patch(ctx, user.Id, "sess-patch", &dto.PatchSessionRequest{
		CurrentStage: &stage,
		Title:        &title,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.CurrentStage)
	assert.Equal(t, "Renamed", res.Title)

	payloads := publisher.published()
	require.Len(t, payloads, 1)
	var envelope SessionEventEnvelope
	require.NoError(t, json.Unmarshal(payloads[0], &envelope))
	assert.Equal(t, events.TypeStageChanged, envelope.Type)
	assert.Equal(t, "sess-patch", envelope.SessionId)

	// Patching to the same stage again publishes nothing.
	_, err = svc.Patch(ctx, user.Id, "sess-patch", &dto.PatchSessionRequest{CurrentStage: &stage})
	require.NoError(t, err)
	assert.Len(t, publisher.published(), 1)
}

func TestDeleteSessionIsSoft(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewSessionService(factory, &capturePublisher{})
	ctx := context.Background()

	user := seedUser(t, factory)
	seedSession(t, factory, user.Id, "sess-del", func(s *entity.ChatSession) {
		now := time.Now()
		s.Status = entity.SessionStatusActive
		s.LastMessageAt = &now
	})

	require.NoError(t, svc.Delete(ctx, user.Id, "sess-del"))

	// The row survives with status deleted.
	uow := factory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByStringID{ID: "sess-del"})
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, entity.SessionStatusDeleted, session.Status)

	// And no longer shows up in the default listing.
	res, err := svc.List(ctx, user.Id, &dto.ListSessionsRequest{})
	require.NoError(t, err)
	assert.Empty(t, res.Sessions)
}

func TestGetSessionDetail(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewSessionService(factory, &capturePublisher{})
	ctx := context.Background()

	user := seedUser(t, factory)
	seedSession(t, factory, user.Id, "sess-detail", nil)

	uow := factory.NewUnitOfWork(ctx)
	for _, ts := range []time.Time{
		time.Now().Add(-2 * time.Minute),
		time.Now().Add(-1 * time.Minute),
	} {
		require.NoError(t, uow.ChatMessageRepository().Upsert(ctx, &entity.ChatMessage{
			Id:            uuid.New().String(),
			ChatSessionId: "sess-detail",
			MessageType:   "user_message",
			Timestamp:     ts,
			Payload:       []byte(`{"text":"hi"}`),
		}))
	}
	require.NoError(t, uow.SessionStateCacheRepository().Upsert(ctx, &entity.SessionStateCache{
		ChatSessionId:  "sess-detail",
		ActiveVersion:  "strawman",
		SlideStructure: []byte(`{"slides":[]}`),
		Status:         "ready",
	}))

	res, err := svc.Get(ctx, user.Id, "sess-detail")
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.True(t, res.Messages[0].Timestamp.Before(res.Messages[1].Timestamp))
	require.NotNil(t, res.StateCache)
	assert.Equal(t, "strawman", res.StateCache.ActiveVersion)
}
