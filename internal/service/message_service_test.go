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

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncItem(id, messageType string, ts time.Time, userText *string) dto.SyncMessageItem {
	return dto.SyncMessageItem{
		Id:          id,
		MessageType: messageType,
		Timestamp:   ts,
		Payload:     json.RawMessage(`{"text":"hello"}`),
		UserText:    userText,
	}
}

func TestSyncMessages(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewMessageService(factory)
	ctx := context.Background()

	user := seedUser(t, factory)
	seedSession(t, factory, user.Id, "sess-sync", nil)

	oldest := time.Now().Add(-10 * time.Minute).Truncate(time.Millisecond)
	newest := time.Now().Add(-1 * time.Minute).Truncate(time.Millisecond)

	res, err := svc.Sync(ctx, user.Id, "sess-sync", &dto.SyncMessagesRequest{
		Messages: []dto.SyncMessageItem{
			syncItem("msg-1", "user_message", oldest, nil),
			syncItem("msg-2", "assistant_message", newest, nil),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 2, res.Total)

	uow := factory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByStringID{ID: "sess-sync"})
	require.NoError(t, err)
	require.NotNil(t, session.LastMessageAt)
	require.NotNil(t, session.FirstMessageAt)
	// lastMessageAt lands on the newest timestamp in the batch.
	assert.WithinDuration(t, newest, *session.LastMessageAt, time.Millisecond)
}

func TestSyncMessagesNeverRewindsLastMessageAt(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewMessageService(factory)
	ctx := context.Background()

	user := seedUser(t, factory)
	recent := time.Now().Truncate(time.Millisecond)
	seedSession(t, factory, user.Id, "sess-rewind", func(s *entity.ChatSession) {
		s.Status = entity.SessionStatusActive
		s.FirstMessageAt = &recent
		s.LastMessageAt = &recent
	})

	// A replayed batch of older messages must not move the cursor back.
	_, err := svc.Sync(ctx, user.Id, "sess-rewind", &dto.SyncMessagesRequest{
		Messages: []dto.SyncMessageItem{
			syncItem("msg-old", "user_message", recent.Add(-1*time.Hour), nil),
		},
	})
	require.NoError(t, err)

	uow := factory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByStringID{ID: "sess-rewind"})
	require.NoError(t, err)
	assert.WithinDuration(t, recent, *session.LastMessageAt, time.Millisecond)
}

func TestSyncMessagesReplayKeepsUserText(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewMessageService(factory)
	ctx := context.Background()

	user := seedUser(t, factory)
	seedSession(t, factory, user.Id, "sess-replay", nil)

	ts := time.Now().Truncate(time.Millisecond)
	text := "original user text"

	_, err := svc.Sync(ctx, user.Id, "sess-replay", &dto.SyncMessagesRequest{
		Messages: []dto.SyncMessageItem{syncItem("msg-replay", "user_message", ts, &text)},
	})
	require.NoError(t, err)

	// Replay of the same id without user text keeps the stored value.
	_, err = svc.Sync(ctx, user.Id, "sess-replay", &dto.SyncMessagesRequest{
		Messages: []dto.SyncMessageItem{syncItem("msg-replay", "user_message", ts, nil)},
	})
	require.NoError(t, err)

	uow := factory.NewUnitOfWork(ctx)
	message, err := uow.ChatMessageRepository().FindOne(ctx, specification.ByStringID{ID: "msg-replay"})
	require.NoError(t, err)
	require.NotNil(t, message.UserText)
	assert.Equal(t, text, *message.UserText)

	// And the batch did not duplicate the row.
	count, err := uow.ChatMessageRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: "sess-replay"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSyncMessagesOwnership(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewMessageService(factory)
	ctx := context.Background()

	owner := seedUser(t, factory)
	intruder := seedUser(t, factory)
	seedSession(t, factory, owner.Id, "sess-msg-own", nil)

	var appErr *serverutils.AppError

	_, err := svc.Sync(ctx, intruder.Id, "sess-msg-own", &dto.SyncMessagesRequest{
		Messages: []dto.SyncMessageItem{syncItem("msg-x", "user_message", time.Now(), nil)},
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusForbidden, appErr.Code)

	_, err = svc.List(ctx, owner.Id, "missing-session", &dto.ListMessagesRequest{})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusNotFound, appErr.Code)
}

func TestListMessagesPagination(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewMessageService(factory)
	ctx := context.Background()

	user := seedUser(t, factory)
	seedSession(t, factory, user.Id, "sess-page", nil)

	base := time.Now().Add(-1 * time.Hour)
	items := make([]dto.SyncMessageItem, 0, 5)
	for i := 0; i < 5; i++ {
		items = append(items, syncItem(
			"msg-page-"+string(rune('a'+i)),
			"user_message",
			base.Add(time.Duration(i)*time.Minute),
			nil,
		))
	}
	_, err := svc.Sync(ctx, user.Id, "sess-page", &dto.SyncMessagesRequest{Messages: items})
	require.NoError(t, err)

	page, err := svc.List(ctx, user.Id, "sess-page", &dto.ListMessagesRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.True(t, page.HasMore)
	// Ascending by timestamp.
	assert.True(t, page.Messages[0].Timestamp.Before(page.Messages[1].Timestamp))

	last, err := svc.List(ctx, user.Id, "sess-page", &dto.ListMessagesRequest{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, last.Messages, 1)
	assert.False(t, last.HasMore)
}

func TestListMessagesFilterByType(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewMessageService(factory)
	ctx := context.Background()

	user := seedUser(t, factory)
	seedSession(t, factory, user.Id, "sess-filter", nil)

	_, err := svc.Sync(ctx, user.Id, "sess-filter", &dto.SyncMessagesRequest{
		Messages: []dto.SyncMessageItem{
			syncItem("msg-u", "user_message", time.Now().Add(-2*time.Minute), nil),
			syncItem("msg-a", "assistant_message", time.Now().Add(-1*time.Minute), nil),
		},
	})
	require.NoError(t, err)

	res, err := svc.List(ctx, user.Id, "sess-filter", &dto.ListMessagesRequest{MessageType: "assistant_message"})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "msg-a", res.Messages[0].Id)
}
