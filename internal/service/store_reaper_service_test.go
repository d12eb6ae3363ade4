package service

import (
	"context"
	"testing"
	"time"

	"deckster-be/internal/entity"
	"deckster-be/internal/repository/specification"
	"deckster-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deletedSessionEvent(userId, sessionId string) events.Event {
	return events.BaseEvent{
		Type: events.TypeSessionDeleted,
		Data: map[string]interface{}{
			"user_id":    userId,
			"session_id": sessionId,
		},
		OccurredAt: time.Now(),
	}
}

func TestReaperReleasesStore(t *testing.T) {
	factory := newTestFactory(t)
	store := newFakeStore()
	reaper := NewStoreReaperService(nil, NewKnowledgeService(factory, store), nopLogger{})
	ctx := context.Background()

	user := seedUser(t, factory)
	storeName := "fileSearchStores/session-sess-reap"
	seedSession(t, factory, user.Id, "sess-reap", func(s *entity.ChatSession) {
		s.Status = entity.SessionStatusDeleted
		s.GeminiStoreName = &storeName
	})

	err := reaper.handleSessionDeleted(ctx, deletedSessionEvent(user.Id.String(), "sess-reap"))
	require.NoError(t, err)
	assert.Equal(t, []string{storeName}, store.deleted)

	uow := factory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByStringID{ID: "sess-reap"})
	require.NoError(t, err)
	assert.Nil(t, session.GeminiStoreName)
}

func TestReaperDropsGoneOrMalformedEvents(t *testing.T) {
	factory := newTestFactory(t)
	store := newFakeStore()
	reaper := NewStoreReaperService(nil, NewKnowledgeService(factory, store), nopLogger{})
	ctx := context.Background()

	user := seedUser(t, factory)

	// Session row already purged: nothing to do, no redelivery.
	err := reaper.handleSessionDeleted(ctx, deletedSessionEvent(user.Id.String(), "sess-vanished"))
	assert.NoError(t, err)

	// Garbage identity fields are dropped, not retried forever.
	err = reaper.handleSessionDeleted(ctx, deletedSessionEvent("not-a-uuid", "sess-x"))
	assert.NoError(t, err)

	assert.Empty(t, store.deleted)
}

func TestReaperStartWithoutBus(t *testing.T) {
	reaper := NewStoreReaperService(nil, nil, nopLogger{})

	// Degrades to inert instead of panicking when NATS never connected.
	assert.NotPanics(t, reaper.Start)
}
