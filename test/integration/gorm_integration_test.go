package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"deckster-be/internal/entity"
	"deckster-be/internal/repository/specification"
	"deckster-be/internal/repository/unitofwork"
	"deckster-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.SubscriptionRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Session Round Trip", func(t *testing.T) {
		ctx := context.Background()

		user := &entity.User{
			Id:    uuid.New(),
			Email: "test-integration-" + uuid.New().String() + "@example.com",
			Name:  "Integration Test User",
			Role:  entity.UserRoleUser,
			Tier:  entity.UserTierFree,
		}
		require.NoError(t, uow.UserRepository().Create(ctx, user))

		sessionId := "it-" + uuid.New().String()
		session := &entity.ChatSession{
			Id:           sessionId,
			UserId:       user.Id,
			Title:        "Integration Session",
			Status:       entity.SessionStatusDraft,
			CurrentStage: 1,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		require.NoError(t, uow.ChatSessionRepository().Create(ctx, session))

		found, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByStringID{ID: sessionId})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.Id, found.UserId)

		// Cleanup
		_, err = uow.ChatMessageRepository().DeleteBySessionId(ctx, sessionId)
		assert.NoError(t, err)
		assert.NoError(t, uow.ChatSessionRepository().Delete(ctx, sessionId))
	})
}
