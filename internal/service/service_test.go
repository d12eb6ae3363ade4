package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"deckster-be/internal/entity"
	"deckster-be/internal/model"
	"deckster-be/internal/repository/unitofwork"
	"deckster-be/pkg/filestore"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// One connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.UploadedFile{},
		&model.SessionStateCache{},
		&model.Subscription{},
		&model.Payment{},
	))
	return db
}

func newTestFactory(t *testing.T) unitofwork.RepositoryFactory {
	t.Helper()
	return unitofwork.NewRepositoryFactory(newTestDB(t))
}

func seedUser(t *testing.T, factory unitofwork.RepositoryFactory) *entity.User {
	t.Helper()

	user := &entity.User{
		Id:        uuid.New(),
		Email:     "user-" + uuid.New().String() + "@example.com",
		Name:      "Test User",
		Role:      entity.UserRoleUser,
		Tier:      entity.UserTierFree,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	uow := factory.NewUnitOfWork(context.Background())
	require.NoError(t, uow.UserRepository().Create(context.Background(), user))
	return user
}

func seedSession(t *testing.T, factory unitofwork.RepositoryFactory, userId uuid.UUID, id string, mutate func(*entity.ChatSession)) *entity.ChatSession {
	t.Helper()

	now := time.Now()
	session := &entity.ChatSession{
		Id:           id,
		UserId:       userId,
		Title:        "Untitled",
		Status:       entity.SessionStatusDraft,
		CurrentStage: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if mutate != nil {
		mutate(session)
	}
	uow := factory.NewUnitOfWork(context.Background())
	require.NoError(t, uow.ChatSessionRepository().Create(context.Background(), session))
	return session
}

// capturePublisher records everything services publish on the event bus.
type capturePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *capturePublisher) Publish(_ context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *capturePublisher) published() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.payloads...)
}

// fakeFileSearchStore stands in for the Gemini client in service tests.
type fakeFileSearchStore struct {
	mu            sync.Mutex
	created       []string
	deleted       []string
	failDelete    map[string]bool
	uploadedFiles map[string][]filestore.StoreFile
}

func newFakeStore() *fakeFileSearchStore {
	return &fakeFileSearchStore{
		failDelete:    map[string]bool{},
		uploadedFiles: map[string][]filestore.StoreFile{},
	}
}

func (f *fakeFileSearchStore) CreateStore(_ context.Context, displayName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := "fileSearchStores/" + displayName
	f.created = append(f.created, name)
	return name, nil
}

func (f *fakeFileSearchStore) UploadFile(_ context.Context, storeName, fileName, mimeType string, data []byte) (*filestore.StoreFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file := filestore.StoreFile{
		Name:        storeName + "/documents/" + fileName,
		DisplayName: fileName,
		MimeType:    mimeType,
		SizeBytes:   int64(len(data)),
		State:       "ACTIVE",
	}
	f.uploadedFiles[storeName] = append(f.uploadedFiles[storeName], file)
	return &file, nil
}

func (f *fakeFileSearchStore) ListFiles(_ context.Context, storeName string) ([]filestore.StoreFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadedFiles[storeName], nil
}

func (f *fakeFileSearchStore) DeleteStore(_ context.Context, storeName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete[storeName] {
		return errFakeStoreDown
	}
	f.deleted = append(f.deleted, storeName)
	return nil
}

var errFakeStoreDown = &fakeStoreError{}

type fakeStoreError struct{}

func (e *fakeStoreError) Error() string { return "store unavailable" }

// nopLogger satisfies logger.ILogger for tests.
type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }
