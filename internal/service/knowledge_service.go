package service

import (
	"context"
	"fmt"
	"time"

	"deckster-be/internal/dto"
	"deckster-be/internal/entity"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/repository/specification"
	"deckster-be/internal/repository/unitofwork"
	"deckster-be/pkg/filestore"

	"github.com/google/uuid"
)

// IKnowledgeService manages the per-session Gemini File Search Store that
// grounds presentation generation on the user's uploaded documents.
type IKnowledgeService interface {
	// EnsureStore returns the session's store name, provisioning one on
	// first use and persisting it on the session row.
	EnsureStore(ctx context.Context, userId uuid.UUID, sessionId string) (string, error)

	// IndexFile pushes file bytes into the session's store and records the
	// resulting document on the UploadedFile row.
	IndexFile(ctx context.Context, userId uuid.UUID, sessionId, fileName, mimeType string, data []byte) (*dto.UploadedFileResponse, error)

	ListFiles(ctx context.Context, userId uuid.UUID, sessionId string) ([]filestore.StoreFile, error)
	DeleteStore(ctx context.Context, userId uuid.UUID, sessionId string) error
}

type knowledgeService struct {
	uowFactory unitofwork.RepositoryFactory
	store      filestore.FileSearchStore
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	store filestore.FileSearchStore,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory: uowFactory,
		store:      store,
	}
}

func (s *knowledgeService) EnsureStore(ctx context.Context, userId uuid.UUID, sessionId string) (string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, userId, sessionId)
	if err != nil {
		return "", err
	}

	if session.GeminiStoreName != nil && *session.GeminiStoreName != "" {
		return *session.GeminiStoreName, nil
	}

	storeName, err := s.store.CreateStore(ctx, fmt.Sprintf("session-%s", sessionId))
	if err != nil {
		return "", serverutils.NewUpstreamError(fmt.Sprintf("Failed to create file search store: %v", err))
	}

	session.GeminiStoreName = &storeName
	session.UpdatedAt = time.Now()
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return "", err
	}

	return storeName, nil
}

func (s *knowledgeService) IndexFile(ctx context.Context, userId uuid.UUID, sessionId, fileName, mimeType string, data []byte) (*dto.UploadedFileResponse, error) {
	storeName, err := s.EnsureStore(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	storeFile, err := s.store.UploadFile(ctx, storeName, fileName, mimeType, data)
	if err != nil {
		return nil, serverutils.NewUpstreamError(fmt.Sprintf("Failed to index file: %v", err))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	uploaded := entity.UploadedFile{
		Id:              uuid.New(),
		ChatSessionId:   sessionId,
		UserId:          userId,
		FileName:        fileName,
		FileSize:        int64(len(data)),
		MimeType:        mimeType,
		GeminiFileUri:   storeFile.Name,
		GeminiStoreName: storeName,
		CreatedAt:       time.Now(),
	}
	if err := uow.UploadedFileRepository().Create(ctx, &uploaded); err != nil {
		return nil, err
	}

	return &dto.UploadedFileResponse{
		Id:              uploaded.Id,
		FileName:        uploaded.FileName,
		FileSize:        uploaded.FileSize,
		MimeType:        uploaded.MimeType,
		GeminiFileUri:   uploaded.GeminiFileUri,
		GeminiStoreName: uploaded.GeminiStoreName,
		CreatedAt:       uploaded.CreatedAt,
	}, nil
}

func (s *knowledgeService) ListFiles(ctx context.Context, userId uuid.UUID, sessionId string) ([]filestore.StoreFile, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	if session.GeminiStoreName == nil || *session.GeminiStoreName == "" {
		return []filestore.StoreFile{}, nil
	}

	files, err := s.store.ListFiles(ctx, *session.GeminiStoreName)
	if err != nil {
		return nil, serverutils.NewUpstreamError(fmt.Sprintf("Failed to list store files: %v", err))
	}
	return files, nil
}

func (s *knowledgeService) DeleteStore(ctx context.Context, userId uuid.UUID, sessionId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}

	if session.GeminiStoreName == nil || *session.GeminiStoreName == "" {
		return nil
	}

	if err := s.store.DeleteStore(ctx, *session.GeminiStoreName); err != nil {
		return serverutils.NewUpstreamError(fmt.Sprintf("Failed to delete store: %v", err))
	}

	session.GeminiStoreName = nil
	session.UpdatedAt = time.Now()
	return uow.ChatSessionRepository().Update(ctx, session)
}

func (s *knowledgeService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId string) (*entity.ChatSession, error) {
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
	return session, nil
}
