package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"deckster-be/internal/dto"
	"deckster-be/internal/entity"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/repository/specification"
	"deckster-be/internal/repository/unitofwork"
	"deckster-be/pkg/backend"

	"github.com/google/uuid"
)

// UploadFileInput is one multipart file already read into memory by the
// controller.
type UploadFileInput struct {
	FileName string
	MimeType string
	Data     []byte
}

type IUploadService interface {
	Upload(ctx context.Context, userId uuid.UUID, sessionId string, files []UploadFileInput) (*dto.UploadResponse, error)
}

type uploadService struct {
	uowFactory         unitofwork.RepositoryFactory
	fileClient         backend.FileClient
	publisherService   IPublisherService
	maxFileSizeBytes   int64
	maxFilesPerSession int
}

func NewUploadService(
	uowFactory unitofwork.RepositoryFactory,
	fileClient backend.FileClient,
	publisherService IPublisherService,
	maxFileSizeMB int,
	maxFilesPerSession int,
) IUploadService {
	return &uploadService{
		uowFactory:         uowFactory,
		fileClient:         fileClient,
		publisherService:   publisherService,
		maxFileSizeBytes:   int64(maxFileSizeMB) * 1024 * 1024,
		maxFilesPerSession: maxFilesPerSession,
	}
}

func (s *uploadService) Upload(ctx context.Context, userId uuid.UUID, sessionId string, files []UploadFileInput) (*dto.UploadResponse, error) {
	if len(files) == 0 {
		return nil, serverutils.NewBadRequest("No files provided")
	}
	for _, f := range files {
		if f.FileName == "" {
			return nil, serverutils.NewBadRequest("File is missing a name")
		}
		if int64(len(f.Data)) > s.maxFileSizeBytes {
			return nil, serverutils.NewBadRequest(fmt.Sprintf(
				"File %s exceeds the %d MB size limit", f.FileName, s.maxFileSizeBytes/(1024*1024)))
		}
	}

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

	// Cap is per session, counting what was already uploaded.
	existing, err := uow.UploadedFileRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
	)
	if err != nil {
		return nil, err
	}
	if int(existing)+len(files) > s.maxFilesPerSession {
		return nil, serverutils.NewBadRequest(fmt.Sprintf(
			"Session file limit exceeded: max %d files per session", s.maxFilesPerSession))
	}

	res := dto.UploadResponse{
		SessionId: sessionId,
		Files:     make([]dto.UploadedFileResponse, 0, len(files)),
	}

	for _, f := range files {
		result, err := s.fileClient.Upload(ctx, sessionId, f.FileName, f.MimeType, f.Data)
		if err != nil {
			var unreachable *backend.ErrUnreachable
			if errors.As(err, &unreachable) {
				return nil, serverutils.NewUpstreamError("File service is unreachable")
			}
			var upstream *backend.ErrUpstream
			if errors.As(err, &upstream) {
				return nil, &serverutils.AppError{
					Code:    502,
					Message: "File service rejected the upload",
					Data:    map[string]string{"details": upstream.Message},
				}
			}
			return nil, err
		}

		uploaded := entity.UploadedFile{
			Id:            uuid.New(),
			ChatSessionId: sessionId,
			UserId:        userId,
			FileName:      f.FileName,
			FileSize:      int64(len(f.Data)),
			MimeType:      f.MimeType,
			GeminiFileId:  result.FileId,
			CreatedAt:     time.Now(),
		}
		if err := uow.UploadedFileRepository().Create(ctx, &uploaded); err != nil {
			return nil, err
		}

		res.Files = append(res.Files, dto.UploadedFileResponse{
			Id:           uploaded.Id,
			FileName:     uploaded.FileName,
			FileSize:     uploaded.FileSize,
			MimeType:     uploaded.MimeType,
			GeminiFileId: uploaded.GeminiFileId,
			CreatedAt:    uploaded.CreatedAt,
		})
	}

	s.publishUploadEvent(ctx, userId, sessionId, len(res.Files))
	return &res, nil
}

func (s *uploadService) publishUploadEvent(ctx context.Context, userId uuid.UUID, sessionId string, count int) {
	if s.publisherService == nil {
		return
	}
	envelope := SessionEventEnvelope{
		UserId:    userId,
		Type:      "FILES_UPLOADED",
		SessionId: sessionId,
		Data:      map[string]interface{}{"count": count},
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		fmt.Printf("[WARN] Failed to publish FILES_UPLOADED event: %v\n", err)
	}
}
