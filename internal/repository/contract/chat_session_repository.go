package contract

import (
	"context"

	"deckster-be/internal/entity"
	"deckster-be/internal/repository/specification"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	Update(ctx context.Context, session *entity.ChatSession) error
	Delete(ctx context.Context, id string) error // hard delete, cleanup only
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type ChatMessageRepository interface {
	// Upsert inserts or updates by client-supplied id. On conflict the payload,
	// type and timestamp are replaced; user_text is only replaced when the
	// incoming value is non-null.
	Upsert(ctx context.Context, message *entity.ChatMessage) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteBySessionId(ctx context.Context, sessionId string) (int64, error)
}

type SessionStateCacheRepository interface {
	Upsert(ctx context.Context, cache *entity.SessionStateCache) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SessionStateCache, error)
	DeleteBySessionId(ctx context.Context, sessionId string) (int64, error)
}

type UploadedFileRepository interface {
	Create(ctx context.Context, file *entity.UploadedFile) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UploadedFile, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteBySessionId(ctx context.Context, sessionId string) (int64, error)
}
