package entity

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusDraft    SessionStatus = "draft"
	SessionStatusActive   SessionStatus = "active"
	SessionStatusArchived SessionStatus = "archived"
	SessionStatusDeleted  SessionStatus = "deleted"
)

// ChatSession is one presentation-building conversation. Ids are generated by
// the client so the builder can open a websocket before the row exists.
type ChatSession struct {
	Id           string
	UserId       uuid.UUID
	Title        string
	Status       SessionStatus
	CurrentStage int

	// Null until the session receives its first message.
	FirstMessageAt *time.Time
	LastMessageAt  *time.Time

	StrawmanURL *string
	StrawmanId  *string
	RefinedURL  *string
	RefinedId   *string
	FinalURL    *string
	FinalId     *string

	SlideCount      int
	IsFavorite      bool
	GeminiStoreName *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Abandoned reports whether the session qualifies for hard deletion: a draft
// that never received a message and is older than the threshold.
func (s *ChatSession) Abandoned(threshold time.Duration, now time.Time) bool {
	return s.Status == SessionStatusDraft &&
		s.LastMessageAt == nil &&
		s.CreatedAt.Before(now.Add(-threshold))
}

type ChatMessage struct {
	Id            string
	ChatSessionId string
	MessageType   string
	Timestamp     time.Time
	Payload       []byte
	UserText      *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type SessionStateCache struct {
	ChatSessionId  string
	ActiveVersion  string
	SlideStructure []byte
	Status         string
	UpdatedAt      time.Time
}

type UploadedFile struct {
	Id              uuid.UUID
	ChatSessionId   string
	UserId          uuid.UUID
	FileName        string
	FileSize        int64
	MimeType        string
	GeminiFileUri   string
	GeminiFileId    string
	GeminiStoreName string
	CreatedAt       time.Time
}
