package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByChatSessionID scopes message/file/state rows to one session
type ByChatSessionID struct {
	ChatSessionID string
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// ByStatus filters sessions by lifecycle status
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// NotStatus excludes one lifecycle status (default listings hide 'deleted')
type NotStatus struct {
	Status string
}

func (s NotStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status <> ?", s.Status)
}

// ExcludeGhosts hides sessions that never got a message and are older than
// the cutoff, regardless of their status.
type ExcludeGhosts struct {
	Cutoff time.Time
}

func (s ExcludeGhosts) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("NOT (last_message_at IS NULL AND created_at < ?)", s.Cutoff)
}

// AbandonedDrafts selects drafts with no messages older than the cutoff.
// This is the cleanup job's candidate set.
type AbandonedDrafts struct {
	Cutoff time.Time
}

func (s AbandonedDrafts) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND last_message_at IS NULL AND created_at < ?", "draft", s.Cutoff)
}

// ByMessageType filters messages by type
type ByMessageType struct {
	MessageType string
}

func (s ByMessageType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("message_type = ?", s.MessageType)
}
