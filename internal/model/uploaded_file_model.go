package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UploadedFile struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatSessionId   string    `gorm:"type:text;not null;index"`
	UserId          uuid.UUID `gorm:"type:uuid;not null;index"`
	FileName        string    `gorm:"type:text;not null"`
	FileSize        int64     `gorm:"not null"`
	MimeType        string    `gorm:"type:text;not null"`
	GeminiFileUri   string    `gorm:"type:text"`
	GeminiFileId    string    `gorm:"type:text"`
	GeminiStoreName string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (UploadedFile) TableName() string {
	return "uploaded_files"
}

type SessionStateCache struct {
	ChatSessionId  string         `gorm:"type:text;primaryKey"`
	ActiveVersion  string         `gorm:"type:text"`
	SlideStructure datatypes.JSON `gorm:"type:jsonb"`
	Status         string         `gorm:"type:text"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (SessionStateCache) TableName() string {
	return "session_state_cache"
}
