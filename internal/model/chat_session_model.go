package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id           string    `gorm:"type:text;primaryKey"` // client-generated
	UserId       uuid.UUID `gorm:"type:uuid;not null;index"`
	Title        string    `gorm:"type:text;not null"`
	Status       string    `gorm:"type:text;not null;default:'draft';index"`
	CurrentStage int       `gorm:"not null;default:1"`

	FirstMessageAt *time.Time
	LastMessageAt  *time.Time `gorm:"index"`

	StrawmanURL *string `gorm:"type:text"`
	StrawmanId  *string `gorm:"type:text"`
	RefinedURL  *string `gorm:"type:text"`
	RefinedId   *string `gorm:"type:text"`
	FinalURL    *string `gorm:"type:text"`
	FinalId     *string `gorm:"type:text"`

	SlideCount      int     `gorm:"not null;default:0"`
	IsFavorite      bool    `gorm:"not null;default:false"`
	GeminiStoreName *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
