package model

import (
	"time"

	"gorm.io/datatypes"
)

type ChatMessage struct {
	Id            string         `gorm:"type:text;primaryKey"` // client-generated
	ChatSessionId string         `gorm:"type:text;not null;index"`
	MessageType   string         `gorm:"type:text;not null;index"`
	Timestamp     time.Time      `gorm:"not null;index"`
	Payload       datatypes.JSON `gorm:"type:jsonb"`
	UserText      *string        `gorm:"type:text"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
