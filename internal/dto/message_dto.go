package dto

import (
	"encoding/json"
	"time"
)

type SyncMessageItem struct {
	Id          string          `json:"id" validate:"required,max=128"`
	MessageType string          `json:"messageType" validate:"required,max=64"`
	Timestamp   time.Time       `json:"timestamp" validate:"required"`
	Payload     json.RawMessage `json:"payload" validate:"required"`
	UserText    *string         `json:"userText"`
}

type SyncMessagesRequest struct {
	Messages []SyncMessageItem `json:"messages" validate:"required,min=1,dive"`
}

// SyncMessagesResponse reports per-batch outcomes; a failed item never
// fails the whole request.
type SyncMessagesResponse struct {
	Saved  int      `json:"saved"`
	Failed int      `json:"failed"`
	Total  int      `json:"total"`
	Errors []string `json:"errors,omitempty"`
}

type ListMessagesRequest struct {
	Limit       int
	Offset      int
	MessageType string
}

type MessageResponse struct {
	Id          string          `json:"id"`
	MessageType string          `json:"messageType"`
	Timestamp   time.Time       `json:"timestamp"`
	Payload     json.RawMessage `json:"payload"`
	UserText    *string         `json:"userText"`
}

type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
	HasMore  bool              `json:"hasMore"`
}
