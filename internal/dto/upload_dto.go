package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadedFileResponse struct {
	Id              uuid.UUID `json:"id"`
	FileName        string    `json:"fileName"`
	FileSize        int64     `json:"fileSize"`
	MimeType        string    `json:"mimeType"`
	GeminiFileUri   string    `json:"geminiFileUri,omitempty"`
	GeminiFileId    string    `json:"geminiFileId,omitempty"`
	GeminiStoreName string    `json:"geminiStoreName,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type UploadResponse struct {
	SessionId string                 `json:"sessionId"`
	Files     []UploadedFileResponse `json:"files"`
}
