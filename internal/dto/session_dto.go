package dto

import (
	"encoding/json"
	"time"
)

type CreateSessionRequest struct {
	Id    string `json:"id" validate:"required,max=128"`
	Title string `json:"title" validate:"max=500"`
}

type SessionResponse struct {
	Id              string     `json:"id"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	CurrentStage    int        `json:"currentStage"`
	FirstMessageAt  *time.Time `json:"firstMessageAt"`
	LastMessageAt   *time.Time `json:"lastMessageAt"`
	StrawmanURL     *string    `json:"strawmanUrl,omitempty"`
	StrawmanId      *string    `json:"strawmanId,omitempty"`
	RefinedURL      *string    `json:"refinedUrl,omitempty"`
	RefinedId       *string    `json:"refinedId,omitempty"`
	FinalURL        *string    `json:"finalUrl,omitempty"`
	FinalId         *string    `json:"finalId,omitempty"`
	SlideCount      int        `json:"slideCount"`
	IsFavorite      bool       `json:"isFavorite"`
	GeminiStoreName *string    `json:"geminiStoreName,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type ListSessionsRequest struct {
	Status string
	Limit  int
	Offset int
}

type ListSessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int               `json:"total"`
}

// SessionDetailResponse nests messages and state cache for the builder's
// initial hydration call.
type SessionDetailResponse struct {
	SessionResponse
	Messages   []MessageResponse        `json:"messages"`
	StateCache *SessionStateCacheResponse `json:"stateCache"`
}

type SessionStateCacheResponse struct {
	ActiveVersion  string          `json:"activeVersion"`
	SlideStructure json.RawMessage `json:"slideStructure"`
	Status         string          `json:"status"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PatchSessionRequest carries only the fields callers are allowed to change.
// Unknown keys in the body are rejected before this struct is populated.
// Status is deliberately absent; it only moves through the activate and
// delete endpoints.
type PatchSessionRequest struct {
	Title           *string `json:"title"`
	CurrentStage    *int    `json:"currentStage" validate:"omitempty,min=1,max=6"`
	SlideCount      *int    `json:"slideCount" validate:"omitempty,min=0"`
	IsFavorite      *bool   `json:"isFavorite"`
	StrawmanURL     *string `json:"strawmanUrl"`
	StrawmanId      *string `json:"strawmanId"`
	RefinedURL      *string `json:"refinedUrl"`
	RefinedId       *string `json:"refinedId"`
	FinalURL        *string `json:"finalUrl"`
	FinalId         *string `json:"finalId"`
	GeminiStoreName *string `json:"geminiStoreName"`
}

type ActivateSessionResponse struct {
	Id             string     `json:"id"`
	Status         string     `json:"status"`
	FirstMessageAt *time.Time `json:"firstMessageAt"`
	LastMessageAt  *time.Time `json:"lastMessageAt"`
}
