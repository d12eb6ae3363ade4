package mapper

import (
	"deckster-be/internal/entity"
	"deckster-be/internal/model"

	"gorm.io/datatypes"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) SessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	return &entity.ChatSession{
		Id:              s.Id,
		UserId:          s.UserId,
		Title:           s.Title,
		Status:          entity.SessionStatus(s.Status),
		CurrentStage:    s.CurrentStage,
		FirstMessageAt:  s.FirstMessageAt,
		LastMessageAt:   s.LastMessageAt,
		StrawmanURL:     s.StrawmanURL,
		StrawmanId:      s.StrawmanId,
		RefinedURL:      s.RefinedURL,
		RefinedId:       s.RefinedId,
		FinalURL:        s.FinalURL,
		FinalId:         s.FinalId,
		SlideCount:      s.SlideCount,
		IsFavorite:      s.IsFavorite,
		GeminiStoreName: s.GeminiStoreName,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func (m *SessionMapper) SessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	return &model.ChatSession{
		Id:              s.Id,
		UserId:          s.UserId,
		Title:           s.Title,
		Status:          string(s.Status),
		CurrentStage:    s.CurrentStage,
		FirstMessageAt:  s.FirstMessageAt,
		LastMessageAt:   s.LastMessageAt,
		StrawmanURL:     s.StrawmanURL,
		StrawmanId:      s.StrawmanId,
		RefinedURL:      s.RefinedURL,
		RefinedId:       s.RefinedId,
		FinalURL:        s.FinalURL,
		FinalId:         s.FinalId,
		SlideCount:      s.SlideCount,
		IsFavorite:      s.IsFavorite,
		GeminiStoreName: s.GeminiStoreName,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func (m *SessionMapper) MessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	return &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		MessageType:   msg.MessageType,
		Timestamp:     msg.Timestamp,
		Payload:       []byte(msg.Payload),
		UserText:      msg.UserText,
		CreatedAt:     msg.CreatedAt,
		UpdatedAt:     msg.UpdatedAt,
	}
}

func (m *SessionMapper) MessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		MessageType:   msg.MessageType,
		Timestamp:     msg.Timestamp,
		Payload:       datatypes.JSON(msg.Payload),
		UserText:      msg.UserText,
		CreatedAt:     msg.CreatedAt,
		UpdatedAt:     msg.UpdatedAt,
	}
}

func (m *SessionMapper) StateCacheToEntity(c *model.SessionStateCache) *entity.SessionStateCache {
	if c == nil {
		return nil
	}

	return &entity.SessionStateCache{
		ChatSessionId:  c.ChatSessionId,
		ActiveVersion:  c.ActiveVersion,
		SlideStructure: []byte(c.SlideStructure),
		Status:         c.Status,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (m *SessionMapper) StateCacheToModel(c *entity.SessionStateCache) *model.SessionStateCache {
	if c == nil {
		return nil
	}

	return &model.SessionStateCache{
		ChatSessionId:  c.ChatSessionId,
		ActiveVersion:  c.ActiveVersion,
		SlideStructure: datatypes.JSON(c.SlideStructure),
		Status:         c.Status,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (m *SessionMapper) FileToEntity(f *model.UploadedFile) *entity.UploadedFile {
	if f == nil {
		return nil
	}

	return &entity.UploadedFile{
		Id:              f.Id,
		ChatSessionId:   f.ChatSessionId,
		UserId:          f.UserId,
		FileName:        f.FileName,
		FileSize:        f.FileSize,
		MimeType:        f.MimeType,
		GeminiFileUri:   f.GeminiFileUri,
		GeminiFileId:    f.GeminiFileId,
		GeminiStoreName: f.GeminiStoreName,
		CreatedAt:       f.CreatedAt,
	}
}

func (m *SessionMapper) FileToModel(f *entity.UploadedFile) *model.UploadedFile {
	if f == nil {
		return nil
	}

	return &model.UploadedFile{
		Id:              f.Id,
		ChatSessionId:   f.ChatSessionId,
		UserId:          f.UserId,
		FileName:        f.FileName,
		FileSize:        f.FileSize,
		MimeType:        f.MimeType,
		GeminiFileUri:   f.GeminiFileUri,
		GeminiFileId:    f.GeminiFileId,
		GeminiStoreName: f.GeminiStoreName,
		CreatedAt:       f.CreatedAt,
	}
}
