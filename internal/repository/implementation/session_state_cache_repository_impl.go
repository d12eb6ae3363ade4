package implementation

import (
	"context"
	"errors"
	"time"

	"deckster-be/internal/entity"
	"deckster-be/internal/mapper"
	"deckster-be/internal/model"
	"deckster-be/internal/repository/contract"
	"deckster-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionStateCacheRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionStateCacheRepository(db *gorm.DB) contract.SessionStateCacheRepository {
	return &SessionStateCacheRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionStateCacheRepositoryImpl) Upsert(ctx context.Context, cache *entity.SessionStateCache) error {
	m := r.mapper.StateCacheToModel(cache)

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_session_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"active_version":  m.ActiveVersion,
			"slide_structure": m.SlideStructure,
			"status":          m.Status,
			"updated_at":      time.Now(),
		}),
	}).Create(m).Error
}

func (r *SessionStateCacheRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SessionStateCache, error) {
	var m model.SessionStateCache
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.StateCacheToEntity(&m), nil
}

func (r *SessionStateCacheRepositoryImpl) DeleteBySessionId(ctx context.Context, sessionId string) (int64, error) {
	res := r.db.WithContext(ctx).Where("chat_session_id = ?", sessionId).Delete(&model.SessionStateCache{})
	return res.RowsAffected, res.Error
}
