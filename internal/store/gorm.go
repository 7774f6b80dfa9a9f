package store

import (
	"context"
	"errors"
	"time"

	"linkcart/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStoreImpl struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) LocalStore {
	return &gormStoreImpl{db: db}
}

func (s *gormStoreImpl) Get(ctx context.Context, scope, key string) ([]byte, error) {
	var row model.LocalState
	err := s.db.WithContext(ctx).
		Where("scope = ? AND state_key = ?", scope, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.Value, nil
}

func (s *gormStoreImpl) Put(ctx context.Context, scope, key string, value []byte) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}, {Name: "state_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": time.Now(),
		}),
	}).Create(&model.LocalState{
		Scope: scope,
		Key:   key,
		Value: value,
	}).Error
}

func (s *gormStoreImpl) Delete(ctx context.Context, scope, key string) error {
	return s.db.WithContext(ctx).
		Where("scope = ? AND state_key = ?", scope, key).
		Delete(&model.LocalState{}).Error
}
