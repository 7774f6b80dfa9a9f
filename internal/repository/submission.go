package repository

import (
	"context"

	"linkcart/internal/model"

	"gorm.io/gorm"
)

// SubmissionRepository is the submitted-links collection. Create reports only
// whether the write reached the store; it does not confirm an operator will
// pick the batch up.
type SubmissionRepository interface {
	Create(ctx context.Context, batch *model.SubmittedLinkBatch) error
	FindAll(ctx context.Context) ([]*model.SubmittedLinkBatch, error)
}

type submissionRepoImpl struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepoImpl{
		db: db,
	}
}

func (r *submissionRepoImpl) Create(ctx context.Context, batch *model.SubmittedLinkBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *submissionRepoImpl) FindAll(ctx context.Context) ([]*model.SubmittedLinkBatch, error) {
	var batches []*model.SubmittedLinkBatch
	err := r.db.WithContext(ctx).
		Order("submitted_at ASC").
		Order("id ASC").
		Find(&batches).Error

	if err != nil {
		return nil, err
	}

	return batches, nil
}
