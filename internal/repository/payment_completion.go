package repository

import (
	"context"
	"time"

	"linkcart/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentCompletionRepository interface {
	Exists(ctx context.Context, orderID string) (bool, error)
	// MarkCompleted inserts the completion record and reports whether this
	// call created it.
	MarkCompleted(ctx context.Context, completion *model.PaymentCompletion) (bool, error)
}

type paymentCompletionRepoImpl struct {
	db *gorm.DB
}

func NewPaymentCompletionRepository(db *gorm.DB) PaymentCompletionRepository {
	return &paymentCompletionRepoImpl{db: db}
}

func (r *paymentCompletionRepoImpl) Exists(ctx context.Context, orderID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PaymentCompletion{}).
		Where("order_id = ?", orderID).
		Count(&count).Error

	return count > 0, err
}

func (r *paymentCompletionRepoImpl) MarkCompleted(ctx context.Context, completion *model.PaymentCompletion) (bool, error) {
	if completion.CompletedAt.IsZero() {
		completion.CompletedAt = time.Now()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(completion)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
