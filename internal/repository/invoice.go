package repository

import (
	"context"

	"linkcart/internal/model"

	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(ctx context.Context, item *model.InvoiceLineItem) error
	FindByBuyerEmail(ctx context.Context, buyerEmail string) ([]*model.InvoiceLineItem, error)
}

type invoiceRepoImpl struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepoImpl{
		db: db,
	}
}

func (r *invoiceRepoImpl) Create(ctx context.Context, item *model.InvoiceLineItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *invoiceRepoImpl) FindByBuyerEmail(ctx context.Context, buyerEmail string) ([]*model.InvoiceLineItem, error) {
	var items []*model.InvoiceLineItem
	err := r.db.WithContext(ctx).
		Where("buyer_email = ?", buyerEmail).
		Order("id ASC").
		Find(&items).
		Error

	if err != nil {
		return nil, err
	}

	return items, nil
}
