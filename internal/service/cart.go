package service

import (
	"context"
	"fmt"

	"linkcart/internal/model"
	"linkcart/internal/store"

	"github.com/shopspring/decimal"
)

// AddToCart appends item unless an item with the same natural key is already
// in cart. Details, shipping and links play no part in the comparison.
func AddToCart(cart []model.CartItem, item model.CartItem) ([]model.CartItem, error) {
	key := item.Key()
	for _, c := range cart {
		if c.Key().Equal(key) {
			return nil, ErrDuplicateItem
		}
	}
	next := make([]model.CartItem, 0, len(cart)+1)
	next = append(next, cart...)
	return append(next, item), nil
}

func RemoveFromCart(cart []model.CartItem, index int) ([]model.CartItem, error) {
	if index < 0 || index >= len(cart) {
		return nil, &ValidationError{Field: "index", Reason: fmt.Sprintf("%d out of range", index)}
	}
	next := make([]model.CartItem, 0, len(cart)-1)
	next = append(next, cart[:index]...)
	return append(next, cart[index+1:]...), nil
}

// Totals are kept at full precision; round only when rendering.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

func ComputeTotals(cart []model.CartItem) Totals {
	subtotal := decimal.Zero
	shipping := decimal.Zero
	for _, item := range cart {
		subtotal = subtotal.Add(item.Price)
		shipping = shipping.Add(item.Shipping)
	}
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}

type CartService interface {
	Items(ctx context.Context, buyer model.Buyer) ([]model.CartItem, error)
	Add(ctx context.Context, buyer model.Buyer, item model.CartItem) ([]model.CartItem, error)
	RemoveAt(ctx context.Context, buyer model.Buyer, index int) ([]model.CartItem, error)
	// Retain drops every item keep rejects and returns what is left.
	Retain(ctx context.Context, buyer model.Buyer, keep func(model.CartItem) bool) ([]model.CartItem, error)
	Clear(ctx context.Context, buyer model.Buyer) error
}

type cartServiceImpl struct {
	local store.LocalStore
	locks *keyedMutex
}

func NewCartService(local store.LocalStore) CartService {
	return &cartServiceImpl{
		local: local,
		locks: newKeyedMutex(),
	}
}

func (s *cartServiceImpl) Items(ctx context.Context, buyer model.Buyer) ([]model.CartItem, error) {
	return s.load(ctx, buyer.Scope())
}

func (s *cartServiceImpl) Add(ctx context.Context, buyer model.Buyer, item model.CartItem) ([]model.CartItem, error) {
	return s.update(ctx, buyer, func(cart []model.CartItem) ([]model.CartItem, error) {
		return AddToCart(cart, item)
	})
}

func (s *cartServiceImpl) RemoveAt(ctx context.Context, buyer model.Buyer, index int) ([]model.CartItem, error) {
	return s.update(ctx, buyer, func(cart []model.CartItem) ([]model.CartItem, error) {
		return RemoveFromCart(cart, index)
	})
}

func (s *cartServiceImpl) Retain(ctx context.Context, buyer model.Buyer, keep func(model.CartItem) bool) ([]model.CartItem, error) {
	return s.update(ctx, buyer, func(cart []model.CartItem) ([]model.CartItem, error) {
		next := make([]model.CartItem, 0, len(cart))
		for _, item := range cart {
			if keep(item) {
				next = append(next, item)
			}
		}
		return next, nil
	})
}

func (s *cartServiceImpl) Clear(ctx context.Context, buyer model.Buyer) error {
	_, err := s.update(ctx, buyer, func([]model.CartItem) ([]model.CartItem, error) {
		return []model.CartItem{}, nil
	})
	return err
}

// update applies fn to the stored cart and persists the result before
// returning it. A failing fn leaves the stored cart as it was.
func (s *cartServiceImpl) update(ctx context.Context, buyer model.Buyer, fn func([]model.CartItem) ([]model.CartItem, error)) ([]model.CartItem, error) {
	scope := buyer.Scope()
	defer s.locks.Lock(scope)()

	cart, err := s.load(ctx, scope)
	if err != nil {
		return nil, err
	}
	next, err := fn(cart)
	if err != nil {
		return nil, err
	}
	if err := store.SaveJSON(ctx, s.local, scope, store.KeyCart, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *cartServiceImpl) load(ctx context.Context, scope string) ([]model.CartItem, error) {
	cart := []model.CartItem{}
	if _, err := store.LoadJSON(ctx, s.local, scope, store.KeyCart, &cart); err != nil {
		return nil, err
	}
	return cart, nil
}
