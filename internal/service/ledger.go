package service

import (
	"context"

	"linkcart/internal/model"
	"linkcart/internal/store"
)

// Ledger is the set of natural keys a buyer removed from view. It only grows.
type Ledger struct {
	keys  map[string]struct{}
	order []string
}

func NewLedger(keys ...string) *Ledger {
	l := &Ledger{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		l.add(k)
	}
	return l
}

func (l *Ledger) Add(key model.NaturalKey) bool {
	return l.add(key.String())
}

func (l *Ledger) Contains(key model.NaturalKey) bool {
	_, ok := l.keys[key.String()]
	return ok
}

func (l *Ledger) Len() int {
	return len(l.order)
}

// Keys returns the stored keys in the order they were added.
func (l *Ledger) Keys() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

func (l *Ledger) add(k string) bool {
	if _, ok := l.keys[k]; ok {
		return false
	}
	l.keys[k] = struct{}{}
	l.order = append(l.order, k)
	return true
}

// Reconcile drops every item whose natural key is in ledger, keeping the
// relative order of the rest.
func Reconcile(items []model.InvoiceLineItem, ledger *Ledger) []model.InvoiceLineItem {
	out := make([]model.InvoiceLineItem, 0, len(items))
	for _, item := range items {
		if ledger.Contains(item.Key()) {
			continue
		}
		out = append(out, item)
	}
	return out
}

type LedgerService interface {
	// Load returns the buyer's ledger after folding in any pending
	// last-ordered marker.
	Load(ctx context.Context, buyer model.Buyer) (*Ledger, error)
	Remove(ctx context.Context, buyer model.Buyer, key model.NaturalKey) error
	// RecordLastOrdered writes the marker the cash-on-delivery confirmation
	// leaves behind. It is consumed by the next Load.
	RecordLastOrdered(ctx context.Context, buyer model.Buyer, items []model.OrderedItem) error
	// Visible is the invoice list the buyer should see right now.
	Visible(ctx context.Context, buyer model.Buyer) ([]model.InvoiceLineItem, error)
}

type ledgerServiceImpl struct {
	invoices InvoiceService
	local    store.LocalStore
	locks    *keyedMutex
}

func NewLedgerService(invoices InvoiceService, local store.LocalStore) LedgerService {
	return &ledgerServiceImpl{
		invoices: invoices,
		local:    local,
		locks:    newKeyedMutex(),
	}
}

func (s *ledgerServiceImpl) Load(ctx context.Context, buyer model.Buyer) (*Ledger, error) {
	if !buyer.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	scope := buyer.Scope()
	defer s.locks.Lock(scope)()

	ledger, err := s.read(ctx, scope)
	if err != nil {
		return nil, err
	}

	var marker []model.OrderedItem
	found, err := store.LoadJSON(ctx, s.local, scope, store.KeyLastOrdered, &marker)
	if err != nil || !found {
		return ledger, err
	}

	for _, item := range marker {
		key := item.Key()
		if key.BuyerEmail == "" {
			key.BuyerEmail = buyer.Email
		}
		ledger.Add(key)
	}
	if err := store.SaveJSON(ctx, s.local, scope, store.KeyRemoved, ledger.Keys()); err != nil {
		return nil, err
	}
	// Folding is idempotent, so the marker only goes once the ledger is saved.
	if err := s.local.Delete(ctx, scope, store.KeyLastOrdered); err != nil {
		return nil, err
	}
	return ledger, nil
}

func (s *ledgerServiceImpl) Remove(ctx context.Context, buyer model.Buyer, key model.NaturalKey) error {
	if !buyer.Authenticated() {
		return ErrNotAuthenticated
	}
	scope := buyer.Scope()
	defer s.locks.Lock(scope)()

	ledger, err := s.read(ctx, scope)
	if err != nil {
		return err
	}
	if !ledger.Add(key) {
		return nil
	}
	return store.SaveJSON(ctx, s.local, scope, store.KeyRemoved, ledger.Keys())
}

func (s *ledgerServiceImpl) RecordLastOrdered(ctx context.Context, buyer model.Buyer, items []model.OrderedItem) error {
	if !buyer.Authenticated() {
		return ErrNotAuthenticated
	}
	if len(items) == 0 {
		return &ValidationError{Field: "items", Reason: "must not be empty"}
	}
	scope := buyer.Scope()
	defer s.locks.Lock(scope)()

	// An unconsumed marker is extended, not replaced.
	var marker []model.OrderedItem
	if _, err := store.LoadJSON(ctx, s.local, scope, store.KeyLastOrdered, &marker); err != nil {
		return err
	}
	return store.SaveJSON(ctx, s.local, scope, store.KeyLastOrdered, append(marker, items...))
}

func (s *ledgerServiceImpl) Visible(ctx context.Context, buyer model.Buyer) ([]model.InvoiceLineItem, error) {
	if !buyer.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	items, err := s.invoices.Fetch(ctx, buyer.Email)
	if err != nil {
		return nil, err
	}
	ledger, err := s.Load(ctx, buyer)
	if err != nil {
		return nil, err
	}
	return Reconcile(items, ledger), nil
}

func (s *ledgerServiceImpl) read(ctx context.Context, scope string) (*Ledger, error) {
	var keys []string
	if _, err := store.LoadJSON(ctx, s.local, scope, store.KeyRemoved, &keys); err != nil {
		return nil, err
	}
	return NewLedger(keys...), nil
}
