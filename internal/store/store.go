// Package store holds buyer-scoped local state: carts, removal ledgers,
// last-ordered markers and pending link batches. Nothing here is shared with
// the submissions or invoice collections.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("local state not found")

const (
	KeyCart         = "cart"
	KeyRemoved      = "removed_invoices"
	KeyLastOrdered  = "last_ordered"
	KeyPendingLinks = "pending_links"
)

// LocalStore is a scope-namespaced key/value store. Writes are
// last-write-wins.
type LocalStore interface {
	Get(ctx context.Context, scope, key string) ([]byte, error)
	Put(ctx context.Context, scope, key string, value []byte) error
	Delete(ctx context.Context, scope, key string) error
}

// LoadJSON decodes the value at scope/key into v. A missing value leaves v
// untouched and reports false.
func LoadJSON(ctx context.Context, s LocalStore, scope, key string, v any) (bool, error) {
	data, err := s.Get(ctx, scope, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func SaveJSON(ctx context.Context, s LocalStore, scope, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Put(ctx, scope, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
