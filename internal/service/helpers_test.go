package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"linkcart/internal/client"
	"linkcart/internal/model"
	"linkcart/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errBoom = errors.New("boom")

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, client.Migrate(db))
	return db
}

func setupLocalStore(t *testing.T) store.LocalStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return store.NewRedisStore(rdb)
}

func buyerA() model.Buyer {
	return model.Buyer{ID: "u-a", Email: "a@x.com", Name: "Alice"}
}

func buyerB() model.Buyer {
	return model.Buyer{ID: "u-b", Email: "b@x.com", Name: "Bob"}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func widget() model.CartItem {
	return model.CartItem{ProductName: "Widget", Price: dec("10.00"), Shipping: dec("2.00"), BuyerEmail: "a@x.com"}
}

func gadget() model.CartItem {
	return model.CartItem{ProductName: "Gadget", Price: dec("5.00"), Shipping: dec("1.50"), BuyerEmail: "a@x.com"}
}

type fakeGateway struct {
	mu       sync.Mutex
	ready    bool
	initiate func(req model.PaymentRequest) (*client.Initiation, error)
	requests []model.PaymentRequest
}

func newRedirectGateway() *fakeGateway {
	return &fakeGateway{
		ready: true,
		initiate: func(req model.PaymentRequest) (*client.Initiation, error) {
			return &client.Initiation{
				GatewayOrderID: "PP-" + req.OrderID,
				ApprovalURL:    "https://paypal.test/approve/" + req.OrderID,
			}, nil
		},
	}
}

func (g *fakeGateway) Ready() bool { return g.ready }

func (g *fakeGateway) Initiate(ctx context.Context, req model.PaymentRequest) (*client.Initiation, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	return g.initiate(req)
}

func (g *fakeGateway) Requests() []model.PaymentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.PaymentRequest(nil), g.requests...)
}

type fakeNotifier struct {
	mu  sync.Mutex
	err error
	got []model.SubmittedLinkBatch
}

func (n *fakeNotifier) Notify(ctx context.Context, batch model.SubmittedLinkBatch) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, batch)
	return n.err
}

func (n *fakeNotifier) Close() error { return nil }

func (n *fakeNotifier) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.got)
}
