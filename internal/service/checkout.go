package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"linkcart/internal/client"
	"linkcart/internal/config"
	"linkcart/internal/model"
	"linkcart/internal/repository"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// Outcome is how a checkout attempt ended.
type Outcome struct {
	OrderID string
	State   model.CheckoutState
	Err     error
}

// Attempt is one in-flight checkout. Done yields exactly one Outcome and is
// then closed.
type Attempt struct {
	Request        model.PaymentRequest
	GatewayOrderID string
	ApprovalURL    string

	buyer model.Buyer
	scope string
	timer *time.Timer
	done  chan Outcome
}

func (a *Attempt) Done() <-chan Outcome {
	return a.done
}

// Snapshot is the current view of an attempt, in flight or recently resolved.
type Snapshot struct {
	OrderID        string
	State          model.CheckoutState
	GatewayOrderID string
	ApprovalURL    string
	Amount         string
	Currency       string
	Err            error
}

type CheckoutService interface {
	BeginCheckout(ctx context.Context, buyer model.Buyer, paymentNonce string) (*Attempt, error)
	OnCompleted(ctx context.Context, orderID string) error
	OnDismissed(ctx context.Context, orderID string) error
	OnError(ctx context.Context, orderID, detail string) error
	// Wait blocks until the attempt resolves or ctx ends.
	Wait(ctx context.Context, orderID string) (Outcome, error)
	Lookup(orderID string) (Snapshot, error)
}

// resolved is what the recent-outcome cache keeps per order id.
type resolved struct {
	buyer   model.Buyer
	request model.PaymentRequest
	snap    Snapshot
}

type checkoutServiceImpl struct {
	gateway        client.PaymentGateway
	cart           CartService
	ledger         LedgerService
	completionRepo repository.PaymentCompletionRepository
	logger         *zap.Logger

	currency string
	timeout  time.Duration

	mu       sync.Mutex
	attempts map[string]*Attempt
	active   map[string]string
	recent   *lru.Cache
	orders   *keyedMutex

	now        func() time.Time
	newOrderID func() (string, error)
}

func NewCheckoutService(
	gateway client.PaymentGateway,
	cart CartService,
	ledger LedgerService,
	completionRepo repository.PaymentCompletionRepository,
	cfg config.Checkout,
	logger *zap.Logger,
) (CheckoutService, error) {
	size := cfg.RecentSize
	if size <= 0 {
		size = 1024
	}
	recent, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create outcome cache: %w", err)
	}

	return &checkoutServiceImpl{
		gateway:        gateway,
		cart:           cart,
		ledger:         ledger,
		completionRepo: completionRepo,
		logger:         logger,
		currency:       cfg.Currency,
		timeout:        cfg.Timeout,
		attempts:       make(map[string]*Attempt),
		active:         make(map[string]string),
		recent:         recent,
		orders:         newKeyedMutex(),
		now:            time.Now,
		newOrderID: func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}, nil
}

func (s *checkoutServiceImpl) BeginCheckout(ctx context.Context, buyer model.Buyer, paymentNonce string) (*Attempt, error) {
	if !buyer.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	if s.gateway == nil || !s.gateway.Ready() {
		return nil, ErrGatewayUnavailable
	}

	scope := buyer.Scope()
	s.mu.Lock()
	if _, busy := s.active[scope]; busy {
		s.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}
	// Reserved with an empty order id until the request exists.
	s.active[scope] = ""
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		if s.active[scope] == "" {
			delete(s.active, scope)
		}
		s.mu.Unlock()
	}

	items, err := s.checkoutItems(ctx, buyer)
	if err != nil {
		release()
		return nil, err
	}
	if len(items) == 0 {
		release()
		return nil, &ValidationError{Field: "cart", Reason: "cart is empty"}
	}
	orderID, err := s.newOrderID()
	if err != nil {
		release()
		return nil, fmt.Errorf("generate order id: %w", err)
	}

	totals := ComputeTotals(items)
	attempt := &Attempt{
		Request: model.PaymentRequest{
			OrderID:      orderID,
			Amount:       totals.Total.StringFixed(2),
			Currency:     s.currency,
			BuyerEmail:   buyer.Email,
			ItemSummary:  summarize(items),
			PaymentNonce: paymentNonce,
		},
		buyer: buyer,
		scope: scope,
		done:  make(chan Outcome, 1),
	}

	s.mu.Lock()
	s.attempts[orderID] = attempt
	s.active[scope] = orderID
	s.mu.Unlock()

	log := s.logger.With(zap.String("order_id", orderID), zap.String("buyer_email", buyer.Email))
	log.Info("checkout started", zap.String("amount", attempt.Request.Amount))

	initiation, err := s.gateway.Initiate(ctx, attempt.Request)
	if err != nil {
		terr := &TransportError{Op: "initiate payment", Err: err}
		s.resolve(orderID, model.CheckoutErrored, terr)
		log.Error("payment initiation failed", zap.Error(err))
		return nil, terr
	}

	s.mu.Lock()
	attempt.GatewayOrderID = initiation.GatewayOrderID
	attempt.ApprovalURL = initiation.ApprovalURL
	if _, pending := s.attempts[orderID]; pending && s.timeout > 0 {
		timeout := s.timeout
		attempt.timer = time.AfterFunc(timeout, func() {
			if s.resolve(orderID, model.CheckoutTimedOut, ErrTimedOut) {
				log.Warn("checkout timed out", zap.Duration("after", timeout))
			}
		})
	}
	s.mu.Unlock()

	if imm := initiation.Immediate; imm != nil {
		if imm.Completed {
			err = s.OnCompleted(ctx, orderID)
		} else {
			err = s.OnError(ctx, orderID, imm.Message)
		}
		if err != nil {
			log.Error("apply immediate payment outcome", zap.Error(err))
		}
	}

	return attempt, nil
}

// OnCompleted records the payment and clears the buyer's cart once per order
// id. It is honoured after a local time-out, since the gateway may already
// have charged the buyer, but not after the attempt was dismissed or errored.
func (s *checkoutServiceImpl) OnCompleted(ctx context.Context, orderID string) error {
	unlock := s.orders.Lock(orderID)
	defer unlock()

	target, ok := s.find(orderID)
	if !ok {
		exists, err := s.completionRepo.Exists(ctx, orderID)
		if err != nil {
			return &TransportError{Op: "check payment completion", Err: err}
		}
		if exists {
			return nil
		}
		return ErrUnknownOrder
	}
	log := s.logger.With(zap.String("order_id", orderID), zap.String("buyer_email", target.buyer.Email))

	switch target.state {
	case model.CheckoutDismissed, model.CheckoutErrored:
		log.Warn("completion ignored for finished checkout", zap.Stringer("state", target.state))
		return nil
	}

	exists, err := s.completionRepo.Exists(ctx, orderID)
	if err != nil {
		return &TransportError{Op: "check payment completion", Err: err}
	}
	if exists {
		s.complete(orderID)
		return nil
	}

	// Cart first: a failure here leaves no completion row, so a redelivered
	// callback clears it again. A newer attempt for the scope is priced from
	// the current cart, so it is left alone.
	if s.scopeBusy(target.buyer.Scope(), orderID) {
		log.Warn("late completion while another checkout is in flight, cart kept")
	} else if err := s.cart.Clear(ctx, target.buyer); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	created, err := s.completionRepo.MarkCompleted(ctx, &model.PaymentCompletion{
		OrderID:     orderID,
		BuyerEmail:  target.buyer.Email,
		Amount:      target.request.Amount,
		Currency:    target.request.Currency,
		CompletedAt: s.now().UTC(),
	})
	if err != nil {
		return &TransportError{Op: "record payment completion", Err: err}
	}

	s.complete(orderID)
	if created {
		log.Info("payment completed", zap.String("amount", target.request.Amount))
	}
	return nil
}

func (s *checkoutServiceImpl) OnDismissed(ctx context.Context, orderID string) error {
	return s.finish(orderID, model.CheckoutDismissed, nil)
}

func (s *checkoutServiceImpl) OnError(ctx context.Context, orderID, detail string) error {
	return s.finish(orderID, model.CheckoutErrored, &GatewayCallbackError{Message: detail})
}

func (s *checkoutServiceImpl) Wait(ctx context.Context, orderID string) (Outcome, error) {
	s.mu.Lock()
	attempt, pending := s.attempts[orderID]
	s.mu.Unlock()

	if pending {
		select {
		case out, ok := <-attempt.done:
			if ok {
				return out, nil
			}
		case <-ctx.Done():
			return Outcome{OrderID: orderID, State: model.CheckoutRequesting}, ctx.Err()
		}
	}

	snap, err := s.Lookup(orderID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{OrderID: orderID, State: snap.State, Err: snap.Err}, nil
}

func (s *checkoutServiceImpl) Lookup(orderID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.attempts[orderID]; ok {
		return Snapshot{
			OrderID:        orderID,
			State:          model.CheckoutRequesting,
			GatewayOrderID: a.GatewayOrderID,
			ApprovalURL:    a.ApprovalURL,
			Amount:         a.Request.Amount,
			Currency:       a.Request.Currency,
		}, nil
	}
	if v, ok := s.recent.Get(orderID); ok {
		return v.(resolved).snap, nil
	}
	return Snapshot{}, ErrUnknownOrder
}

// finish applies a non-completing terminal state. Callbacks for attempts that
// already ended are ignored.
func (s *checkoutServiceImpl) finish(orderID string, state model.CheckoutState, cause error) error {
	if s.resolve(orderID, state, cause) {
		s.logger.Info("checkout ended",
			zap.String("order_id", orderID),
			zap.Stringer("state", state),
			zap.NamedError("cause", cause))
		return nil
	}
	if s.recent.Contains(orderID) {
		return nil
	}
	return ErrUnknownOrder
}

// resolve moves a REQUESTING attempt to state, frees its scope and delivers
// the outcome. It reports false when orderID is not in flight.
func (s *checkoutServiceImpl) resolve(orderID string, state model.CheckoutState, cause error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[orderID]
	if !ok {
		return false
	}
	delete(s.attempts, orderID)
	if s.active[a.scope] == orderID {
		delete(s.active, a.scope)
	}
	if a.timer != nil {
		a.timer.Stop()
	}

	s.recent.Add(orderID, resolved{
		buyer:   a.buyer,
		request: a.Request,
		snap: Snapshot{
			OrderID:        orderID,
			State:          state,
			GatewayOrderID: a.GatewayOrderID,
			ApprovalURL:    a.ApprovalURL,
			Amount:         a.Request.Amount,
			Currency:       a.Request.Currency,
			Err:            cause,
		},
	})
	a.done <- Outcome{OrderID: orderID, State: state, Err: cause}
	close(a.done)
	return true
}

// complete marks orderID COMPLETED, whether it is still in flight or timed
// out locally.
func (s *checkoutServiceImpl) complete(orderID string) {
	if s.resolve(orderID, model.CheckoutCompleted, nil) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.recent.Get(orderID); ok {
		r := v.(resolved)
		if r.snap.State != model.CheckoutTimedOut {
			return
		}
		r.snap.State = model.CheckoutCompleted
		r.snap.Err = nil
		s.recent.Add(orderID, r)
	}
}

// checkoutItems is the buyer's cart minus anything the removal ledger says
// was already ordered or removed. Those items are dropped from the cart too.
func (s *checkoutServiceImpl) checkoutItems(ctx context.Context, buyer model.Buyer) ([]model.CartItem, error) {
	if s.ledger == nil {
		return s.cart.Items(ctx, buyer)
	}
	ledger, err := s.ledger.Load(ctx, buyer)
	if err != nil {
		return nil, err
	}
	return s.cart.Retain(ctx, buyer, func(item model.CartItem) bool {
		key := item.Key()
		if key.BuyerEmail == "" {
			key.BuyerEmail = buyer.Email
		}
		return !ledger.Contains(key)
	})
}

// completionTarget is what OnCompleted needs to know about an order id.
type completionTarget struct {
	buyer   model.Buyer
	request model.PaymentRequest
	state   model.CheckoutState
}

func (s *checkoutServiceImpl) find(orderID string) (completionTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.attempts[orderID]; ok {
		return completionTarget{buyer: a.buyer, request: a.Request, state: model.CheckoutRequesting}, true
	}
	if v, ok := s.recent.Get(orderID); ok {
		r := v.(resolved)
		return completionTarget{buyer: r.buyer, request: r.request, state: r.snap.State}, true
	}
	return completionTarget{}, false
}

// scopeBusy reports whether scope holds an attempt, or a reservation for one,
// other than orderID.
func (s *checkoutServiceImpl) scopeBusy(scope, orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok := s.active[scope]
	return ok && active != orderID
}

func summarize(items []model.CartItem) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.ProductName)
	}
	return strings.Join(names, ", ")
}
