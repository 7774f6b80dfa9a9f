package service

import (
	"context"
	"strings"
	"time"

	"linkcart/internal/client"
	"linkcart/internal/model"
	"linkcart/internal/repository"
	"linkcart/internal/store"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// UnknownSubmitter groups batches whose submitter email is blank.
const UnknownSubmitter = "Unknown"

// AddLink appends candidate to current after trimming it. Blank and already
// pending links are rejected. current is never modified.
func AddLink(current []string, candidate string) ([]string, error) {
	link := strings.TrimSpace(candidate)
	if link == "" {
		return nil, &ValidationError{Field: "link", Reason: "must not be empty"}
	}
	for _, l := range current {
		if l == link {
			return nil, &ValidationError{Field: "link", Reason: "already added"}
		}
	}

	next := make([]string, 0, len(current)+1)
	next = append(next, current...)
	return append(next, link), nil
}

// GroupByEmail buckets records by submitter email, keeping their order within
// each bucket.
func GroupByEmail(records []*model.SubmittedLinkBatch) map[string][]*model.SubmittedLinkBatch {
	groups := make(map[string][]*model.SubmittedLinkBatch)
	for _, r := range records {
		key := r.SubmitterEmail
		if strings.TrimSpace(key) == "" {
			key = UnknownSubmitter
		}
		groups[key] = append(groups[key], r)
	}
	return groups
}

type SubmissionService interface {
	AddPending(ctx context.Context, buyer model.Buyer, link string) ([]string, error)
	Pending(ctx context.Context, buyer model.Buyer) ([]string, error)
	ClearPending(ctx context.Context, buyer model.Buyer) error
	Submit(ctx context.Context, buyer model.Buyer) (*model.SubmittedLinkBatch, error)
	// Grouped returns every submitted batch keyed by submitter email. The map
	// may be shared with concurrent callers and must not be modified.
	Grouped(ctx context.Context) (map[string][]*model.SubmittedLinkBatch, error)
}

type submissionServiceImpl struct {
	submissionRepo repository.SubmissionRepository
	notifier       client.Notifier
	local          store.LocalStore
	locks          *keyedMutex
	reads          singleflight.Group
	logger         *zap.Logger
	now            func() time.Time
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	notifier client.Notifier,
	local store.LocalStore,
	logger *zap.Logger,
) SubmissionService {
	return &submissionServiceImpl{
		submissionRepo: submissionRepo,
		notifier:       notifier,
		local:          local,
		locks:          newKeyedMutex(),
		logger:         logger,
		now:            time.Now,
	}
}

func (s *submissionServiceImpl) AddPending(ctx context.Context, buyer model.Buyer, link string) ([]string, error) {
	scope := buyer.Scope()
	defer s.locks.Lock(scope)()

	current, err := s.loadPending(ctx, scope)
	if err != nil {
		return nil, err
	}
	next, err := AddLink(current, link)
	if err != nil {
		return nil, err
	}
	if err := store.SaveJSON(ctx, s.local, scope, store.KeyPendingLinks, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *submissionServiceImpl) Pending(ctx context.Context, buyer model.Buyer) ([]string, error) {
	return s.loadPending(ctx, buyer.Scope())
}

func (s *submissionServiceImpl) ClearPending(ctx context.Context, buyer model.Buyer) error {
	scope := buyer.Scope()
	defer s.locks.Lock(scope)()

	return s.local.Delete(ctx, scope, store.KeyPendingLinks)
}

func (s *submissionServiceImpl) Submit(ctx context.Context, buyer model.Buyer) (*model.SubmittedLinkBatch, error) {
	if !buyer.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	scope := buyer.Scope()
	defer s.locks.Lock(scope)()

	links, err := s.loadPending(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, &ValidationError{Field: "links", Reason: "no links to submit"}
	}

	batch := &model.SubmittedLinkBatch{
		SubmitterID:    buyer.ID,
		SubmitterName:  buyer.Name,
		SubmitterEmail: buyer.Email,
		Links:          links,
		SubmittedAt:    s.now().UTC(),
	}
	notice := *batch

	// Only the stored batch decides the outcome; the notification is best
	// effort and its error is collected on the side.
	var notifyErr error
	var g errgroup.Group
	g.Go(func() error {
		return s.submissionRepo.Create(ctx, batch)
	})
	g.Go(func() error {
		notifyErr = s.notifier.Notify(ctx, notice)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, &TransportError{Op: "submit links", Err: multierr.Combine(err, notifyErr)}
	}
	if notifyErr != nil {
		s.logger.Warn("submission notification failed",
			zap.String("submitter_email", buyer.Email),
			zap.Error(notifyErr))
	}

	if err := s.local.Delete(ctx, scope, store.KeyPendingLinks); err != nil {
		// The batch is already stored, so the submit still succeeded.
		s.logger.Error("clear pending links",
			zap.String("scope", scope),
			zap.Error(err))
	}

	s.logger.Info("links submitted",
		zap.String("submitter_email", buyer.Email),
		zap.Int("links", len(links)))
	return batch, nil
}

func (s *submissionServiceImpl) Grouped(ctx context.Context) (map[string][]*model.SubmittedLinkBatch, error) {
	// The query is shared by every collapsed caller, so one caller going away
	// must not cancel it for the rest.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.reads.Do("grouped", func() (interface{}, error) {
		records, err := s.submissionRepo.FindAll(shared)
		if err != nil {
			return nil, &TransportError{Op: "fetch submissions", Err: err}
		}
		return GroupByEmail(records), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string][]*model.SubmittedLinkBatch), nil
}

func (s *submissionServiceImpl) loadPending(ctx context.Context, scope string) ([]string, error) {
	links := []string{}
	if _, err := store.LoadJSON(ctx, s.local, scope, store.KeyPendingLinks, &links); err != nil {
		return nil, err
	}
	return links, nil
}
