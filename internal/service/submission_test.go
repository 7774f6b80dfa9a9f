package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"linkcart/internal/model"
	"linkcart/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func TestAddLink(t *testing.T) {
	current := []string{"https://shop/a"}

	next, err := AddLink(current, "  https://shop/b \n")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://shop/a", "https://shop/b"}, next)
	assert.Equal(t, []string{"https://shop/a"}, current)

	tests := []struct {
		name      string
		candidate string
	}{
		{"empty", ""},
		{"whitespace", " \t "},
		{"duplicate", "https://shop/a"},
		{"duplicate after trim", " https://shop/a "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AddLink(current, tt.candidate)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "link", verr.Field)
			assert.Equal(t, []string{"https://shop/a"}, current)
		})
	}
}

func TestGroupByEmail(t *testing.T) {
	r1 := &model.SubmittedLinkBatch{SubmitterEmail: "a@x.com", Links: []string{"1"}}
	r2 := &model.SubmittedLinkBatch{SubmitterEmail: "", Links: []string{"2"}}
	r3 := &model.SubmittedLinkBatch{SubmitterEmail: "a@x.com", Links: []string{"1"}}
	r4 := &model.SubmittedLinkBatch{SubmitterEmail: "   ", Links: []string{"4"}}

	groups := GroupByEmail([]*model.SubmittedLinkBatch{r1, r2, r3, r4})

	assert.Len(t, groups, 2)
	assert.Equal(t, []*model.SubmittedLinkBatch{r1, r3}, groups["a@x.com"])
	assert.Equal(t, []*model.SubmittedLinkBatch{r2, r4}, groups[UnknownSubmitter])
	assert.Empty(t, GroupByEmail(nil))
}

type stubSubmissionRepo struct {
	createErr error
	finds     atomic.Int32
	release   chan struct{}
	records   []*model.SubmittedLinkBatch
}

func (r *stubSubmissionRepo) Create(ctx context.Context, batch *model.SubmittedLinkBatch) error {
	return r.createErr
}

func (r *stubSubmissionRepo) FindAll(ctx context.Context) ([]*model.SubmittedLinkBatch, error) {
	r.finds.Add(1)
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.records, nil
}

func newSubmissionFixture(t *testing.T, repo repository.SubmissionRepository, notifier *fakeNotifier) SubmissionService {
	t.Helper()
	svc := NewSubmissionService(repo, notifier, setupLocalStore(t), zap.NewNop())
	svc.(*submissionServiceImpl).now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestSubmissionService_Submit(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSubmissionRepository(setupTestDB(t))
	notifier := &fakeNotifier{}
	svc := newSubmissionFixture(t, repo, notifier)

	_, err := svc.AddPending(ctx, buyerA(), "https://shop/a")
	require.NoError(t, err)
	pending, err := svc.AddPending(ctx, buyerA(), "https://shop/b")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://shop/a", "https://shop/b"}, pending)

	batch, err := svc.Submit(ctx, buyerA())
	require.NoError(t, err)
	assert.Equal(t, "u-a", batch.SubmitterID)
	assert.Equal(t, "Alice", batch.SubmitterName)
	assert.Equal(t, "a@x.com", batch.SubmitterEmail)
	assert.Equal(t, []string{"https://shop/a", "https://shop/b"}, batch.Links)

	stored, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, batch.Links, stored[0].Links)
	assert.Equal(t, 1, notifier.Calls())

	pending, err = svc.Pending(ctx, buyerA())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSubmissionService_SubmitRequiresAuthentication(t *testing.T) {
	svc := newSubmissionFixture(t, &stubSubmissionRepo{}, &fakeNotifier{})
	guest := model.Buyer{GuestSession: "g1"}

	_, err := svc.AddPending(context.Background(), guest, "https://shop/a")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), guest)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSubmissionService_SubmitEmptyBatch(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newSubmissionFixture(t, &stubSubmissionRepo{}, notifier)

	_, err := svc.Submit(context.Background(), buyerA())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, notifier.Calls())
}

func TestSubmissionService_PrimaryFailureCombinesErrors(t *testing.T) {
	ctx := context.Background()
	notifyErr := errors.New("chat down")
	svc := newSubmissionFixture(t, &stubSubmissionRepo{createErr: errBoom}, &fakeNotifier{err: notifyErr})

	_, err := svc.AddPending(ctx, buyerA(), "https://shop/a")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, buyerA())
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, err, notifyErr)
	assert.Len(t, multierr.Errors(terr.Err), 2)

	pending, err := svc.Pending(ctx, buyerA())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://shop/a"}, pending)
}

func TestSubmissionService_NotifierFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSubmissionRepository(setupTestDB(t))
	svc := newSubmissionFixture(t, repo, &fakeNotifier{err: errors.New("chat down")})

	_, err := svc.AddPending(ctx, buyerA(), "https://shop/a")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, buyerA())
	require.NoError(t, err)

	stored, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSubmissionService_PendingIsScoped(t *testing.T) {
	ctx := context.Background()
	svc := newSubmissionFixture(t, &stubSubmissionRepo{}, &fakeNotifier{})

	_, err := svc.AddPending(ctx, buyerA(), "https://shop/a")
	require.NoError(t, err)
	_, err = svc.AddPending(ctx, model.Buyer{GuestSession: "g1"}, "https://shop/g")
	require.NoError(t, err)

	b, err := svc.Pending(ctx, buyerB())
	require.NoError(t, err)
	assert.Empty(t, b)

	require.NoError(t, svc.ClearPending(ctx, buyerA()))
	a, err := svc.Pending(ctx, buyerA())
	require.NoError(t, err)
	assert.Empty(t, a)

	g, err := svc.Pending(ctx, model.Buyer{GuestSession: "g1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://shop/g"}, g)
}

func TestSubmissionService_GroupedCollapsesConcurrentReads(t *testing.T) {
	repo := &stubSubmissionRepo{
		release: make(chan struct{}),
		records: []*model.SubmittedLinkBatch{
			{SubmitterEmail: "a@x.com", Links: []string{"1"}},
			{SubmitterEmail: "", Links: []string{"2"}},
		},
	}
	svc := newSubmissionFixture(t, repo, &fakeNotifier{})

	var wg sync.WaitGroup
	results := make([]map[string][]*model.SubmittedLinkBatch, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := svc.Grouped(context.Background())
			assert.NoError(t, err)
			results[i] = g
		}(i)
	}

	require.Eventually(t, func() bool { return repo.finds.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	assert.LessOrEqual(t, repo.finds.Load(), int32(5))
	for _, g := range results {
		assert.Len(t, g["a@x.com"], 1)
		assert.Len(t, g[UnknownSubmitter], 1)
	}
}

func TestSubmissionService_GroupedSurvivesFirstCallerCancel(t *testing.T) {
	repo := &stubSubmissionRepo{
		release: make(chan struct{}),
		records: []*model.SubmittedLinkBatch{{SubmitterEmail: "a@x.com", Links: []string{"1"}}},
	}
	svc := newSubmissionFixture(t, repo, &fakeNotifier{})

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Grouped(firstCtx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return repo.finds.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		groups map[string][]*model.SubmittedLinkBatch
		err    error
	}
	second := make(chan result, 1)
	go func() {
		g, err := svc.Grouped(context.Background())
		second <- result{g, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	close(repo.release)

	got := <-second
	require.NoError(t, got.err)
	assert.Len(t, got.groups["a@x.com"], 1)
	assert.NoError(t, <-firstErr)
}
