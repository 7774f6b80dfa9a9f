package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"linkcart/internal/config"
	"linkcart/internal/model"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifier_Success(t *testing.T) {
	var got submissionMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	batch := model.SubmittedLinkBatch{
		SubmitterEmail: "a@x.com",
		SubmitterName:  "Ann",
		Links:          []string{"https://shop/1", "https://shop/2"},
	}

	require.NoError(t, n.Notify(context.Background(), batch))
	assert.Equal(t, "Ann <a@x.com> submitted 2 link(s)", got.Text)
	assert.Equal(t, batch.Links, got.Batch.Links)
}

func TestWebhookNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	err := n.Notify(context.Background(), model.SubmittedLinkBatch{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=502")
}

type failingNotifier struct {
	calls int
}

func (f *failingNotifier) Notify(context.Context, model.SubmittedLinkBatch) error {
	f.calls++
	return errors.New("channel down")
}

func (f *failingNotifier) Close() error { return nil }

func TestBreakerNotifier_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingNotifier{}
	n := NewBreakerNotifier(inner)

	for i := 0; i < 5; i++ {
		assert.Error(t, n.Notify(context.Background(), model.SubmittedLinkBatch{}))
	}
	err := n.Notify(context.Background(), model.SubmittedLinkBatch{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, inner.calls)
}

func TestNewNotifier_Drivers(t *testing.T) {
	n, err := NewNotifier(config.Notify{Driver: "none"})
	require.NoError(t, err)
	assert.NoError(t, n.Notify(context.Background(), model.SubmittedLinkBatch{}))

	_, err = NewNotifier(config.Notify{Driver: "webhook"})
	assert.Error(t, err)

	_, err = NewNotifier(config.Notify{Driver: "kafka"})
	assert.Error(t, err)

	_, err = NewNotifier(config.Notify{Driver: "pigeon"})
	assert.Error(t, err)
}
