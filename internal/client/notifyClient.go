package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"linkcart/internal/config"
	"linkcart/internal/model"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

// Notifier tells an out-of-band channel (operator chat, mail relay, topic)
// that a link batch was submitted. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, batch model.SubmittedLinkBatch) error
	Close() error
}

// NewNotifier builds the notifier selected by NOTIFY_DRIVER, wrapped in a
// circuit breaker so a dead channel stops costing a round trip per submission.
func NewNotifier(cfg config.Notify) (Notifier, error) {
	switch cfg.Driver {
	case "", "none":
		return noopNotifier{}, nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("NOTIFY_WEBHOOK_URL is required for webhook notifier")
		}
		return NewBreakerNotifier(NewWebhookNotifier(cfg.WebhookURL, cfg.Timeout)), nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("NOTIFY_KAFKA_BROKERS is required for kafka notifier")
		}
		return NewBreakerNotifier(NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)), nil
	default:
		return nil, fmt.Errorf("unsupported notify driver %q", cfg.Driver)
	}
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, model.SubmittedLinkBatch) error { return nil }
func (noopNotifier) Close() error                                            { return nil }

type webhookNotifierImpl struct {
	httpClient *http.Client
	url        string
}

func NewWebhookNotifier(url string, timeout time.Duration) Notifier {
	return &webhookNotifierImpl{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
	}
}

type submissionMessage struct {
	Text  string                   `json:"text"`
	Batch model.SubmittedLinkBatch `json:"batch"`
}

func (n *webhookNotifierImpl) Notify(ctx context.Context, batch model.SubmittedLinkBatch) error {
	body, err := json.Marshal(submissionMessage{
		Text:  fmt.Sprintf("%s <%s> submitted %d link(s)", batch.SubmitterName, batch.SubmitterEmail, len(batch.Links)),
		Batch: batch,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notification failed: status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}

func (n *webhookNotifierImpl) Close() error { return nil }

type kafkaNotifierImpl struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) Notifier {
	return &kafkaNotifierImpl{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (n *kafkaNotifierImpl) Notify(ctx context.Context, batch model.SubmittedLinkBatch) error {
	value, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	if err := n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(batch.SubmitterEmail),
		Value: value,
	}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (n *kafkaNotifierImpl) Close() error {
	return n.writer.Close()
}

type breakerNotifierImpl struct {
	next Notifier
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerNotifier(next Notifier) Notifier {
	return &breakerNotifierImpl{
		next: next,
		cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "submission-notifier",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (n *breakerNotifierImpl) Notify(ctx context.Context, batch model.SubmittedLinkBatch) error {
	_, err := n.cb.Execute(func() (struct{}, error) {
		return struct{}{}, n.next.Notify(ctx, batch)
	})
	return err
}

func (n *breakerNotifierImpl) Close() error {
	return n.next.Close()
}
