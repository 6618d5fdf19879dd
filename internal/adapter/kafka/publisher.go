package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/config"
	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	publishAttempts   = 3
	initialBackoff    = 100 * time.Millisecond
	maxPublishBackoff = time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per dashboard refresh.
// It implements domain.Recorder.
type Publisher struct {
	writer  messageWriter
	backoff time.Duration
}

var _ domain.Recorder = (*Publisher)(nil)

// NewPublisher creates a Kafka producer for the configured refresh topic.
func NewPublisher(cfg *config.Config) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Publisher{writer: w, backoff: initialBackoff}
}

// Record publishes rec to the refresh topic, retrying failed writes with
// exponential backoff until ctx is done.
func (p *Publisher) Record(ctx context.Context, rec domain.RefreshRecord) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}

	backoff := p.backoff
	for attempt := 1; ; attempt++ {
		err = p.writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}
		if attempt == publishAttempts || !retry.SleepWithContext(ctx, backoff) {
			return fmt.Errorf("publish refresh %s after %d attempts: %w", rec.ID, attempt, err)
		}
		backoff = retry.NextBackoff(backoff, maxPublishBackoff)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a RefreshRecord into a Kafka message keyed by
// community area, so refreshes of one area stay ordered on a partition.
func serializeToMessage(rec domain.RefreshRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize refresh record: %w", err)
	}
	key := rec.AreaID
	if key == "" {
		key = rec.Community
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(rec.Status)},
			{Key: "refreshed_at", Value: []byte(rec.RefreshedAt.Format(time.RFC3339))},
		},
	}, nil
}
