package events

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the relay needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type RelayConfig struct {
	TopicPrefix string
	PollEvery   time.Duration
	BatchSize   int
}

// Relay moves appointment events from the event_logs outbox to Kafka.
type Relay struct {
	store     Store
	writer    MessageWriter
	logger    *zap.Logger
	prefix    string
	pollEvery time.Duration
	batchSize int
}

func NewRelay(store Store, writer MessageWriter, cfg RelayConfig, logger *zap.Logger) *Relay {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Relay{
		store:     store,
		writer:    writer,
		logger:    logger,
		prefix:    cfg.TopicPrefix,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

// NewKafkaWriter returns a writer keyed by appointment id so events of one
// appointment land on one partition in order.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Topic maps an event type such as APPOINTMENT_CREATED to "<prefix>appointment.created".
func (r *Relay) Topic(eventType string) string {
	return r.prefix + strings.ReplaceAll(strings.ToLower(eventType), "_", ".")
}

func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("event relay started",
		zap.Duration("poll_every", r.pollEvery),
		zap.Int("batch_size", r.batchSize),
	)

	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("event relay stopped")
			return
		case <-ticker.C:
			n, err := r.RelayOnce(ctx)
			if err != nil {
				r.logger.Error("event relay failed", zap.Error(err))
				continue
			}
			if n > 0 {
				r.logger.Debug("events relayed", zap.Int("count", n))
			}
		}
	}
}

// RelayOnce publishes at most one batch and reports how many events went out.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	return r.store.PublishPending(ctx, r.batchSize, func(ctx context.Context, records []Record) error {
		msgs := make([]kafka.Message, 0, len(records))
		for _, rec := range records {
			msgs = append(msgs, r.message(rec))
		}
		return r.writer.WriteMessages(ctx, msgs...)
	})
}

func (r *Relay) message(rec Record) kafka.Message {
	eventID := strconv.FormatInt(rec.ID, 10)
	key := eventID
	if rec.AppointmentID != nil {
		key = rec.AppointmentID.String()
	}

	return kafka.Message{
		Topic: r.Topic(rec.EventType),
		Key:   []byte(key),
		Value: rec.Payload,
		Time:  rec.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "event_type", Value: []byte(rec.EventType)},
		},
	}
}
