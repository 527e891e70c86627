// Package kafka publishes prediction events so downstream consumers (corpus
// builders, analytics) can observe every answer the engine produces.
// Publishing is strictly fire-and-forget from the caller's perspective: a
// broker outage degrades to warnings, never to failed predictions.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/ChemReact-Intelligence/internal/config"
	"github.com/turtacn/ChemReact-Intelligence/internal/domain/reaction"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// PredictionEvent is the wire schema published per prediction.  The
// canonical key doubles as the partition key so all events for one reactant
// set land on the same partition in order.
type PredictionEvent struct {
	Reactants    []string               `json:"reactants"`
	CanonicalKey string                 `json:"canonical_key"`
	Products     []rxn.ProductCandidate `json:"products"`
	Method       rxn.Method             `json:"method"`
	Confidence   float64                `json:"confidence"`
	Verdict      rxn.ValidationVerdict  `json:"validation_verdict,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher wraps a kafka writer with event encoding and send accounting.
type Publisher struct {
	writer WriterInterface
	topic  string
	logger logging.Logger
	closed atomic.Bool
	sent   atomic.Int64
	failed atomic.Int64
}

func NewPublisher(cfg config.KafkaConfig, logger logging.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "kafka brokers required")
	}
	retries := cfg.ProducerRetries
	if retries <= 0 {
		retries = 3
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  retries + 1,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
	}
	return newPublisher(writer, cfg.Topic, logger), nil
}

// NewPublisherWithWriter injects a writer directly; used by tests.
func NewPublisherWithWriter(writer WriterInterface, topic string, logger logging.Logger) *Publisher {
	return newPublisher(writer, topic, logger)
}

func newPublisher(writer WriterInterface, topic string, logger logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Publisher{
		writer: writer,
		topic:  topic,
		logger: logger.Named("kafka"),
	}
}

// PublishPrediction encodes and sends one event.  Missing canonical keys and
// timestamps are filled in from the event's reactants and the clock.
func (p *Publisher) PublishPrediction(ctx context.Context, event *PredictionEvent) error {
	if p.closed.Load() {
		return apperrors.New(apperrors.ErrCodeServiceUnavailable, "publisher closed")
	}
	if event.CanonicalKey == "" {
		event.CanonicalKey = reaction.Canonicalize(event.Reactants)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode prediction event")
	}

	msg := kafka.Message{
		Key:   []byte(event.CanonicalKey),
		Value: value,
		Time:  event.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		return apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to publish prediction event")
	}
	p.sent.Add(1)
	p.logger.Debug("prediction event published",
		logging.String("key", event.CanonicalKey),
		logging.String("method", string(event.Method)))
	return nil
}

// Metrics reports how many events were sent and how many failed.
func (p *Publisher) Metrics() (sent, failed int64) {
	return p.sent.Load(), p.failed.Load()
}

func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("prediction publisher closed", logging.Int64("sent", p.sent.Load()))
	return err
}
