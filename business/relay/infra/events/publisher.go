// Package events publishes relay bundle-status transitions to the same
// bundle-lifecycle Kafka topic C7 writes build/simulate events to,
// following the crypto-wallet pkg/kafka producer's JSON-over-Writer
// pattern.
package events

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fd1az/mev-searcher/business/relay/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

type wireStatusEvent struct {
	BundleID        string    `json:"bundle_id"`
	OpportunityID   string    `json:"opportunity_id"`
	Strategy        string    `json:"strategy"`
	TargetBlock     uint64    `json:"target_block"`
	Status          string    `json:"status"`
	ActualProfitWei string    `json:"actual_profit_wei"`
	FailureReason   string    `json:"failure_reason,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Publisher emits a domain.StatusEvent.
type Publisher interface {
	Publish(ctx context.Context, event domain.StatusEvent) error
	Close() error
}

// KafkaPublisher writes relay status events to Kafka.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger logger.LoggerInterface
}

// NewKafkaPublisher builds a Publisher writing to topic across brokers.
func NewKafkaPublisher(brokers []string, topic string, log logger.LoggerInterface) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 1 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return &KafkaPublisher{writer: writer, logger: log}
}

// Publish JSON-encodes event and writes it keyed by bundle ID.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.StatusEvent) error {
	profit := event.ActualProfitWei
	if profit == nil {
		profit = big.NewInt(0)
	}
	value, err := json.Marshal(wireStatusEvent{
		BundleID:        event.BundleID,
		OpportunityID:   event.OpportunityID,
		Strategy:        string(event.Strategy),
		TargetBlock:     event.TargetBlock,
		Status:          string(event.Status),
		ActualProfitWei: profit.String(),
		FailureReason:   event.FailureReason,
		Timestamp:       event.Timestamp,
	})
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(event.BundleID),
		Value: value,
		Time:  time.Now(),
	}); err != nil {
		p.logger.Warn(ctx, "relay: failed to publish status event", "bundle_id", event.BundleID, "error", err)
		return err
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards every event; used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event domain.StatusEvent) error { return nil }
func (NoopPublisher) Close() error                                                { return nil }

var _ Publisher = (*KafkaPublisher)(nil)
var _ Publisher = NoopPublisher{}
