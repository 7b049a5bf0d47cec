// Package events publishes bundle-lifecycle events (built, simulated,
// rejected) to a Kafka topic, decoupling bundle construction from
// whatever downstream analytics or audit trail consumes it. Disabled by
// using NoopPublisher when no brokers are configured.
package events

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fd1az/mev-searcher/business/bundle/domain"
	"github.com/fd1az/mev-searcher/internal/logger"
)

// wireEvent is the JSON payload written to the bundle-lifecycle topic.
type wireEvent struct {
	BundleID      string `json:"bundle_id"`
	OpportunityID string `json:"opportunity_id"`
	Strategy      string `json:"strategy"`
	TargetBlock   uint64 `json:"target_block"`
	Success       bool   `json:"success"`
	NetProfitWei  string `json:"net_profit_wei"`
	GasUsed       uint64 `json:"gas_used"`
	ErrorMessage  string `json:"error_message,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher emits a domain.BundleEvent. Implementations must not block
// the caller on a slow or unreachable broker for more than the writer's
// configured timeout.
type Publisher interface {
	Publish(ctx context.Context, event domain.BundleEvent) error
	Close() error
}

// KafkaPublisher writes bundle events to Kafka via kafka-go's Writer,
// following the crypto-wallet pkg/kafka producer's JSON-over-Writer
// pattern.
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
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.BundleEvent) error {
	netProfit := event.NetProfitWei
	if netProfit == nil {
		netProfit = big.NewInt(0)
	}
	value, err := json.Marshal(wireEvent{
		BundleID:      event.BundleID,
		OpportunityID: event.OpportunityID,
		Strategy:      string(event.Strategy),
		TargetBlock:   event.TargetBlock,
		Success:       event.Success,
		NetProfitWei:  netProfit.String(),
		GasUsed:       event.GasUsed,
		ErrorMessage:  event.ErrorMessage,
		Timestamp:     event.Timestamp,
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
		p.logger.Warn(ctx, "bundle: failed to publish lifecycle event", "bundle_id", event.BundleID, "error", err)
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

func (NoopPublisher) Publish(ctx context.Context, event domain.BundleEvent) error { return nil }
func (NoopPublisher) Close() error                                               { return nil }

var _ Publisher = (*KafkaPublisher)(nil)
var _ Publisher = NoopPublisher{}
