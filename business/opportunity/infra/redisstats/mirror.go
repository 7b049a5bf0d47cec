// Package redisstats mirrors the opportunity manager's queue sizes and
// stats into Redis on an interval, so a second searcher process or a
// dashboard can observe queue depth and rejection counts without
// sharing memory with the process running the queues, following the
// redis.NewClient wiring idiom of DimaJoyti-go-coffee's dao/pkg/redis.
package redisstats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/mev-searcher/business/opportunity/app"
	"github.com/fd1az/mev-searcher/internal/logger"
)

// Mirror periodically snapshots a Manager's queue stats into Redis
// hashes, one per queue, under keyPrefix.
type Mirror struct {
	client    *redis.Client
	keyPrefix string
	interval  time.Duration
	logger    logger.LoggerInterface
}

// NewMirror builds a Mirror against a Redis instance at addr, pinging
// it once to fail fast on a bad connection.
func NewMirror(ctx context.Context, addr, password string, db int, keyPrefix string, interval time.Duration, log logger.LoggerInterface) (*Mirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redisstats: failed to connect to redis at %s: %w", addr, err)
	}

	return &Mirror{client: client, keyPrefix: keyPrefix, interval: interval, logger: log}, nil
}

// Run syncs manager's queue stats to Redis every interval until ctx is
// done.
func (m *Mirror) Run(ctx context.Context, manager *app.Manager) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.sync(ctx, manager); err != nil {
				m.logger.Warn(ctx, "redisstats: sync failed", "error", err.Error())
			}
		}
	}
}

// sync writes one Redis hash per queue (including "global") with its
// current size and running stats.
func (m *Mirror) sync(ctx context.Context, manager *app.Manager) error {
	sizes := manager.QueueSizes()
	stats := manager.QueueStats()

	for name, size := range sizes {
		key := fmt.Sprintf("%s:queue:%s", m.keyPrefix, name)
		s := stats[name]
		fields := map[string]any{
			"size":               strconv.Itoa(size),
			"total_added":        strconv.FormatUint(s.TotalAdded, 10),
			"total_executed":     strconv.FormatUint(s.TotalExecuted, 10),
			"total_expired":      strconv.FormatUint(s.TotalExpired, 10),
			"total_rejected":     strconv.FormatUint(s.TotalRejected, 10),
			"avg_priority_score": strconv.FormatFloat(s.AvgPriorityScore, 'f', -1, 64),
			"max_priority_score": strconv.FormatFloat(s.MaxPriorityScore, 'f', -1, 64),
		}
		if err := m.client.HSet(ctx, key, fields).Err(); err != nil {
			return fmt.Errorf("redisstats: hset %s: %w", key, err)
		}
	}

	managerStats := manager.Stats()
	overallKey := fmt.Sprintf("%s:manager", m.keyPrefix)
	overall := map[string]any{
		"total_opportunities": strconv.FormatUint(managerStats.TotalOpportunities, 10),
		"total_executed":      strconv.FormatUint(managerStats.TotalExecuted, 10),
		"total_successful":    strconv.FormatUint(managerStats.TotalSuccessful, 10),
		"total_failed":        strconv.FormatUint(managerStats.TotalFailed, 10),
		"success_rate":        strconv.FormatFloat(managerStats.SuccessRate, 'f', -1, 64),
	}
	if err := m.client.HSet(ctx, overallKey, overall).Err(); err != nil {
		return fmt.Errorf("redisstats: hset %s: %w", overallKey, err)
	}

	return nil
}

// Close releases the underlying Redis connection.
func (m *Mirror) Close() error {
	return m.client.Close()
}
