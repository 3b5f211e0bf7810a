package market

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/metrics"
	"github.com/good-yellow-bee/marketwatch/internal/models"
)

// Source supplies trade snapshots, typically the HTTP Client.
type Source interface {
	Fetch(ctx context.Context) ([]models.TradeSnapshot, error)
}

// Evaluator consumes a batch of snapshots, typically the alerting engine.
type Evaluator interface {
	Evaluate(ctx context.Context, snapshots []models.TradeSnapshot) []*models.TriggeredAlert
}

// PollerConfig configures the polling loop.
type PollerConfig struct {
	Interval time.Duration // How often to poll (default: 60s)
}

// DefaultPollerConfig returns default poller settings.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{Interval: 60 * time.Second}
}

// Poller fetches snapshots on a fixed interval and hands them to the
// evaluator. The first poll runs immediately on Run.
type Poller struct {
	config    PollerConfig
	source    Source
	evaluator Evaluator

	mu      sync.Mutex
	running bool
}

// NewPoller creates a poller.
func NewPoller(source Source, evaluator Evaluator, config PollerConfig) *Poller {
	if config.Interval <= 0 {
		config = DefaultPollerConfig()
	}
	return &Poller{
		config:    config,
		source:    source,
		evaluator: evaluator,
	}
}

// Run polls until the context is cancelled. Fetch failures are logged and
// the loop continues; stale alert state is never cleared on a failed poll.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	log.Printf("market poller started, interval=%v", p.config.Interval)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Printf("market poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll runs a single fetch-and-evaluate cycle.
func (p *Poller) poll(ctx context.Context) {
	start := time.Now()
	snapshots, err := p.source.Fetch(ctx)
	metrics.PollDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PollsTotal.WithLabelValues("error").Inc()
		log.Printf("market poll failed: %v", err)
		return
	}
	metrics.PollsTotal.WithLabelValues("ok").Inc()
	metrics.SnapshotsFetched.Observe(float64(len(snapshots)))

	if len(snapshots) == 0 {
		return
	}
	p.evaluator.Evaluate(ctx, snapshots)
}
