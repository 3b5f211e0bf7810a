// Package notifier provides notification dispatching for triggered alerts.
// Delivery is best effort: a failed channel never affects alert state.
package notifier

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/good-yellow-bee/marketwatch/internal/metrics"
	"github.com/good-yellow-bee/marketwatch/internal/models"
)

// Notifier is the interface for all notification channels.
type Notifier interface {
	// Name returns the channel name (e.g., "desktop", "sound").
	Name() string
	// Send delivers a triggered alert.
	Send(ctx context.Context, trigger *models.TriggeredAlert) error
	// Close releases any resources.
	Close() error
}

// SettingsSource supplies the current user preferences. Channels consult it
// at send time so settings changes apply without re-wiring.
type SettingsSource interface {
	Settings() models.Settings
}

// ErrRateLimited is returned when a notification is dropped due to rate
// limiting.
var ErrRateLimited = fmt.Errorf("notification rate limited")

// Dispatcher fans a triggered alert out to all registered channels.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	limiter   *RateLimiter
	settings  SettingsSource
}

// NewDispatcher creates a dispatcher with default rate limiting.
func NewDispatcher(settings SettingsSource) *Dispatcher {
	return NewDispatcherWithRateLimit(settings, DefaultRateLimitConfig())
}

// NewDispatcherWithRateLimit creates a dispatcher with a custom rate limit.
func NewDispatcherWithRateLimit(settings SettingsSource, cfg RateLimitConfig) *Dispatcher {
	return &Dispatcher{
		notifiers: make(map[string]Notifier),
		limiter:   NewRateLimiter(cfg),
		settings:  settings,
	}
}

// Register adds a channel to the dispatcher.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[n.Name()] = n
}

// Unregister removes a channel.
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.notifiers, name)
}

// Get returns a channel by name.
func (d *Dispatcher) Get(name string) (Notifier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.notifiers[name]
	return n, ok
}

// Notify delivers the trigger to every registered channel, honoring the
// high-priority-only preference and the global rate limit. Channel
// failures are collected but delivery to the remaining channels proceeds.
func (d *Dispatcher) Notify(ctx context.Context, trigger *models.TriggeredAlert) error {
	if d.settings != nil {
		s := d.settings.Settings()
		if s.HighPriorityOnly && !trigger.Priority.AtLeastHigh() {
			return nil
		}
	}

	if d.limiter != nil && !d.limiter.Allow() {
		metrics.NotificationsRateLimited.Inc()
		return ErrRateLimited
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Send(ctx, trigger); err != nil {
			metrics.NotificationsTotal.WithLabelValues(name, "error").Inc()
			log.Printf("notifier %s: %v", name, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(name, "ok").Inc()
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %v", errs)
	}
	return nil
}

// RateLimitStats returns the rate limiter statistics.
func (d *Dispatcher) RateLimitStats() RateLimitStats {
	if d.limiter == nil {
		return RateLimitStats{}
	}
	return d.limiter.Stats()
}

// Close closes all registered channels.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	d.notifiers = make(map[string]Notifier)

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
