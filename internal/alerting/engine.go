// Package alerting implements the MarketWatch alert subsystem: the
// definition store, the condition evaluator, and the alert presets.
// The evaluator is a synchronous pass over the current trade snapshots,
// run once per market refresh.
package alerting

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/metrics"
	"github.com/good-yellow-bee/marketwatch/internal/models"
)

// Notifier receives newly triggered alerts. Delivery is best effort and
// never affects alert state.
type Notifier interface {
	Notify(ctx context.Context, trigger *models.TriggeredAlert) error
}

// Options configures the evaluator. The relative-type ratios default to the
// values the dashboard shipped with; they are options rather than constants
// so a deployment can tune them per market.
type Options struct {
	// DropRatio: price-drop fires when price < baseline * DropRatio.
	DropRatio float64
	// RiseRatio: price-rise fires when price > baseline * RiseRatio.
	RiseRatio float64
	// UndercutRatio: competition-undercut fires when margin falls below
	// baseline * UndercutRatio.
	UndercutRatio float64
	// DefaultVolumeMultiplier is used when a volume-spike alert has no
	// threshold set.
	DefaultVolumeMultiplier float64
	// EqualsEpsilon is the tolerance for the "equals" condition.
	EqualsEpsilon float64
}

// DefaultOptions returns the stock evaluator options.
func DefaultOptions() *Options {
	return &Options{
		DropRatio:               0.5,
		RiseRatio:               1.5,
		UndercutRatio:           0.7,
		DefaultVolumeMultiplier: 2,
		EqualsEpsilon:           0.01,
	}
}

// EngineStats tracks evaluator statistics using atomics for lock-free reads.
type EngineStats struct {
	Passes             atomic.Int64
	DefinitionsChecked atomic.Int64
	Triggers           atomic.Int64
	Suppressed         atomic.Int64
	BaselinesEstimated atomic.Int64
}

// EngineStatsSnapshot is a point-in-time copy of EngineStats.
type EngineStatsSnapshot struct {
	Passes             int64
	DefinitionsChecked int64
	Triggers           int64
	Suppressed         int64
	BaselinesEstimated int64
}

// Engine evaluates stored alert definitions against trade snapshots.
type Engine struct {
	store    *Store
	notifier Notifier
	opts     Options
	cooldown *cooldownTracker
	stats    *EngineStats

	exprMu   sync.Mutex
	exprProg map[string]*ExprMatcher
}

// NewEngine creates an evaluator over the given store. notifier may be nil.
func NewEngine(store *Store, notifier Notifier, opts *Options) *Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Engine{
		store:    store,
		notifier: notifier,
		opts:     *opts,
		cooldown: newCooldownTracker(),
		stats:    &EngineStats{},
		exprProg: make(map[string]*ExprMatcher),
	}
}

// Evaluate runs one pass against the snapshots at the current time.
func (e *Engine) Evaluate(ctx context.Context, snapshots []models.TradeSnapshot) []*models.TriggeredAlert {
	return e.EvaluateAt(ctx, snapshots, time.Now())
}

// EvaluateAt runs one evaluation pass at a specific time (useful for tests).
// It returns only the alerts triggered by this pass, in definition
// insertion order. Definitions that are disabled, already triggered, or
// acknowledged are skipped; definitions whose item has no matching snapshot
// are skipped silently.
func (e *Engine) EvaluateAt(ctx context.Context, snapshots []models.TradeSnapshot, now time.Time) []*models.TriggeredAlert {
	e.stats.Passes.Add(1)
	metrics.EvaluationPasses.Inc()

	settings := e.store.Settings()

	var triggered []*models.TriggeredAlert
	for _, def := range e.store.Definitions() {
		if !def.Enabled || def.Triggered || def.Acknowledged {
			continue
		}
		e.stats.DefinitionsChecked.Add(1)

		snap, ok := matchSnapshot(&def, snapshots)
		if !ok {
			continue
		}

		value, fired := e.evaluateDefinition(&def, &snap, now)
		if !fired {
			continue
		}

		if def.Cooldown > 0 && e.cooldown.onCooldown(def.ID, now) {
			e.stats.Suppressed.Add(1)
			continue
		}

		trigger := e.store.RecordTrigger(def.ID, value, snap, formatMessage(&def, value), now)
		if trigger == nil {
			// Definition removed between listing and recording.
			continue
		}
		if def.Cooldown > 0 {
			e.cooldown.set(def.ID, def.Cooldown, now)
		}

		e.stats.Triggers.Add(1)
		metrics.AlertTriggers.WithLabelValues(string(def.Type), string(trigger.Priority)).Inc()

		if e.notifier != nil {
			if err := e.notifier.Notify(ctx, trigger); err != nil {
				log.Printf("notify alert %s: %v", trigger.AlertID, err)
			}
		}

		if settings.AutoAcknowledge {
			delay := time.Duration(settings.AutoAckDelaySeconds) * time.Second
			e.store.ScheduleAutoAcknowledge(def.ID, delay)
		}

		triggered = append(triggered, trigger)
	}
	return triggered
}

// evaluateDefinition extracts the metric for the definition's type and
// decides whether it fires. It returns the current metric value.
func (e *Engine) evaluateDefinition(def *models.AlertDefinition, snap *models.TradeSnapshot, now time.Time) (float64, bool) {
	switch def.Type {
	case models.AlertTypeMarginThreshold:
		return snap.MarginPct, e.compare(snap.MarginPct, def.Condition, def.Threshold)
	case models.AlertTypeNetProfitAbove:
		return snap.NetProfit, e.compare(snap.NetProfit, conditionOr(def.Condition, models.ConditionAbove), def.Threshold)
	case models.AlertTypeBuyPriceBelow:
		return snap.BuyPrice, e.compare(snap.BuyPrice, conditionOr(def.Condition, models.ConditionBelow), def.Threshold)
	case models.AlertTypeSellPriceAbove:
		return snap.SellPrice, e.compare(snap.SellPrice, conditionOr(def.Condition, models.ConditionAbove), def.Threshold)

	case models.AlertTypeVolumeSpike:
		baseline, ok := e.resolveBaseline(def, snap)
		if !ok {
			return snap.Volume, false
		}
		mult := def.Threshold
		if mult <= 0 {
			mult = e.opts.DefaultVolumeMultiplier
		}
		return snap.Volume, snap.Volume >= baseline*mult

	case models.AlertTypePriceDrop:
		baseline, ok := e.resolveBaseline(def, snap)
		if !ok {
			return snap.SellPrice, false
		}
		return snap.SellPrice, snap.SellPrice < baseline*e.opts.DropRatio

	case models.AlertTypePriceRise:
		baseline, ok := e.resolveBaseline(def, snap)
		if !ok {
			return snap.SellPrice, false
		}
		return snap.SellPrice, snap.SellPrice > baseline*e.opts.RiseRatio

	case models.AlertTypeCompetitionUndercut:
		baseline, ok := e.resolveBaseline(def, snap)
		if !ok {
			return snap.MarginPct, false
		}
		return snap.MarginPct, snap.MarginPct < baseline*e.opts.UndercutRatio

	case models.AlertTypeCustom:
		matched, err := e.matchExpression(def, snap)
		if err != nil {
			log.Printf("custom alert %s: %v", def.ID, err)
			return 0, false
		}
		return snap.MarginPct, matched

	default:
		return 0, false
	}
}

// compare applies a threshold condition to a metric value.
func (e *Engine) compare(value float64, condition models.Condition, threshold float64) bool {
	switch condition {
	case models.ConditionAbove:
		return value > threshold
	case models.ConditionBelow:
		return value < threshold
	case models.ConditionEquals:
		diff := value - threshold
		if diff < 0 {
			diff = -diff
		}
		return diff < e.opts.EqualsEpsilon
	default:
		return false
	}
}

func conditionOr(c, fallback models.Condition) models.Condition {
	if c == "" {
		return fallback
	}
	return c
}

// matchExpression compiles (and caches) the definition's expression and
// evaluates it against the snapshot.
func (e *Engine) matchExpression(def *models.AlertDefinition, snap *models.TradeSnapshot) (bool, error) {
	key := def.ID + "\x00" + def.Expression

	e.exprMu.Lock()
	matcher, ok := e.exprProg[key]
	e.exprMu.Unlock()

	if !ok {
		var err error
		matcher, err = NewExprMatcher(def.Expression)
		if err != nil {
			return false, err
		}
		e.exprMu.Lock()
		// Drop stale programs for this definition (expression edits).
		for k := range e.exprProg {
			if len(k) > len(def.ID) && k[:len(def.ID)] == def.ID && k[len(def.ID)] == '\x00' {
				delete(e.exprProg, k)
			}
		}
		e.exprProg[key] = matcher
		e.exprMu.Unlock()
	}

	return matcher.Match(snap)
}

// matchSnapshot resolves the trade row for a definition: exact item-id
// match first, case-insensitive name match as fallback.
func matchSnapshot(def *models.AlertDefinition, snapshots []models.TradeSnapshot) (models.TradeSnapshot, bool) {
	if def.ItemID != 0 {
		for i := range snapshots {
			if snapshots[i].TypeID == def.ItemID {
				return snapshots[i], true
			}
		}
	}
	for i := range snapshots {
		if def.Matches(&snapshots[i]) {
			return snapshots[i], true
		}
	}
	return models.TradeSnapshot{}, false
}

// formatMessage builds the human-readable trigger description used in
// history entries and notifications.
func formatMessage(def *models.AlertDefinition, value float64) string {
	name := def.ItemName
	if name == "" {
		name = fmt.Sprintf("type %d", def.ItemID)
	}
	switch def.Type {
	case models.AlertTypeVolumeSpike:
		return fmt.Sprintf("%s: volume spiked to %.0f", name, value)
	case models.AlertTypePriceDrop:
		return fmt.Sprintf("%s: price dropped to %.2f ISK", name, value)
	case models.AlertTypePriceRise:
		return fmt.Sprintf("%s: price rose to %.2f ISK", name, value)
	case models.AlertTypeCompetitionUndercut:
		return fmt.Sprintf("%s: margin undercut to %.2f%%", name, value)
	case models.AlertTypeCustom:
		return fmt.Sprintf("%s: %s", name, def.Expression)
	default:
		cond := conditionFor(def)
		return fmt.Sprintf("%s: %s %s %.2f (current %.2f)", name, def.Type, cond, def.Threshold, value)
	}
}

func conditionFor(def *models.AlertDefinition) models.Condition {
	switch def.Type {
	case models.AlertTypeNetProfitAbove, models.AlertTypeSellPriceAbove:
		return conditionOr(def.Condition, models.ConditionAbove)
	case models.AlertTypeBuyPriceBelow:
		return conditionOr(def.Condition, models.ConditionBelow)
	default:
		return def.Condition
	}
}

// Stats returns a snapshot of evaluator statistics.
func (e *Engine) Stats() EngineStatsSnapshot {
	return EngineStatsSnapshot{
		Passes:             e.stats.Passes.Load(),
		DefinitionsChecked: e.stats.DefinitionsChecked.Load(),
		Triggers:           e.stats.Triggers.Load(),
		Suppressed:         e.stats.Suppressed.Load(),
		BaselinesEstimated: e.stats.BaselinesEstimated.Load(),
	}
}

// cooldownTracker suppresses re-fires of repeating alerts that opted into a
// cooldown.
type cooldownTracker struct {
	mu        sync.Mutex
	cooldowns map[string]time.Time
}

func newCooldownTracker() *cooldownTracker {
	return &cooldownTracker{cooldowns: make(map[string]time.Time)}
}

func (c *cooldownTracker) onCooldown(id string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	expires, ok := c.cooldowns[id]
	return ok && now.Before(expires)
}

func (c *cooldownTracker) set(id string, d time.Duration, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cooldowns[id] = now.Add(d)
}
