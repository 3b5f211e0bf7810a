// Package models defines domain models for MarketWatch.
package models

import (
	"fmt"
	"strings"
	"time"
)

// AlertType represents the kind of market condition an alert watches.
type AlertType string

const (
	AlertTypeMarginThreshold     AlertType = "margin-threshold"
	AlertTypePriceDrop           AlertType = "price-drop"
	AlertTypePriceRise           AlertType = "price-rise"
	AlertTypeVolumeSpike         AlertType = "volume-spike"
	AlertTypeCompetitionUndercut AlertType = "competition-undercut"
	AlertTypeBuyPriceBelow       AlertType = "buy-price-below"
	AlertTypeSellPriceAbove      AlertType = "sell-price-above"
	AlertTypeNetProfitAbove      AlertType = "net-profit-above"
	// AlertTypeCustom evaluates a user-supplied expression against the
	// trade snapshot instead of a fixed metric comparison.
	AlertTypeCustom AlertType = "custom"
)

// alertTypes lists every valid alert type.
var alertTypes = map[AlertType]bool{
	AlertTypeMarginThreshold:     true,
	AlertTypePriceDrop:           true,
	AlertTypePriceRise:           true,
	AlertTypeVolumeSpike:         true,
	AlertTypeCompetitionUndercut: true,
	AlertTypeBuyPriceBelow:       true,
	AlertTypeSellPriceAbove:      true,
	AlertTypeNetProfitAbove:      true,
	AlertTypeCustom:              true,
}

// Condition is the comparison applied to the metric for threshold-style alerts.
type Condition string

const (
	ConditionAbove  Condition = "above"
	ConditionBelow  Condition = "below"
	ConditionEquals Condition = "equals"
)

// Priority indicates alert urgency and controls notification repeat count.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority converts a string to Priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch strings.ToLower(s) {
	case "low":
		return PriorityLow
	case "medium":
		return PriorityMedium
	case "high":
		return PriorityHigh
	case "critical":
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// NotificationRepeats returns how many times a notification sound is
// repeated for this priority.
func (p Priority) NotificationRepeats() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	default:
		return 1
	}
}

// AtLeastHigh reports whether the priority is high or critical.
func (p Priority) AtLeastHigh() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// BaselineSource records whether a baseline was captured from real market
// data or estimated by the evaluator because none was supplied.
type BaselineSource string

const (
	BaselineMeasured  BaselineSource = "measured"
	BaselineEstimated BaselineSource = "estimated"
)

// AlertDefinition is a stored rule describing a metric, comparison, and
// threshold to watch for a specific traded item.
type AlertDefinition struct {
	ID       string `json:"id"`
	ItemName string `json:"item_name"`
	// ItemID is the game type id. Zero means "match by name only".
	ItemID int64 `json:"item_id,omitempty"`

	Type      AlertType `json:"type"`
	Condition Condition `json:"condition,omitempty"`
	// Threshold semantics depend on Type: raw ISK for price/profit types,
	// a percentage for margin types, a multiplier for volume-spike.
	Threshold float64 `json:"threshold,omitempty"`
	// Expression is the boolean expression for custom alerts.
	Expression string `json:"expression,omitempty"`

	// Baselines are reference values captured at creation time for the
	// relative alert types (spike/drop/rise/undercut).
	BaselinePrice  *float64       `json:"baseline_price,omitempty"`
	BaselineVolume *float64       `json:"baseline_volume,omitempty"`
	BaselineMargin *float64       `json:"baseline_margin,omitempty"`
	BaselineSource BaselineSource `json:"baseline_source,omitempty"`

	Priority Priority `json:"priority"`
	// OneTime deactivates the alert after its first trigger until reset.
	OneTime bool `json:"one_time"`
	// Cooldown suppresses re-fires of a repeating alert. Zero disables it.
	Cooldown time.Duration `json:"cooldown,omitempty"`

	Enabled      bool `json:"enabled"`
	Triggered    bool `json:"triggered"`
	Acknowledged bool `json:"acknowledged"`

	// Origin records how the definition was created: "user", "preset", or
	// "file" for definitions seeded from the alerts YAML file.
	Origin string `json:"origin,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	TriggeredAt *time.Time `json:"triggered_at,omitempty"`

	// Position preserves insertion order across restarts.
	Position int64 `json:"-"`
}

// NewAlertDefinition creates a definition with default lifecycle flags.
// The caller assigns the ID.
func NewAlertDefinition(itemName string, alertType AlertType, condition Condition, threshold float64, priority Priority) *AlertDefinition {
	return &AlertDefinition{
		ItemName:  itemName,
		Type:      alertType,
		Condition: condition,
		Threshold: threshold,
		Priority:  priority,
		Enabled:   true,
		CreatedAt: time.Now(),
	}
}

// Validate checks the definition for structural errors.
func (d *AlertDefinition) Validate() error {
	if strings.TrimSpace(d.ItemName) == "" && d.ItemID == 0 {
		return fmt.Errorf("alert must name an item or item id")
	}
	if d.Type == "" {
		return fmt.Errorf("alert type is required")
	}
	if !alertTypes[d.Type] {
		return fmt.Errorf("invalid alert type %q", d.Type)
	}
	switch d.Condition {
	case "", ConditionAbove, ConditionBelow, ConditionEquals:
	default:
		return fmt.Errorf("invalid condition %q", d.Condition)
	}
	if d.Type == AlertTypeCustom && strings.TrimSpace(d.Expression) == "" {
		return fmt.Errorf("expression is required for custom alert")
	}
	if d.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative")
	}
	switch d.Priority {
	case "", PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
	default:
		return fmt.Errorf("invalid priority %q", d.Priority)
	}
	return nil
}

// Matches reports whether the snapshot belongs to this alert's item.
// An exact item-id match is preferred; name matching is case-insensitive.
func (d *AlertDefinition) Matches(snap *TradeSnapshot) bool {
	if d.ItemID != 0 && snap.TypeID != 0 {
		return d.ItemID == snap.TypeID
	}
	return strings.EqualFold(d.ItemName, snap.TypeName)
}

// Clone returns a deep copy of the definition.
func (d *AlertDefinition) Clone() *AlertDefinition {
	c := *d
	c.BaselinePrice = clonePtr(d.BaselinePrice)
	c.BaselineVolume = clonePtr(d.BaselineVolume)
	c.BaselineMargin = clonePtr(d.BaselineMargin)
	if d.TriggeredAt != nil {
		t := *d.TriggeredAt
		c.TriggeredAt = &t
	}
	return &c
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
