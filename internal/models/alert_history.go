package models

import "time"

// TriggeredAlert records a single trigger event: a snapshot of the
// definition at trigger time, the metric value that satisfied it, and the
// trade row it was evaluated against.
type TriggeredAlert struct {
	ID      string `json:"id"`
	AlertID string `json:"alert_id"`

	ItemName  string    `json:"item_name"`
	ItemID    int64     `json:"item_id,omitempty"`
	Type      AlertType `json:"type"`
	Condition Condition `json:"condition,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Priority  Priority  `json:"priority"`

	CurrentValue float64       `json:"current_value"`
	Message      string        `json:"message"`
	Snapshot     TradeSnapshot `json:"snapshot"`

	TriggeredAt time.Time `json:"triggered_at"`
}
