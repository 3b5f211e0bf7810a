package alerting

import "github.com/good-yellow-bee/marketwatch/internal/models"

// Preset is a predefined alert template offered for quick creation.
type Preset struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Type        models.AlertType `json:"type"`
	Condition   models.Condition `json:"condition,omitempty"`
	Threshold   float64          `json:"threshold,omitempty"`
	Priority    models.Priority  `json:"priority"`
	OneTime     bool             `json:"one_time,omitempty"`
}

// presets is the static preset table.
var presets = []Preset{
	{
		ID:          "margin-above-20",
		Name:        "Good margin",
		Description: "Margin climbs above 20%",
		Type:        models.AlertTypeMarginThreshold,
		Condition:   models.ConditionAbove,
		Threshold:   20,
		Priority:    models.PriorityMedium,
	},
	{
		ID:          "margin-above-50",
		Name:        "Exceptional margin",
		Description: "Margin climbs above 50%",
		Type:        models.AlertTypeMarginThreshold,
		Condition:   models.ConditionAbove,
		Threshold:   50,
		Priority:    models.PriorityHigh,
	},
	{
		ID:          "net-profit-1m",
		Name:        "Profit opportunity",
		Description: "Net profit per unit above 1M ISK",
		Type:        models.AlertTypeNetProfitAbove,
		Condition:   models.ConditionAbove,
		Threshold:   1_000_000,
		Priority:    models.PriorityMedium,
	},
	{
		ID:          "volume-spike-2x",
		Name:        "Volume spike",
		Description: "Daily volume doubles against baseline",
		Type:        models.AlertTypeVolumeSpike,
		Threshold:   2,
		Priority:    models.PriorityMedium,
	},
	{
		ID:          "volume-spike-5x",
		Name:        "Volume surge",
		Description: "Daily volume 5x against baseline",
		Type:        models.AlertTypeVolumeSpike,
		Threshold:   5,
		Priority:    models.PriorityHigh,
	},
	{
		ID:          "price-crash",
		Name:        "Price crash",
		Description: "Sell price collapses to half the baseline",
		Type:        models.AlertTypePriceDrop,
		Priority:    models.PriorityCritical,
		OneTime:     true,
	},
	{
		ID:          "price-surge",
		Name:        "Price surge",
		Description: "Sell price rises 50% above the baseline",
		Type:        models.AlertTypePriceRise,
		Priority:    models.PriorityHigh,
		OneTime:     true,
	},
	{
		ID:          "undercut-watch",
		Name:        "Undercut watch",
		Description: "Margin degrades 30% below the baseline",
		Type:        models.AlertTypeCompetitionUndercut,
		Priority:    models.PriorityHigh,
	},
}

// Presets returns a copy of the preset table.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// FindPreset looks up a preset by id.
func FindPreset(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}
