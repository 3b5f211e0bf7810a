package alerting

import (
	"log"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

// resolveBaseline returns the reference value used by the relative alert
// types. When the definition carries no baseline, the current metric is
// captured as an estimate: it is persisted back on the definition flagged
// baseline_source=estimated, and the pass that captured it never fires.
// An estimated baseline is a first-observation guess, not market truth, and
// the flag keeps it distinguishable from a measured one.
func (e *Engine) resolveBaseline(def *models.AlertDefinition, snap *models.TradeSnapshot) (float64, bool) {
	var (
		stored  *float64
		current float64
	)
	switch def.Type {
	case models.AlertTypeVolumeSpike:
		stored, current = def.BaselineVolume, snap.Volume
	case models.AlertTypePriceDrop, models.AlertTypePriceRise:
		stored, current = def.BaselinePrice, snap.SellPrice
	case models.AlertTypeCompetitionUndercut:
		stored, current = def.BaselineMargin, snap.MarginPct
	default:
		return 0, false
	}

	if stored != nil {
		return *stored, true
	}

	e.stats.BaselinesEstimated.Add(1)
	log.Printf("alert %s: no baseline, estimating from current %s=%.2f", def.ID, def.Type, current)
	e.store.SetEstimatedBaseline(def.ID, def.Type, current)
	return 0, false
}
