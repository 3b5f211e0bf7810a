package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSnapshot is returned when a market row cannot be normalized.
var ErrInvalidSnapshot = errors.New("invalid trade snapshot")

// TradeSnapshot is the normalized view of one market row for a traded item.
// External rows are adapted into this shape once at the market boundary;
// everything downstream addresses these fields only.
type TradeSnapshot struct {
	TypeID   int64  `json:"type_id,omitempty"`
	TypeName string `json:"type_name"`

	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
	MarginPct float64 `json:"margin_pct"`
	NetProfit float64 `json:"net_profit"`
	Volume    float64 `json:"volume"`

	ObservedAt time.Time `json:"observed_at"`
}

// Field name variants seen in upstream market payloads. Matching is
// case-insensitive after stripping underscores and spaces.
var (
	nameKeys      = []string{"typename", "itemname", "item", "name"}
	idKeys        = []string{"typeid", "itemid", "id"}
	buyKeys       = []string{"buyprice", "buy", "maxbuy", "bid"}
	sellKeys      = []string{"sellprice", "sell", "minsell", "ask"}
	marginKeys    = []string{"marginpct", "margin", "marginpercent"}
	netProfitKeys = []string{"netprofit", "profit", "netprofitperunit"}
	volumeKeys    = []string{"volume", "dailyvolume", "vol"}
)

// NormalizeRow adapts a loosely-keyed market row into a TradeSnapshot.
// A row without an item name (or id) is rejected.
func NormalizeRow(row map[string]any, observedAt time.Time) (TradeSnapshot, error) {
	folded := make(map[string]any, len(row))
	for k, v := range row {
		folded[foldKey(k)] = v
	}

	snap := TradeSnapshot{ObservedAt: observedAt}
	snap.TypeName, _ = pickString(folded, nameKeys)
	if id, ok := pickFloat(folded, idKeys); ok {
		snap.TypeID = int64(id)
	}
	if snap.TypeName == "" && snap.TypeID == 0 {
		return TradeSnapshot{}, fmt.Errorf("%w: row has no item identity", ErrInvalidSnapshot)
	}

	snap.BuyPrice, _ = pickFloat(folded, buyKeys)
	snap.SellPrice, _ = pickFloat(folded, sellKeys)
	snap.NetProfit, _ = pickFloat(folded, netProfitKeys)
	snap.Volume, _ = pickFloat(folded, volumeKeys)

	if m, ok := pickFloat(folded, marginKeys); ok {
		snap.MarginPct = m
	} else if snap.BuyPrice > 0 {
		// Derive margin when the source omits it.
		snap.MarginPct = (snap.SellPrice - snap.BuyPrice) / snap.BuyPrice * 100
	}

	return snap, nil
}

func foldKey(k string) string {
	k = strings.ToLower(k)
	k = strings.ReplaceAll(k, "_", "")
	k = strings.ReplaceAll(k, " ", "")
	return k
}

func pickString(row map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		v, ok := row[k]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func pickFloat(row map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := row[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case string:
			if f, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
