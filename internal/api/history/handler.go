// Package history provides HTTP handlers for the triggered-alert log.
package history

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/alerting"
	"github.com/good-yellow-bee/marketwatch/internal/models"
)

type dataResponse struct {
	Data any `json:"data"`
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// EntryResponse is a single trigger event as returned by the API.
type EntryResponse struct {
	ID           string  `json:"id"`
	AlertID      string  `json:"alert_id"`
	ItemName     string  `json:"item_name"`
	ItemID       int64   `json:"item_id,omitempty"`
	Type         string  `json:"type"`
	Priority     string  `json:"priority"`
	CurrentValue float64 `json:"current_value"`
	Message      string  `json:"message"`
	BuyPrice     float64 `json:"buy_price"`
	SellPrice    float64 `json:"sell_price"`
	MarginPct    float64 `json:"margin_pct"`
	Volume       float64 `json:"volume"`
	TriggeredAt  string  `json:"triggered_at"`
}

// ListResponse wraps a page of history entries.
type ListResponse struct {
	Items   []*EntryResponse `json:"items"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

func toResponse(entry models.TriggeredAlert) *EntryResponse {
	return &EntryResponse{
		ID:           entry.ID,
		AlertID:      entry.AlertID,
		ItemName:     entry.ItemName,
		ItemID:       entry.ItemID,
		Type:         string(entry.Type),
		Priority:     string(entry.Priority),
		CurrentValue: entry.CurrentValue,
		Message:      entry.Message,
		BuyPrice:     entry.Snapshot.BuyPrice,
		SellPrice:    entry.Snapshot.SellPrice,
		MarginPct:    entry.Snapshot.MarginPct,
		Volume:       entry.Snapshot.Volume,
		TriggeredAt:  entry.TriggeredAt.Format(time.RFC3339),
	}
}

// Handler handles history endpoints.
type Handler struct {
	store *alerting.Store
}

func NewHandler(store *alerting.Store) *Handler {
	return &Handler{store: store}
}

// List returns trigger history, newest first, paginated via page and
// per_page query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > alerting.HistoryLimit {
		perPage = 20
	}

	entries := h.store.History()
	total := len(entries)

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	items := make([]*EntryResponse, 0, end-start)
	for _, entry := range entries[start:end] {
		items = append(items, toResponse(entry))
	}

	jsonOK(w, ListResponse{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
