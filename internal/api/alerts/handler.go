// Package alerts provides HTTP handlers for alert definitions.
package alerts

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/marketwatch/internal/alerting"
	"github.com/good-yellow-bee/marketwatch/internal/models"
)

// Response helpers
type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
type dataResponse struct {
	Data any `json:"data"`
}

const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeNotFound         = "NOT_FOUND"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func jsonNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// AlertResponse is an alert definition as returned by the API.
type AlertResponse struct {
	ID           string   `json:"id"`
	ItemName     string   `json:"item_name"`
	ItemID       int64    `json:"item_id,omitempty"`
	Type         string   `json:"type"`
	Condition    string   `json:"condition,omitempty"`
	Threshold    float64  `json:"threshold,omitempty"`
	Expression   string   `json:"expression,omitempty"`
	Priority     string   `json:"priority"`
	OneTime      bool     `json:"one_time"`
	Cooldown     string   `json:"cooldown,omitempty"`
	Enabled      bool     `json:"enabled"`
	Triggered    bool     `json:"triggered"`
	Acknowledged bool     `json:"acknowledged"`
	Origin       string   `json:"origin,omitempty"`
	Baseline     *float64 `json:"baseline,omitempty"`
	BaselineFrom string   `json:"baseline_source,omitempty"`
	CreatedAt    string   `json:"created_at"`
	TriggeredAt  string   `json:"triggered_at,omitempty"`
}

func toResponse(def models.AlertDefinition) *AlertResponse {
	resp := &AlertResponse{
		ID:           def.ID,
		ItemName:     def.ItemName,
		ItemID:       def.ItemID,
		Type:         string(def.Type),
		Condition:    string(def.Condition),
		Threshold:    def.Threshold,
		Expression:   def.Expression,
		Priority:     string(def.Priority),
		OneTime:      def.OneTime,
		Enabled:      def.Enabled,
		Triggered:    def.Triggered,
		Acknowledged: def.Acknowledged,
		Origin:       def.Origin,
		BaselineFrom: string(def.BaselineSource),
		CreatedAt:    def.CreatedAt.Format(time.RFC3339),
	}
	if def.Cooldown > 0 {
		resp.Cooldown = def.Cooldown.String()
	}
	if def.TriggeredAt != nil {
		resp.TriggeredAt = def.TriggeredAt.Format(time.RFC3339)
	}
	switch def.Type {
	case models.AlertTypeVolumeSpike:
		resp.Baseline = def.BaselineVolume
	case models.AlertTypeCompetitionUndercut:
		resp.Baseline = def.BaselineMargin
	case models.AlertTypePriceDrop, models.AlertTypePriceRise:
		resp.Baseline = def.BaselinePrice
	}
	return resp
}

// Handler handles alert definition endpoints.
type Handler struct {
	store *alerting.Store
}

func NewHandler(store *alerting.Store) *Handler {
	return &Handler{store: store}
}

// Request types
type CreateRequest struct {
	ItemName       string   `json:"item_name"`
	ItemID         int64    `json:"item_id"`
	Type           string   `json:"type"`
	Condition      string   `json:"condition"`
	Threshold      float64  `json:"threshold"`
	Expression     string   `json:"expression"`
	Priority       string   `json:"priority"`
	OneTime        bool     `json:"one_time"`
	Cooldown       string   `json:"cooldown"`
	BaselinePrice  *float64 `json:"baseline_price"`
	BaselineVolume *float64 `json:"baseline_volume"`
	BaselineMargin *float64 `json:"baseline_margin"`
}

type UpdateRequest struct {
	ItemName   *string  `json:"item_name,omitempty"`
	ItemID     *int64   `json:"item_id,omitempty"`
	Condition  *string  `json:"condition,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"`
	Expression *string  `json:"expression,omitempty"`
	Priority   *string  `json:"priority,omitempty"`
	OneTime    *bool    `json:"one_time,omitempty"`
	Enabled    *bool    `json:"enabled,omitempty"`
	Cooldown   *string  `json:"cooldown,omitempty"`
}

type PresetRequest struct {
	ItemName string `json:"item_name"`
	ItemID   int64  `json:"item_id"`
}

// List returns all alert definitions in creation order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	defs := h.store.Definitions()
	items := make([]*AlertResponse, 0, len(defs))
	for _, def := range defs {
		items = append(items, toResponse(def))
	}
	jsonOK(w, items)
}

// Create adds a new alert definition.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "Invalid JSON body")
		return
	}

	def, err := definitionFromCreate(&req)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	id, err := h.store.Add(*def)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	created, _ := h.store.Get(id)
	jsonCreated(w, toResponse(created))
}

// Get returns a single alert definition.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	def, ok := h.store.Get(id)
	if !ok {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "Alert not found")
		return
	}
	jsonOK(w, toResponse(def))
}

// Update applies a partial update to an alert definition.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.Get(id); !ok {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "Alert not found")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "Invalid JSON body")
		return
	}

	patch, err := patchFromUpdate(&req)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	h.store.Update(id, *patch)
	def, _ := h.store.Get(id)
	jsonOK(w, toResponse(def))
}

// Delete removes an alert definition.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.Get(id); !ok {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "Alert not found")
		return
	}
	h.store.Remove(id)
	jsonNoContent(w)
}

// DeleteAll removes every alert definition.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	h.store.ClearAll()
	jsonNoContent(w)
}

// Reset re-arms a triggered alert.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.Get(id); !ok {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "Alert not found")
		return
	}
	h.store.Reset(id)
	def, _ := h.store.Get(id)
	jsonOK(w, toResponse(def))
}

// Acknowledge marks a triggered alert acknowledged.
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.Get(id); !ok {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "Alert not found")
		return
	}
	h.store.Acknowledge(id)
	def, _ := h.store.Get(id)
	jsonOK(w, toResponse(def))
}

// AcknowledgeAll acknowledges every triggered, unacknowledged alert.
func (h *Handler) AcknowledgeAll(w http.ResponseWriter, r *http.Request) {
	count := h.store.AcknowledgeAll()
	jsonOK(w, map[string]int{"acknowledged": count})
}

// ListPresets returns the static preset table.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, alerting.Presets())
}

// CreateFromPreset creates an alert definition from a preset.
func (h *Handler) CreateFromPreset(w http.ResponseWriter, r *http.Request) {
	presetID := chi.URLParam(r, "id")

	var req PresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := ValidateItem(req.ItemName, req.ItemID); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	id, err := h.store.AddFromPreset(presetID, req.ItemName, req.ItemID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	created, _ := h.store.Get(id)
	jsonCreated(w, toResponse(created))
}
