// Package settings provides HTTP handlers for user preferences.
package settings

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/good-yellow-bee/marketwatch/internal/alerting"
)

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

// Handler handles settings endpoints.
type Handler struct {
	store *alerting.Store
}

func NewHandler(store *alerting.Store) *Handler {
	return &Handler{store: store}
}

// Get returns the current settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, h.store.Settings())
}

// Patch merges the request body into the current settings. Unknown keys
// are kept, so older and newer clients can share the same store.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "BAD_REQUEST", "Failed to read body")
		return
	}

	if err := h.store.MergeSettings(body); err != nil {
		jsonError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	jsonOK(w, h.store.Settings())
}
