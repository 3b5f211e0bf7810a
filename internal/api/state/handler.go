// Package state provides HTTP handlers for state export and import.
package state

import (
	"encoding/json"
	"errors"
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

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// maxImportSize bounds uploaded snapshot documents.
const maxImportSize = 8 << 20

// Handler handles state export/import endpoints.
type Handler struct {
	store *alerting.Store
}

func NewHandler(store *alerting.Store) *Handler {
	return &Handler{store: store}
}

// Export returns the full state snapshot as a JSON document.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.ExportSnapshot()
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="marketwatch-state.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		log.Printf("export write error: %v", err)
	}
}

// Import replaces the current state with an uploaded snapshot. Malformed
// documents are rejected without touching existing state.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "BAD_REQUEST", "Failed to read body")
		return
	}

	if err := h.store.ImportSnapshot(body); err != nil {
		if errors.Is(err, alerting.ErrMalformedSnapshot) {
			jsonError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Import failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
