// Package settings provides HTTP handlers for application settings endpoints.
package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/internal/detect"
	"github.com/HerbHall/minerwatch/internal/services"
)

// ScanRangeRequest is the body of PUT /settings/scan-range.
type ScanRangeRequest struct {
	Range string `json:"range"`
}

// ScanRangeResponse reports the scan range new scans default to. Stored is
// false when the configured default is in effect.
type ScanRangeResponse struct {
	Range  string `json:"range"`
	Stored bool   `json:"stored"`
}

// Handler provides HTTP handlers for settings endpoints.
type Handler struct {
	settings     services.SettingsRepository
	defaultRange string
	logger       *zap.Logger
}

// NewHandler creates a settings Handler. defaultRange is reported when no
// scan range has been stored.
func NewHandler(settings services.SettingsRepository, defaultRange string, logger *zap.Logger) *Handler {
	return &Handler{
		settings:     settings,
		defaultRange: defaultRange,
		logger:       logger,
	}
}

// RegisterRoutes registers settings-related routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/settings", h.handleListSettings)
	mux.HandleFunc("GET /api/v1/settings/scan-range", h.handleGetScanRange)
	mux.HandleFunc("PUT /api/v1/settings/scan-range", h.handleSetScanRange)
	mux.HandleFunc("DELETE /api/v1/settings/scan-range", h.handleResetScanRange)
}

func (h *Handler) handleListSettings(w http.ResponseWriter, r *http.Request) {
	all, err := h.settings.GetAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list settings", zap.Error(err))
		writeSettingsError(w, http.StatusInternalServerError, "failed to list settings")
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// handleGetScanRange returns the default range for new scans.
func (h *Handler) handleGetScanRange(w http.ResponseWriter, r *http.Request) {
	setting, err := h.settings.Get(r.Context(), services.SettingScanRange)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeJSON(w, http.StatusOK, ScanRangeResponse{Range: h.defaultRange})
			return
		}
		h.logger.Error("failed to get scan range setting", zap.Error(err))
		writeSettingsError(w, http.StatusInternalServerError, "failed to get scan range")
		return
	}

	writeJSON(w, http.StatusOK, ScanRangeResponse{Range: setting.Value, Stored: true})
}

// handleSetScanRange stores a new default range. The value is normalised to
// its masked CIDR form.
func (h *Handler) handleSetScanRange(w http.ResponseWriter, r *http.Request) {
	var req ScanRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettingsError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prefix, ok := detect.ParseRange(req.Range)
	if !ok {
		writeSettingsError(w, http.StatusBadRequest, "not a CIDR range: "+req.Range)
		return
	}

	value := prefix.String()
	if err := h.settings.Set(r.Context(), services.SettingScanRange, value); err != nil {
		h.logger.Error("failed to set scan range", zap.Error(err))
		writeSettingsError(w, http.StatusInternalServerError, "failed to save scan range")
		return
	}

	h.logger.Info("scan range updated", zap.String("range", value))
	writeJSON(w, http.StatusOK, ScanRangeResponse{Range: value, Stored: true})
}

// handleResetScanRange removes the stored range so the configured default
// applies again.
func (h *Handler) handleResetScanRange(w http.ResponseWriter, r *http.Request) {
	err := h.settings.Delete(r.Context(), services.SettingScanRange)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		h.logger.Error("failed to reset scan range", zap.Error(err))
		writeSettingsError(w, http.StatusInternalServerError, "failed to reset scan range")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeSettingsError writes an RFC 7807 problem response.
func writeSettingsError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://minerwatch.dev/problems/settings-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
