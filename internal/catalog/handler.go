package catalog

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/internal/server"
)

// ListResponse is the response for GET /api/v1/catalog/{set}.
type ListResponse struct {
	Set    Set      `json:"set"`
	Count  int      `json:"count"`
	Values []string `json:"values"`
}

// Handler serves the catalog API.
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

// NewHandler creates a new catalog API handler.
func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// RegisterRoutes implements server.RouteRegistrar.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/catalog", h.handleCatalog)
	mux.HandleFunc("GET /api/v1/catalog/miner-vendors", h.handleMinerVendors)
	mux.HandleFunc("GET /api/v1/catalog/{set}", h.handleList)
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	v, err := h.engine.Values()
	if err != nil {
		h.logger.Error("failed to load catalog", zap.Error(err))
		server.InternalError(w, "failed to load catalog", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	set, err := ParseSet(r.PathValue("set"))
	if err != nil {
		server.NotFound(w, err.Error(), r.URL.Path)
		return
	}
	values, err := h.engine.List(set)
	if err != nil {
		h.logger.Error("failed to list catalog set", zap.String("set", string(set)), zap.Error(err))
		server.InternalError(w, "failed to load catalog", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Set: set, Count: len(values), Values: values})
}

func (h *Handler) handleMinerVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.engine.MinerVendors()
	if err != nil {
		h.logger.Error("failed to load catalog", zap.Error(err))
		server.InternalError(w, "failed to load catalog", r.URL.Path)
		return
	}
	if vendors == nil {
		vendors = []string{}
	}
	writeJSON(w, http.StatusOK, vendors)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
