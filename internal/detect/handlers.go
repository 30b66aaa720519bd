package detect

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/internal/server"
	"github.com/HerbHall/minerwatch/internal/services"
	"github.com/HerbHall/minerwatch/internal/view"
	"github.com/HerbHall/minerwatch/pkg/models"
	"github.com/HerbHall/minerwatch/pkg/plugin"
)

// maxScanBody caps the POST /scan request body.
const maxScanBody = 4 << 10

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/scan", Handler: m.handleScan},
		{Method: "GET", Path: "/latest", Handler: m.handleLatest},
		{Method: "GET", Path: "/devices", Handler: m.handleDevices},
		{Method: "GET", Path: "/miners", Handler: m.handleMiners},
		{Method: "GET", Path: "/summary", Handler: m.handleSummary},
		{Method: "GET", Path: "/locations", Handler: m.handleLocations},
		{Method: "GET", Path: "/locate", Handler: m.handleLocateMethods},
		{Method: "GET", Path: "/locate/{method}", Handler: m.handleLocate},
		{Method: "GET", Path: "/scans", Handler: m.handleListScans},
		{Method: "GET", Path: "/events", Handler: m.handleEvents},
	}
}

type scanRequest struct {
	Range string `json:"range"`
}

// handleScan runs a scan in the request goroutine and returns its outcome.
// A failed scan answers 500 with the outcome envelope as the body.
func (m *Module) handleScan(w http.ResponseWriter, r *http.Request) {
	if m.limiter != nil && !m.limiter.Allow(clientKey(r)) {
		m.metrics.reject("rate_limited")
		m.logger.Warn("scan rate limit exceeded", zap.String("client", clientKey(r)))
		server.RateLimited(w, "too many scan requests, try again later", r.URL.Path)
		return
	}

	var req scanRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxScanBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		server.BadRequest(w, "invalid request body: "+err.Error(), r.URL.Path)
		return
	}

	outcome, err := m.RunScan(r.Context(), req.Range)
	if errors.Is(err, ErrScanInProgress) {
		server.Conflict(w, err.Error(), r.URL.Path)
		return
	}
	if !outcome.Success {
		detectWriteJSON(w, http.StatusInternalServerError, outcome)
		return
	}
	detectWriteJSON(w, http.StatusOK, outcome)
}

func (m *Module) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest, ok := m.tracker.Latest()
	if !ok {
		server.NotFound(w, "no scan has completed yet", r.URL.Path)
		return
	}
	detectWriteJSON(w, http.StatusOK, latest)
}

// latestDevices returns the device and miner lists of the latest scan, or
// empty lists before the first scan.
func (m *Module) latestDevices() (devices, miners []models.Device) {
	latest, ok := m.tracker.Latest()
	if !ok {
		return []models.Device{}, []models.Device{}
	}
	devices, miners = latest.Devices, latest.Miners
	if devices == nil {
		devices = []models.Device{}
	}
	if miners == nil {
		miners = []models.Device{}
	}
	return devices, miners
}

// handleDevices serves the device table: ?kind= filters by kind, ?q= by
// text, and ?sort=&dir= orders the rows (lastSeen desc when unset).
func (m *Module) handleDevices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	state := view.DefaultSort()
	if s := q.Get("sort"); s != "" {
		field, err := view.ParseField(s)
		if err != nil {
			server.BadRequest(w, err.Error(), r.URL.Path)
			return
		}
		state = view.SortState{Field: field, Direction: view.Asc}
	}
	if d := q.Get("dir"); d != "" {
		dir, err := view.ParseDirection(d)
		if err != nil {
			server.BadRequest(w, err.Error(), r.URL.Path)
			return
		}
		state.Direction = dir
	}

	devices, _ := m.latestDevices()
	devices = view.FilterByKind(devices, models.ParseDeviceKind(q.Get("kind")))
	devices = view.FilterByText(devices, q.Get("q"))
	detectWriteJSON(w, http.StatusOK, state.Apply(devices))
}

func (m *Module) handleMiners(w http.ResponseWriter, _ *http.Request) {
	_, miners := m.latestDevices()
	detectWriteJSON(w, http.StatusOK, miners)
}

func (m *Module) handleSummary(w http.ResponseWriter, _ *http.Request) {
	_, miners := m.latestDevices()
	detectWriteJSON(w, http.StatusOK, view.Summarize(miners))
}

// handleLocations groups the latest devices by ?level= (city by default),
// optionally narrowed by ?kind=.
func (m *Module) handleLocations(w http.ResponseWriter, r *http.Request) {
	level, err := view.ParseLevel(r.URL.Query().Get("level"))
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	devices, _ := m.latestDevices()
	devices = view.FilterByKind(devices, models.ParseDeviceKind(r.URL.Query().Get("kind")))
	detectWriteJSON(w, http.StatusOK, view.GroupByLocation(devices, level))
}

func (m *Module) handleLocateMethods(w http.ResponseWriter, _ *http.Request) {
	detectWriteJSON(w, http.StatusOK, view.LocateMethods())
}

func (m *Module) handleLocate(w http.ResponseWriter, r *http.Request) {
	info, err := view.DescribeLocate(view.LocateMethod(r.PathValue("method")))
	if err != nil {
		server.NotFound(w, err.Error(), r.URL.Path)
		return
	}
	detectWriteJSON(w, http.StatusOK, info)
}

// handleListScans returns a page of the scan journal, newest first.
func (m *Module) handleListScans(w http.ResponseWriter, r *http.Request) {
	if m.scans == nil {
		server.ServiceUnavailable(w, "scan journal not available", r.URL.Path)
		return
	}

	q := r.URL.Query()
	limit, err := detectParseInt(q.Get("limit"))
	if err != nil {
		server.BadRequest(w, "invalid limit: "+err.Error(), r.URL.Path)
		return
	}
	offset, err := detectParseInt(q.Get("offset"))
	if err != nil {
		server.BadRequest(w, "invalid offset: "+err.Error(), r.URL.Path)
		return
	}

	result, err := m.scans.List(r.Context(), services.ListOptions{
		Limit:     limit,
		Offset:    offset,
		SortOrder: q.Get("order"),
	})
	if err != nil {
		m.logger.Warn("failed to list scans", zap.Error(err))
		server.InternalError(w, "failed to list scans", r.URL.Path)
		return
	}
	detectWriteJSON(w, http.StatusOK, result)
}

// detectParseInt parses an optional non-negative query integer; empty is 0.
func detectParseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("must not be negative")
	}
	return n, nil
}

func detectWriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
