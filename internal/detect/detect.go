// Package detect implements the miner-detection module: it runs scans over a
// network range, keeps the latest result in memory, journals scan metadata
// and serves the dashboard's device, miner and location views.
package detect

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/internal/services"
	"github.com/HerbHall/minerwatch/internal/synth"
	"github.com/HerbHall/minerwatch/pkg/catalog"
	"github.com/HerbHall/minerwatch/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
	_ plugin.Validator     = (*Module)(nil)
)

// Module implements the detect plugin.
type Module struct {
	logger       *zap.Logger
	cfg          Config
	bus          plugin.EventBus
	settings     services.SettingsRepository
	scans        services.ScanRepository
	orchestrator *Orchestrator
	tracker      tracker
	metrics      *metrics
	limiter      *clientLimiter
	hub          *hub

	registerer prometheus.Registerer
	collab     *collaborators
	now        func() time.Time

	unsubs []func()
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type collaborators struct {
	discoverer Discoverer
	geo        GeoResolver
	classifier Classifier
}

// Option configures a Module.
type Option func(*Module)

// WithRegisterer sets where scan metrics are registered. The default is
// prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Module) { m.registerer = reg }
}

// WithCollaborators replaces the simulated discoverer, resolver and
// classifier.
func WithCollaborators(d Discoverer, g GeoResolver, c Classifier) Option {
	return func(m *Module) { m.collab = &collaborators{discoverer: d, geo: g, classifier: c} }
}

// WithClock sets the time source used for synthetic timestamps and scan
// completion times.
func WithClock(now func() time.Time) Option {
	return func(m *Module) { m.now = now }
}

// New creates a detect module.
func New(opts ...Option) *Module {
	m := &Module{
		registerer: prometheus.DefaultRegisterer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "detect",
		Version:     "0.1.0",
		Description: "Synthetic LAN scanning and cryptocurrency miner detection",
		Required:    true,
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	m.bus = deps.Bus

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal detect config: %w", err)
		}
	}

	if deps.Store != nil {
		settings, err := services.NewSQLiteSettingsRepository(ctx, deps.Store)
		if err != nil {
			return err
		}
		scans, err := services.NewSQLiteScanRepository(ctx, deps.Store)
		if err != nil {
			return err
		}
		m.settings = settings
		m.scans = scans
	} else {
		m.logger.Warn("no store configured, scan journal disabled")
	}

	met, err := newMetrics(m.registerer)
	if err != nil {
		return fmt.Errorf("register detect metrics: %w", err)
	}
	m.metrics = met

	if m.collab == nil {
		values, err := catalog.NewCatalog().Values()
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		src := synth.NewRandomSource()
		if m.cfg.Seed != 0 {
			src = synth.NewSource(m.cfg.Seed)
		}
		sim := NewSimulator(synth.NewSynthesizer(src, values, m.now))
		m.collab = &collaborators{discoverer: sim, geo: sim, classifier: sim}
	}
	m.orchestrator = NewOrchestrator(m.collab.discoverer, m.collab.geo, m.collab.classifier, m.logger,
		WithLatency(m.cfg.Latency),
		WithDeviceCount(m.cfg.DeviceCount),
	)

	if m.cfg.RateLimit > 0 {
		m.limiter = newClientLimiter(m.cfg.RateLimit, m.cfg.RateBurst)
	}
	m.hub = newHub(m.logger)

	m.logger.Info("detect module initialized",
		zap.Duration("latency", m.cfg.Latency),
		zap.Int("device_count", m.cfg.DeviceCount),
		zap.String("default_range", m.cfg.DefaultRange),
	)
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	return m.cfg.Validate()
}

func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	if m.bus != nil {
		for _, topic := range Topics {
			m.unsubs = append(m.unsubs, m.bus.Subscribe(topic, m.hub.handleEvent))
		}
	}

	if m.limiter != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.limiter.runCleanup(ctx, limiterCleanupInterval)
		}()
	}

	m.logger.Info("detect module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	if m.hub != nil {
		m.hub.close()
	}
	m.logger.Info("detect module stopped")
	return nil
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	details := map[string]string{
		"scanning": strconv.FormatBool(m.tracker.Busy()),
		"journal":  "disabled",
	}
	if m.scans != nil {
		details["journal"] = "enabled"
	}
	if latest, ok := m.tracker.Latest(); ok {
		details["latest_scan"] = latest.ScanID
		details["devices"] = strconv.Itoa(len(latest.Devices))
		details["miners"] = strconv.Itoa(len(latest.Miners))
	}
	if m.hub != nil {
		details["stream_clients"] = strconv.Itoa(m.hub.count())
	}
	return plugin.HealthStatus{Status: plugin.HealthOK, Details: details}
}
