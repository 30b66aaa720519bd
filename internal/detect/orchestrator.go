package detect

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/internal/synth"
	"github.com/HerbHall/minerwatch/pkg/models"
)

// ErrScanFailed wraps every scan-execution failure.
var ErrScanFailed = errors.New("scan failed")

// Orchestrator runs one scan: simulated latency, discovery, location,
// classification and the miner partition.
type Orchestrator struct {
	discoverer Discoverer
	geo        GeoResolver
	classifier Classifier
	latency    time.Duration
	count      int
	logger     *zap.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLatency sets the simulated scan duration.
func WithLatency(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.latency = d }
}

// WithDeviceCount sets how many hosts a scan asks the discoverer for.
func WithDeviceCount(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.count = n }
}

// NewOrchestrator wires the three collaborators. Defaults match
// DefaultConfig.
func NewOrchestrator(d Discoverer, g GeoResolver, c Classifier, logger *zap.Logger, opts ...OrchestratorOption) *Orchestrator {
	def := DefaultConfig()
	o := &Orchestrator{
		discoverer: d,
		geo:        g,
		classifier: c,
		latency:    def.Latency,
		count:      def.DeviceCount,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ParseRange parses a CIDR range such as "10.0.0.0/8". A bare address is
// taken as a single-host range. The result is masked.
func ParseRange(s string) (netip.Prefix, bool) {
	s = strings.TrimSpace(s)
	if p, err := netip.ParsePrefix(s); err == nil {
		return p.Masked(), true
	}
	if a, err := netip.ParseAddr(s); err == nil {
		return netip.PrefixFrom(a, a.BitLen()), true
	}
	return netip.Prefix{}, false
}

// ResolveRange parses s, falling back to the default 192.168.1.0/24 with a
// warning when s is not a usable range.
func (o *Orchestrator) ResolveRange(s string) netip.Prefix {
	if p, ok := ParseRange(s); ok {
		return p
	}
	o.logger.Warn("unusable scan range, using default",
		zap.String("range", s),
		zap.String("default", synth.DefaultRange.String()),
	)
	return synth.DefaultRange
}

// Scan scans networkRange. An unusable range falls back to the default
// rather than failing.
func (o *Orchestrator) Scan(ctx context.Context, networkRange string) (*models.ScanResult, error) {
	return o.ScanPrefix(ctx, o.ResolveRange(networkRange))
}

// ScanPrefix scans prefix. Collaborator errors, panics and cancellation
// during the latency wait are returned wrapped in ErrScanFailed, with no
// partial result.
func (o *Orchestrator) ScanPrefix(ctx context.Context, prefix netip.Prefix) (result *models.ScanResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("scan panicked", zap.String("range", prefix.String()), zap.Any("panic", r))
			result, err = nil, fmt.Errorf("%w: internal error: %v", ErrScanFailed, r)
		}
	}()

	if err := sleep(ctx, o.latency); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanFailed, err)
	}

	hosts, err := o.discoverer.Discover(ctx, prefix, o.count)
	if err != nil {
		return nil, fmt.Errorf("%w: discover %s: %w", ErrScanFailed, prefix, err)
	}

	devices := make([]models.Device, 0, len(hosts))
	for _, h := range hosts {
		loc, err := o.geo.Resolve(ctx, h)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve %s: %w", ErrScanFailed, h.IP, err)
		}
		cls, err := o.classifier.Classify(ctx, h)
		if err != nil {
			return nil, fmt.Errorf("%w: classify %s: %w", ErrScanFailed, h.IP, err)
		}
		devices = append(devices, assemble(h, loc, cls))
	}

	miners := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		if d.IsMiner {
			miners = append(miners, d)
		}
	}
	return &models.ScanResult{Devices: devices, Miners: miners}, nil
}

// assemble builds a Device, dropping miner attributes from non-miners.
func assemble(h Host, loc models.Location, cls Classification) models.Device {
	d := models.Device{
		ID:                h.ID,
		IP:                h.IP,
		MAC:               h.MAC,
		Hostname:          h.Hostname,
		Vendor:            h.Vendor,
		LastSeen:          h.LastSeen,
		TrafficVolume:     h.TrafficVolume,
		Location:          loc,
		ConnectionHistory: h.ConnectionHistory,
	}
	if cls.IsMiner {
		d.IsMiner = true
		d.Confidence = cls.Confidence
		d.MinerType = cls.MinerType
		d.HashRate = cls.HashRate
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
