package detect

import (
	"context"
	"net/netip"
	"time"

	"github.com/HerbHall/minerwatch/internal/synth"
	"github.com/HerbHall/minerwatch/pkg/models"
)

// Host is a discovered network endpoint before location and classification.
type Host struct {
	ID                string
	IP                string
	MAC               string
	Hostname          string
	Vendor            string
	LastSeen          time.Time
	TrafficVolume     int64
	ConnectionHistory []models.TrafficSample
}

// Classification is a miner verdict for one host.
type Classification struct {
	IsMiner    bool
	Confidence float64
	MinerType  *string
	HashRate   *float64
}

// Discoverer enumerates up to count hosts inside prefix.
type Discoverer interface {
	Discover(ctx context.Context, prefix netip.Prefix, count int) ([]Host, error)
}

// GeoResolver maps a host to a physical location.
type GeoResolver interface {
	Resolve(ctx context.Context, host Host) (models.Location, error)
}

// Classifier scores a host's traffic pattern.
type Classifier interface {
	Classify(ctx context.Context, host Host) (Classification, error)
}

// Simulator implements all three collaborators with synthetic data.
type Simulator struct {
	synth *synth.Synthesizer
}

var (
	_ Discoverer  = (*Simulator)(nil)
	_ GeoResolver = (*Simulator)(nil)
	_ Classifier  = (*Simulator)(nil)
)

// NewSimulator returns a Simulator drawing from s.
func NewSimulator(s *synth.Synthesizer) *Simulator {
	return &Simulator{synth: s}
}

// Discover returns sequential synthetic hosts inside prefix, clamped to its
// capacity. Every host in a batch shares one lastSeen time.
func (s *Simulator) Discover(_ context.Context, prefix netip.Prefix, count int) ([]Host, error) {
	slots := synth.Slots(prefix, count)
	now := s.synth.Now()
	hosts := make([]Host, 0, len(slots))
	for _, slot := range slots {
		id := s.synth.Identity(slot)
		hosts = append(hosts, Host{
			ID:                id.ID,
			IP:                id.IP,
			MAC:               id.MAC,
			Hostname:          id.Hostname,
			Vendor:            id.Vendor,
			LastSeen:          now,
			TrafficVolume:     id.TrafficVolume,
			ConnectionHistory: s.synth.History(now),
		})
	}
	return hosts, nil
}

// Resolve returns a jittered location around the catalog center.
func (s *Simulator) Resolve(_ context.Context, _ Host) (models.Location, error) {
	return s.synth.Location(), nil
}

// Classify flips the weighted miner coin.
func (s *Simulator) Classify(_ context.Context, _ Host) (Classification, error) {
	v := s.synth.Verdict()
	return Classification{
		IsMiner:    v.IsMiner,
		Confidence: v.Confidence,
		MinerType:  v.MinerType,
		HashRate:   v.HashRate,
	}, nil
}
