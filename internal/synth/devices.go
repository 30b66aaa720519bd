package synth

import (
	"net/netip"
	"strconv"
	"time"

	"github.com/HerbHall/minerwatch/pkg/catalog"
	"github.com/HerbHall/minerwatch/pkg/models"
)

// Miner verdict parameters.
const (
	MinerProbability = 0.30
	MinConfidence    = 0.7
	ConfidenceSpan   = 0.3
	MinHashRate      = 50.0
	HashRateSpan     = 100.0
	MinAccuracy      = 0.8
	AccuracySpan     = 0.2
)

// Identity is the discovery-level view of one synthetic host.
type Identity struct {
	ID            string
	IP            string
	MAC           string
	Hostname      string
	Vendor        string
	TrafficVolume int64
}

// Verdict is a synthetic miner classification.
type Verdict struct {
	IsMiner    bool
	Confidence float64
	MinerType  *string
	HashRate   *float64
}

// Synthesizer builds synthetic devices from a random source and the fixed
// catalog values.
type Synthesizer struct {
	src    *Source
	values catalog.Values
	now    func() time.Time
}

// NewSynthesizer creates a Synthesizer. A nil now defaults to time.Now.
func NewSynthesizer(src *Source, values catalog.Values, now func() time.Time) *Synthesizer {
	if now == nil {
		now = time.Now
	}
	return &Synthesizer{src: src, values: values, now: now}
}

// Now returns the synthesizer's current time in UTC.
func (s *Synthesizer) Now() time.Time {
	return s.now().UTC()
}

// Generate returns exactly n devices addressed 192.168.1.(10+i). Batches
// larger than 245 carry on into 192.168.2.x. n <= 0 yields an empty slice.
func (s *Synthesizer) Generate(n int) []models.Device {
	if n <= 0 {
		return []models.Device{}
	}
	return s.generate(sequentialSlots(DefaultRange.Addr(), n))
}

// GenerateInRange returns up to n devices whose addresses lie inside
// prefix. The count is clamped to the prefix's host capacity.
func (s *Synthesizer) GenerateInRange(prefix netip.Prefix, n int) []models.Device {
	return s.generate(Slots(prefix, n))
}

func (s *Synthesizer) generate(slots []Slot) []models.Device {
	now := s.Now()
	devices := make([]models.Device, 0, len(slots))
	for _, slot := range slots {
		id := s.Identity(slot)
		v := s.Verdict()
		devices = append(devices, models.Device{
			ID:                id.ID,
			IP:                id.IP,
			MAC:               id.MAC,
			Hostname:          id.Hostname,
			Vendor:            id.Vendor,
			LastSeen:          now,
			TrafficVolume:     id.TrafficVolume,
			IsMiner:           v.IsMiner,
			Confidence:        v.Confidence,
			MinerType:         v.MinerType,
			HashRate:          v.HashRate,
			Location:          s.Location(),
			ConnectionHistory: s.History(now),
		})
	}
	return devices
}

// Identity draws the discovery attributes of the host in slot.
func (s *Synthesizer) Identity(slot Slot) Identity {
	return Identity{
		ID:            s.src.Identifier(),
		IP:            slot.Addr.String(),
		MAC:           s.src.MAC(),
		Hostname:      "device-" + strconv.Itoa(slot.Offset),
		Vendor:        Pick(s.src, s.values.Vendors),
		TrafficVolume: s.src.AggregateTraffic(),
	}
}

// Verdict flips the weighted miner coin and fills the miner attributes.
func (s *Synthesizer) Verdict() Verdict {
	if s.src.Float64() >= MinerProbability {
		return Verdict{}
	}
	confidence := MinConfidence + s.src.Float64()*ConfidenceSpan
	minerType := Pick(s.src, s.values.MinerTypes)
	hashRate := MinHashRate + s.src.Float64()*HashRateSpan
	return Verdict{
		IsMiner:    true,
		Confidence: confidence,
		MinerType:  &minerType,
		HashRate:   &hashRate,
	}
}

// Location draws a city and jittered coordinates around the catalog center.
func (s *Synthesizer) Location() models.Location {
	return models.Location{
		City:     Pick(s.src, s.values.Cities),
		Region:   s.values.Region,
		Country:  s.values.Country,
		Lat:      s.values.Center.Lat + s.src.Jitter(),
		Lon:      s.values.Center.Lon + s.src.Jitter(),
		Accuracy: MinAccuracy + s.src.Float64()*AccuracySpan,
	}
}

// sequentialSlots numbers hosts from first+10 without a range limit.
func sequentialSlots(first netip.Addr, n int) []Slot {
	addr := first
	for i := 0; i < firstHostOffset; i++ {
		addr = addr.Next()
	}
	slots := make([]Slot, 0, n)
	for i := 0; i < n; i++ {
		slots = append(slots, Slot{Addr: addr, Offset: firstHostOffset + i})
		addr = addr.Next()
	}
	return slots
}
