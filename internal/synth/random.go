// Package synth generates the synthetic device population the scan pipeline
// reports: random addresses, traffic samples, miner verdicts and locations.
package synth

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Upper bounds (exclusive) of the two traffic ranges.
const (
	MaxHistoryTraffic   = 10_000_000
	MaxAggregateTraffic = 100_000_000
)

// Source is a goroutine-safe random source. Seeded sources are
// reproducible, which is what tests rely on.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource returns a deterministic source for the given seed.
func NewSource(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomSource returns a source seeded from the runtime's entropy.
func NewRandomSource() *Source {
	return NewSource(rand.Uint64())
}

// Float64 returns a uniform value in [0, 1).
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// IntN returns a uniform value in [0, n). n must be positive.
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Int64N returns a uniform value in [0, n). n must be positive.
func (s *Source) Int64N(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int64N(n)
}

// Read fills p with random bytes. It never fails.
func (s *Source) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var buf [8]byte
	for i := 0; i < len(p); i += 8 {
		binary.LittleEndian.PutUint64(buf[:], s.rng.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}

// Identifier returns a random (version 4) UUID drawn from the source.
func (s *Source) Identifier() string {
	id, err := uuid.NewRandomFromReader(s)
	if err != nil {
		// Read never fails, so this is unreachable.
		panic(fmt.Sprintf("synth: uuid from source: %v", err))
	}
	return id.String()
}

// MAC returns six independent uniform octets as lowercase, zero-padded,
// colon-separated hex. No vendor OUI is encoded.
func (s *Source) MAC() string {
	var b strings.Builder
	b.Grow(17)
	for i := 0; i < 6; i++ {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%02x", s.IntN(256))
	}
	return b.String()
}

// HistoryTraffic returns a per-hour traffic sample in [0, MaxHistoryTraffic).
func (s *Source) HistoryTraffic() int64 {
	return s.Int64N(MaxHistoryTraffic)
}

// AggregateTraffic returns a device traffic total in [0, MaxAggregateTraffic).
func (s *Source) AggregateTraffic() int64 {
	return s.Int64N(MaxAggregateTraffic)
}

// Jitter returns a coordinate offset in [-0.25, 0.25).
func (s *Source) Jitter() float64 {
	return (s.Float64() - 0.5) * 0.5
}

// Pick returns a uniformly chosen element of items. items must be non-empty.
func Pick[T any](s *Source, items []T) T {
	return items[s.IntN(len(items))]
}
