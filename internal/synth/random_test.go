package synth

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
)

var macPattern = regexp.MustCompile(`^[0-9a-f]{2}(:[0-9a-f]{2}){5}$`)

func TestSource_MACFormat(t *testing.T) {
	src := NewSource(1)
	for i := 0; i < 500; i++ {
		mac := src.MAC()
		if !macPattern.MatchString(mac) {
			t.Fatalf("MAC() = %q, want six zero-padded lowercase octets", mac)
		}
	}
}

func TestSource_MACCoversLowOctets(t *testing.T) {
	// Octets below 0x10 must still be two digits.
	src := NewSource(7)
	sawLeadingZero := false
	for i := 0; i < 500 && !sawLeadingZero; i++ {
		mac := src.MAC()
		for j := 0; j < len(mac); j += 3 {
			if mac[j] == '0' {
				sawLeadingZero = true
			}
		}
	}
	if !sawLeadingZero {
		t.Error("expected at least one zero-padded octet in 500 MACs")
	}
}

func TestSource_TrafficRanges(t *testing.T) {
	src := NewSource(3)
	var maxHistory, maxAggregate int64
	for i := 0; i < 5000; i++ {
		h := src.HistoryTraffic()
		if h < 0 || h >= MaxHistoryTraffic {
			t.Fatalf("HistoryTraffic() = %d out of [0, %d)", h, MaxHistoryTraffic)
		}
		a := src.AggregateTraffic()
		if a < 0 || a >= MaxAggregateTraffic {
			t.Fatalf("AggregateTraffic() = %d out of [0, %d)", a, MaxAggregateTraffic)
		}
		maxHistory = max(maxHistory, h)
		maxAggregate = max(maxAggregate, a)
	}
	// The aggregate range is ten times wider; 5000 draws make this certain.
	if maxAggregate <= MaxHistoryTraffic {
		t.Errorf("aggregate max %d never exceeded the history range", maxAggregate)
	}
}

func TestSource_JitterBounds(t *testing.T) {
	src := NewSource(11)
	for i := 0; i < 5000; i++ {
		j := src.Jitter()
		if j < -0.25 || j >= 0.25 {
			t.Fatalf("Jitter() = %v out of [-0.25, 0.25)", j)
		}
	}
}

func TestSource_IdentifierIsUUIDv4(t *testing.T) {
	src := NewSource(5)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := src.Identifier()
		u, err := uuid.Parse(id)
		if err != nil {
			t.Fatalf("Identifier() = %q: %v", id, err)
		}
		if u.Version() != 4 {
			t.Errorf("version = %d, want 4", u.Version())
		}
		if seen[id] {
			t.Fatalf("duplicate identifier %q", id)
		}
		seen[id] = true
	}
}

func TestSource_SeedIsReproducible(t *testing.T) {
	a, b := NewSource(99), NewSource(99)
	for i := 0; i < 50; i++ {
		if x, y := a.MAC(), b.MAC(); x != y {
			t.Fatalf("draw %d: %q != %q", i, x, y)
		}
		if x, y := a.Identifier(), b.Identifier(); x != y {
			t.Fatalf("draw %d: %q != %q", i, x, y)
		}
	}
}

func TestPick(t *testing.T) {
	src := NewSource(2)
	items := []string{"a", "b", "c"}
	counts := map[string]int{}
	for i := 0; i < 300; i++ {
		counts[Pick(src, items)]++
	}
	for _, it := range items {
		if counts[it] == 0 {
			t.Errorf("Pick never returned %q", it)
		}
	}
}
