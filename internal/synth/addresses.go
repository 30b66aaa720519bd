package synth

import (
	"math"
	"net/netip"
)

// DefaultRange is the network used when no usable range is supplied.
var DefaultRange = netip.MustParsePrefix("192.168.1.0/24")

// firstHostOffset is the host offset of the first generated device.
const firstHostOffset = 10

// Slot is one generated host address and its offset from the network address.
type Slot struct {
	Addr   netip.Addr
	Offset int
}

// Capacity returns the first host offset and how many hosts fit in prefix.
// Offsets start at 10 and stop before the broadcast address. Networks too
// small for that start at offset 1; /31, /32 and their IPv6 equivalents use
// every address.
func Capacity(prefix netip.Prefix) (start, capacity int) {
	hostBits := prefix.Addr().BitLen() - prefix.Bits()
	if hostBits >= 62 {
		return firstHostOffset, math.MaxInt32
	}
	size := 1 << hostBits
	switch {
	case size <= 2:
		return 0, size
	case size <= firstHostOffset+2:
		return 1, size - 2
	default:
		return firstHostOffset, size - firstHostOffset - 1
	}
}

// Slots returns up to n sequential host addresses inside prefix.
func Slots(prefix netip.Prefix, n int) []Slot {
	prefix = prefix.Masked()
	start, capacity := Capacity(prefix)
	if n > capacity {
		n = capacity
	}
	if n <= 0 {
		return []Slot{}
	}

	addr := prefix.Addr()
	for i := 0; i < start; i++ {
		addr = addr.Next()
	}
	slots := make([]Slot, 0, n)
	for i := 0; i < n; i++ {
		slots = append(slots, Slot{Addr: addr, Offset: start + i})
		addr = addr.Next()
	}
	return slots
}
