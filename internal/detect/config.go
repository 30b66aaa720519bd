package detect

import (
	"fmt"
	"time"
)

// Config holds the detect module settings (plugins.detect.*).
type Config struct {
	// Latency is the simulated scan duration.
	Latency time.Duration `mapstructure:"latency"`
	// DeviceCount is how many devices a scan reports, before clamping to
	// the range's capacity.
	DeviceCount int `mapstructure:"device_count"`
	// DefaultRange is scanned when a request names no range and no
	// scan_range setting is stored.
	DefaultRange string `mapstructure:"default_range"`
	// Seed makes scans reproducible. Zero picks a random seed.
	Seed uint64 `mapstructure:"seed"`
	// RateLimit is scan triggers per second per client; zero disables it.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// DefaultConfig returns the defaults used for unset keys.
func DefaultConfig() Config {
	return Config{
		Latency:      2 * time.Second,
		DeviceCount:  15,
		DefaultRange: "192.168.1.0/24",
		RateLimit:    0.2,
		RateBurst:    3,
	}
}

// Validate reports the first unusable value.
func (c Config) Validate() error {
	if c.Latency < 0 {
		return fmt.Errorf("latency must not be negative, got %s", c.Latency)
	}
	if c.DeviceCount <= 0 {
		return fmt.Errorf("device_count must be positive, got %d", c.DeviceCount)
	}
	if _, ok := ParseRange(c.DefaultRange); !ok {
		return fmt.Errorf("default_range %q is not a CIDR range", c.DefaultRange)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be at least 1 when rate_limit is set, got %d", c.RateBurst)
	}
	return nil
}
