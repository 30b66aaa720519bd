package plugin

import "time"

// Config is the read-only configuration view handed to plugins. Keys are
// relative to the plugin's own section (plugins.<name>).
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	Sub(key string) Config
	Unmarshal(target any) error
}
