// Package config adapts viper to the plugin.Config interface.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HerbHall/minerwatch/pkg/plugin"
)

// Compile-time interface guard.
var _ plugin.Config = (*ViperConfig)(nil)

// ViperConfig implements plugin.Config on top of a *viper.Viper.
type ViperConfig struct {
	v *viper.Viper
}

// New wraps v. A nil v yields an empty configuration.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

func (c *ViperConfig) GetString(key string) string          { return c.v.GetString(key) }
func (c *ViperConfig) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *ViperConfig) GetFloat64(key string) float64        { return c.v.GetFloat64(key) }
func (c *ViperConfig) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *ViperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *ViperConfig) IsSet(key string) bool                { return c.v.IsSet(key) }
func (c *ViperConfig) Unmarshal(target any) error           { return c.v.Unmarshal(target) }

// Sub returns the section under key. A missing section yields an empty
// Config, never nil. Values are resolved through the parent, so
// environment overrides of keys with defaults carry into the section,
// which viper.Sub alone does not do.
func (c *ViperConfig) Sub(key string) plugin.Config {
	prefix := strings.ToLower(key) + "."
	sub := viper.New()
	for _, k := range c.v.AllKeys() {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			sub.Set(rest, c.v.Get(k))
		}
	}
	return New(sub)
}

// Viper exposes the wrapped instance.
func (c *ViperConfig) Viper() *viper.Viper {
	return c.v
}
