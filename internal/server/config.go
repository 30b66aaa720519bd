package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MINERWATCH_SERVER_PORT.
const EnvPrefix = "MINERWATCH"

// LoadConfig reads configuration from path, or from minerwatch.yaml in the
// working directory or /etc/minerwatch when path is empty. A missing default
// file is not an error. Environment variables override file values.
func LoadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("minerwatch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/minerwatch")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "minerwatch.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("plugins.detect.enabled", true)
	v.SetDefault("plugins.detect.latency", "2s")
	v.SetDefault("plugins.detect.device_count", 15)
	v.SetDefault("plugins.detect.default_range", "192.168.1.0/24")
	v.SetDefault("plugins.detect.seed", 0)
	v.SetDefault("plugins.detect.rate_limit", 0.2)
	v.SetDefault("plugins.detect.rate_burst", 3)

	v.SetDefault("plugins.notify.enabled", false)
	v.SetDefault("plugins.notify.broker", "")
	v.SetDefault("plugins.notify.client_id", "minerwatch")
	v.SetDefault("plugins.notify.topic", "minerwatch/{event}")
	v.SetDefault("plugins.notify.qos", 1)
	v.SetDefault("plugins.notify.timeout", "5s")
	v.SetDefault("plugins.notify.username", "")
	v.SetDefault("plugins.notify.password", "")
	v.SetDefault("plugins.notify.retain", false)
	v.SetDefault("plugins.notify.events",
		[]string{"detect.miner.detected", "detect.scan.completed", "detect.scan.failed"})
	v.SetDefault("plugins.notify.queue_size", 256)
}
