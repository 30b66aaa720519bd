package plugin

import "context"

// HTTPProvider is implemented by plugins that expose REST API routes.
type HTTPProvider interface {
	Routes() []Route
}

// HealthChecker is implemented by plugins that report their health status.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}

// Validator is implemented by plugins that validate their config post-init.
type Validator interface {
	ValidateConfig() error
}

// Health states reported by HealthChecker.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// HealthStatus is a plugin's self-reported health.
type HealthStatus struct {
	Status  string            `json:"status"`
	Details map[string]string `json:"details,omitempty"`
}
