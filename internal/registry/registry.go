// Package registry manages plugin registration, dependency ordering and
// lifecycle.
package registry

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/pkg/plugin"
)

// Registry manages the lifecycle of all registered plugins.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]plugin.Plugin
	order    []string
	disabled map[string]string // name -> reason
	logger   *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		plugins:  make(map[string]plugin.Plugin),
		disabled: make(map[string]string),
		logger:   logger,
	}
}

// Register adds a plugin to the registry.
func (r *Registry) Register(p plugin.Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := p.Info()
	if info.Name == "" {
		return fmt.Errorf("plugin has empty name")
	}
	if _, exists := r.plugins[info.Name]; exists {
		return fmt.Errorf("plugin %q already registered", info.Name)
	}

	r.plugins[info.Name] = p
	r.order = append(r.order, info.Name)
	r.logger.Info("plugin registered", zap.String("name", info.Name), zap.String("version", info.Version))
	return nil
}

// Validate checks API versions and dependencies, disables optional plugins
// whose requirements are not met, and sorts plugins so dependencies come
// first. Problems with required plugins and dependency cycles are errors.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		info := r.plugins[name].Info()
		if info.APIVersion < plugin.APIVersionMin || info.APIVersion > plugin.APIVersionCurrent {
			reason := fmt.Sprintf("unsupported API version %d (supported %d-%d)",
				info.APIVersion, plugin.APIVersionMin, plugin.APIVersionCurrent)
			if err := r.disableLocked(info, reason); err != nil {
				return err
			}
			continue
		}
		for _, dep := range info.Dependencies {
			if _, ok := r.plugins[dep]; !ok {
				if err := r.disableLocked(info, fmt.Sprintf("missing dependency %q", dep)); err != nil {
					return err
				}
				break
			}
		}
	}

	sorted, err := r.topoSortLocked()
	if err != nil {
		return err
	}
	r.order = sorted

	// Dependencies precede dependents, so one pass cascades.
	for _, name := range r.order {
		if _, off := r.disabled[name]; off {
			continue
		}
		info := r.plugins[name].Info()
		for _, dep := range info.Dependencies {
			if _, off := r.disabled[dep]; off {
				if err := r.disableLocked(info, fmt.Sprintf("dependency %q disabled", dep)); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}

// topoSortLocked orders plugins dependencies-first, keeping registration
// order among independent plugins.
func (r *Registry) topoSortLocked() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(r.order))
	sorted := make([]string, 0, len(r.order))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("dependency cycle: %v", append(path, name))
		}
		state[name] = visiting
		for _, dep := range r.plugins[name].Info().Dependencies {
			if _, ok := r.plugins[dep]; !ok {
				continue
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		sorted = append(sorted, name)
		return nil
	}

	for _, name := range r.order {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}

func (r *Registry) disableLocked(info plugin.PluginInfo, reason string) error {
	if info.Required {
		return fmt.Errorf("required plugin %q: %s", info.Name, reason)
	}
	r.disabled[info.Name] = reason
	r.logger.Warn("plugin disabled", zap.String("name", info.Name), zap.String("reason", reason))
	return nil
}

// InitAll initializes every enabled plugin in dependency order. deps builds
// the Dependencies for a plugin name. A plugin whose config sets
// enabled=false is skipped.
func (r *Registry) InitAll(ctx context.Context, deps func(name string) plugin.Dependencies) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		if _, off := r.disabled[name]; off {
			continue
		}
		p := r.plugins[name]
		info := p.Info()

		for _, dep := range info.Dependencies {
			if _, off := r.disabled[dep]; off {
				if err := r.disableLocked(info, fmt.Sprintf("dependency %q disabled", dep)); err != nil {
					return err
				}
				break
			}
		}
		if _, off := r.disabled[name]; off {
			continue
		}

		d := deps(name)
		if d.Config != nil && d.Config.IsSet("enabled") && !d.Config.GetBool("enabled") {
			r.disabled[name] = "disabled by configuration"
			r.logger.Info("plugin disabled, skipping", zap.String("name", name))
			continue
		}

		r.logger.Info("initializing plugin", zap.String("name", name))
		if err := p.Init(ctx, d); err != nil {
			if derr := r.disableLocked(info, "init failed: "+err.Error()); derr != nil {
				return fmt.Errorf("failed to initialize plugin %q: %w", name, err)
			}
			continue
		}
		if v, ok := p.(plugin.Validator); ok {
			if err := v.ValidateConfig(); err != nil {
				if derr := r.disableLocked(info, "invalid config: "+err.Error()); derr != nil {
					return fmt.Errorf("invalid config for plugin %q: %w", name, err)
				}
			}
		}
	}
	return nil
}

// StartAll starts all enabled plugins.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if _, off := r.disabled[name]; off {
			continue
		}
		r.logger.Info("starting plugin", zap.String("name", name))
		if err := r.plugins[name].Start(ctx); err != nil {
			return fmt.Errorf("failed to start plugin %q: %w", name, err)
		}
	}
	return nil
}

// StopAll stops enabled plugins in reverse order.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		if _, off := r.disabled[name]; off {
			continue
		}
		r.logger.Info("stopping plugin", zap.String("name", name))
		if err := r.plugins[name].Stop(ctx); err != nil {
			r.logger.Error("failed to stop plugin", zap.String("name", name), zap.Error(err))
		}
	}
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) (plugin.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// IsDisabled reports whether the named plugin has been disabled.
func (r *Registry) IsDisabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, off := r.disabled[name]
	return off
}

// All returns all registered plugins in (dependency) order.
func (r *Registry) All() []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]plugin.Plugin, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.plugins[name])
	}
	return result
}

// AllRoutes returns the routes of every enabled HTTPProvider, keyed by
// plugin name.
func (r *Registry) AllRoutes() map[string][]plugin.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make(map[string][]plugin.Route)
	for _, name := range r.order {
		if _, off := r.disabled[name]; off {
			continue
		}
		hp, ok := r.plugins[name].(plugin.HTTPProvider)
		if !ok {
			continue
		}
		if pr := hp.Routes(); len(pr) > 0 {
			routes[name] = pr
		}
	}
	return routes
}

// Health collects the status of every enabled HealthChecker.
func (r *Registry) Health(ctx context.Context) map[string]plugin.HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]plugin.HealthStatus)
	for _, name := range r.order {
		if _, off := r.disabled[name]; off {
			continue
		}
		if hc, ok := r.plugins[name].(plugin.HealthChecker); ok {
			out[name] = hc.Health(ctx)
		}
	}
	return out
}
