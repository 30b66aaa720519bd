// Package plugin defines the contract between the MinerWatch server and its
// modules: lifecycle, dependencies, HTTP routes, events and storage.
package plugin

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Plugin API versions understood by this build.
const (
	APIVersionMin     = 1
	APIVersionCurrent = 1
)

// PluginInfo describes a plugin to the registry.
type PluginInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies,omitempty"`
	// Required plugins abort startup when they cannot be initialized.
	Required   bool `json:"required"`
	APIVersion int  `json:"api_version"`
}

// Dependencies are handed to a plugin during Init.
type Dependencies struct {
	Config Config
	Logger *zap.Logger
	Store  Store
	Bus    EventBus
}

// Plugin is implemented by every MinerWatch module.
type Plugin interface {
	Info() PluginInfo
	Init(ctx context.Context, deps Dependencies) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Route represents an HTTP route exposed by a plugin. Path is relative to
// /api/v1/{plugin}.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}
