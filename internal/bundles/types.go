// Package bundles resolves the configured list of pluggable DAG bundle
// providers. A bundle is a named, independently versionable source of
// workflow-definition files; this package parses the bundle configuration
// setting, constructs provider instances, and exposes name/version lookup.
package bundles

import (
	"context"
	"fmt"
	"time"

	"github.com/dagsmith/bundle-registry-server/internal/config"
)

// Bundle is the capability contract every bundle provider implements.
type Bundle interface {
	// Name is the configured identifier of the bundle.
	Name() string

	// Version is the version this instance is pinned to. An empty string
	// means the instance tracks the provider's live state.
	Version() string

	// Path is the filesystem location holding the bundle's workflow
	// definitions.
	Path() string

	// RefreshInterval is the suggested cadence at which an external loop
	// should call Refresh on a long-lived instance.
	RefreshInterval() time.Duration

	// Refresh re-checks the source and updates local state.
	Refresh(ctx context.Context) error

	// CurrentVersion returns the provider's current version, or an empty
	// string when the provider has no version concept.
	CurrentVersion(ctx context.Context) (string, error)
}

// ConstructorConfig carries everything a provider constructor receives: the
// entry's kwargs plus the injected identity and requested version, and the
// server configuration for provider defaults.
type ConstructorConfig struct {
	Name    string
	Version string
	Kwargs  map[string]any
	Server  *config.Config
}

// Constructor builds a provider instance from its configuration. Each call
// must yield an independent instance.
type Constructor func(cc ConstructorConfig) (Bundle, error)

// Base carries the attributes common to all bundle providers. Providers
// embed it and implement the side-effecting methods themselves.
type Base struct {
	name            string
	version         string
	refreshInterval time.Duration
}

// NewBase builds the common bundle attributes from a constructor config,
// reading the refresh_interval kwarg and falling back to the server default.
func NewBase(cc ConstructorConfig) (Base, error) {
	interval, err := refreshIntervalKwarg(cc.Kwargs, cc.Server.GetDefaultRefreshInterval())
	if err != nil {
		return Base{}, err
	}
	return Base{
		name:            cc.Name,
		version:         cc.Version,
		refreshInterval: interval,
	}, nil
}

// Name implements Bundle.
func (b *Base) Name() string { return b.name }

// Version implements Bundle.
func (b *Base) Version() string { return b.version }

// RefreshInterval implements Bundle.
func (b *Base) RefreshInterval() time.Duration { return b.refreshInterval }

// refreshIntervalKwarg reads the refresh_interval kwarg. JSON numbers are
// interpreted as seconds; strings are parsed as Go durations.
func refreshIntervalKwarg(kwargs map[string]any, def time.Duration) (time.Duration, error) {
	raw, ok := kwargs["refresh_interval"]
	if !ok {
		return def, nil
	}

	switch v := raw.(type) {
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("refresh_interval is not a valid duration: %w", err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("refresh_interval must be a number of seconds or a duration string, got %T", raw)
	}
}

// stringKwarg reads an optional string kwarg, erroring when the value is
// present but not a string.
func stringKwarg(kwargs map[string]any, key string) (string, error) {
	raw, ok := kwargs[key]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, raw)
	}
	return s, nil
}
