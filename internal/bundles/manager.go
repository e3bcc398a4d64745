package bundles

import (
	"fmt"

	"github.com/dagsmith/bundle-registry-server/internal/config"
)

// Manager owns one parsed bundle configuration snapshot. It validates the
// whole configuration eagerly at construction: every entry is constructed
// once with no version pin, so an invalid entry means no manager.
type Manager struct {
	entries []Entry
	byName  map[string]Entry
	factory *Factory
	bundles []Bundle
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithFactory replaces the default provider factory. Mostly useful for
// registering test providers.
func WithFactory(f *Factory) ManagerOption {
	return func(m *Manager) {
		m.factory = f
	}
}

// NewManager parses the raw bundle configuration setting and eagerly
// constructs every configured bundle. A nil raw value yields the built-in
// dags-folder bundle.
func NewManager(raw *string, cfg *config.Config, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		factory: NewFactory(cfg),
	}
	for _, opt := range opts {
		opt(m)
	}

	entries, err := ParseConfig(raw, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bundle config: %w", err)
	}

	m.entries = entries
	m.byName = make(map[string]Entry, len(entries))
	m.bundles = make([]Bundle, 0, len(entries))
	for _, entry := range entries {
		b, err := m.factory.Construct(entry, "")
		if err != nil {
			return nil, err
		}
		m.byName[entry.Name] = entry
		m.bundles = append(m.bundles, b)
	}

	return m, nil
}

// GetAll returns the configured bundles in configuration order.
func (m *Manager) GetAll() []Bundle {
	out := make([]Bundle, len(m.bundles))
	copy(out, m.bundles)
	return out
}

// GetBundle constructs a fresh instance of the named bundle bound to the
// requested version. An empty version asks for the provider's live state.
func (m *Manager) GetBundle(name, version string) (Bundle, error) {
	entry, ok := m.byName[name]
	if !ok {
		return nil, &NotConfiguredError{Name: name}
	}
	return m.factory.Construct(entry, version)
}

// Entries returns the parsed configuration entries in configuration order.
func (m *Manager) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Names returns the configured bundle names in configuration order. The DB
// reconciler diffs these against persisted records.
func (m *Manager) Names() []string {
	names := make([]string, len(m.entries))
	for i, entry := range m.entries {
		names[i] = entry.Name
	}
	return names
}
