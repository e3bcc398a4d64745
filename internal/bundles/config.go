package bundles

import (
	"encoding/json"
	"fmt"

	"github.com/dagsmith/bundle-registry-server/internal/config"
)

// DefaultBundleName is the name of the built-in bundle synthesized when no
// bundle configuration is present. It points at the orchestrator's base
// workflow-definition directory.
const DefaultBundleName = "dags-folder"

// Entry is one validated bundle configuration entry. Entries are created
// once per parse and are immutable.
type Entry struct {
	// Name uniquely identifies the bundle within a configuration snapshot.
	Name string

	// Classpath references the provider implementation backing the bundle.
	Classpath string

	// Kwargs are provider-specific constructor arguments.
	Kwargs map[string]any
}

// ParseConfig turns the raw bundle configuration setting into a validated
// list of entries.
//
// A nil raw value means the setting is wholly absent and yields exactly the
// dags-folder default. An explicitly empty list (or empty object) yields
// zero entries; the default is not reinstated.
func ParseConfig(raw *string, cfg *config.Config) ([]Entry, error) {
	if raw == nil {
		return []Entry{defaultEntry(cfg)}, nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(*raw), &parsed); err != nil {
		return nil, &FormatError{Raw: *raw, Err: err}
	}

	var list []any
	switch v := parsed.(type) {
	case nil:
		return []Entry{}, nil
	case []any:
		list = v
	case map[string]any:
		// An empty object is treated the same as an empty list.
		if len(v) == 0 {
			return []Entry{}, nil
		}
		return nil, &ShapeError{Reason: "bundle config is not a list"}
	default:
		return nil, &ShapeError{Reason: "bundle config is not a list"}
	}

	entries := make([]Entry, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for i, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, &ShapeError{Reason: fmt.Sprintf("bundle config entry %d is not an object", i)}
		}

		name, ok := obj["name"].(string)
		if !ok || name == "" {
			return nil, &ShapeError{Reason: fmt.Sprintf("bundle config entry %d is missing required field 'name'", i)}
		}

		classpath, ok := obj["classpath"].(string)
		if !ok || classpath == "" {
			return nil, &ShapeError{
				Reason: fmt.Sprintf("bundle config entry %d (%s) is missing required field 'classpath'", i, name),
			}
		}

		kwargs := map[string]any{}
		if rawKwargs, present := obj["kwargs"]; present {
			kwargs, ok = rawKwargs.(map[string]any)
			if !ok {
				return nil, &ShapeError{
					Reason: fmt.Sprintf("bundle config entry %d (%s): kwargs must be an object", i, name),
				}
			}
		}

		if _, dup := seen[name]; dup {
			return nil, &ShapeError{Reason: fmt.Sprintf("duplicate bundle name '%s'", name)}
		}
		seen[name] = struct{}{}

		entries = append(entries, Entry{
			Name:      name,
			Classpath: classpath,
			Kwargs:    kwargs,
		})
	}

	return entries, nil
}

// defaultEntry synthesizes the built-in dags-folder bundle from the server
// configuration.
func defaultEntry(cfg *config.Config) Entry {
	return Entry{
		Name:      DefaultBundleName,
		Classpath: LocalBundleClasspath,
		Kwargs: map[string]any{
			"local_folder":     cfg.DagsFolder,
			"refresh_interval": cfg.GetDefaultRefreshInterval().String(),
		},
	}
}
