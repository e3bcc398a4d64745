package bundles

import (
	"errors"

	"github.com/dagsmith/bundle-registry-server/internal/config"
)

// Classpath identifiers for the built-in providers. Classpaths are opaque
// dotted identifiers drawn from a finite, pre-registered set.
const (
	// LocalBundleClasspath backs a bundle with a local directory.
	LocalBundleClasspath = "dagsmith.bundles.local"

	// GitBundleClasspath backs a bundle with a git repository checkout.
	GitBundleClasspath = "dagsmith.bundles.git"
)

var errUnknownClasspath = errors.New("no provider registered for classpath")

// Factory constructs bundle provider instances from configuration entries.
// Resolution goes through an explicit registration table populated at
// construction, so unknown classpaths fail fast without runtime
// introspection.
type Factory struct {
	constructors map[string]Constructor
	server       *config.Config
}

// NewFactory creates a factory with the built-in providers registered.
func NewFactory(cfg *config.Config) *Factory {
	f := &Factory{
		constructors: make(map[string]Constructor),
		server:       cfg,
	}
	f.Register(LocalBundleClasspath, NewLocalBundle)
	f.Register(GitBundleClasspath, NewGitBundle)
	return f
}

// Register adds a provider constructor under the given classpath,
// replacing any previous registration.
func (f *Factory) Register(classpath string, ctor Constructor) {
	f.constructors[classpath] = ctor
}

// Construct builds a fresh provider instance for the entry, injecting the
// entry's name and the requested version. An empty version asks for the
// provider's live, unpinned state. Instances are never cached or shared.
func (f *Factory) Construct(entry Entry, version string) (Bundle, error) {
	ctor, ok := f.constructors[entry.Classpath]
	if !ok {
		return nil, &ResolutionError{Name: entry.Name, Classpath: entry.Classpath, Err: errUnknownClasspath}
	}

	b, err := ctor(ConstructorConfig{
		Name:    entry.Name,
		Version: version,
		Kwargs:  entry.Kwargs,
		Server:  f.server,
	})
	if err != nil {
		return nil, &ResolutionError{Name: entry.Name, Classpath: entry.Classpath, Err: err}
	}

	return b, nil
}
