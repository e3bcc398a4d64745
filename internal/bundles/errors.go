package bundles

import "fmt"

// FormatError indicates the raw bundle configuration setting is not valid JSON.
type FormatError struct {
	Raw string
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unable to parse %q as valid json: %v", e.Raw, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ShapeError indicates the bundle configuration parsed as valid JSON but has
// the wrong structure: non-list top level, an entry missing a required field,
// or duplicate bundle names.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return e.Reason
}

// ResolutionError indicates a configured classpath could not be resolved to
// a registered provider, or the provider constructor rejected its arguments.
type ResolutionError struct {
	Name      string
	Classpath string
	Err       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("bundle %q: cannot construct classpath %q: %v", e.Name, e.Classpath, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// NotConfiguredError is returned by Manager.GetBundle when the requested
// name is not among the configured bundles. It does not invalidate the
// manager.
type NotConfiguredError struct {
	Name string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("'%s' is not configured", e.Name)
}
