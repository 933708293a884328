package dialect

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDialect is returned when a dialect name is not one of the supported tags.
	ErrUnknownDialect = errors.New("dialect: unknown dialect")

	// ErrMissingHost is returned when a managed-hosting config has neither
	// an explicit host nor a project reference to derive one from.
	ErrMissingHost = errors.New("dialect: host or project_ref is required")
)

// ConfigError reports an invalid dialect name or connection configuration.
// Configuration errors are raised when a connection string is built and are
// never replaced by defaults.
type ConfigError struct {
	Dialect string
	Key     string // Optional: the offending config key
	Err     error
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("dialect: %s: invalid config %q: %v", e.Dialect, e.Key, e.Err)
	}
	return fmt.Sprintf("dialect: %s: %v", e.Dialect, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}
