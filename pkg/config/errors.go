package config

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the sentinel wrapped by every ConfigurationError.
var ErrConfiguration = errors.New("invalid configuration")

// ConfigurationError reports a required configuration value that is absent or
// malformed. It is raised before any check runs and never becomes a
// diagnostic.
type ConfigurationError struct {
	Scope   string // "main" or "translation", empty for file-level errors
	Key     string // configuration key, e.g. "severities.aff_country"
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	key := e.Key
	if e.Scope != "" {
		key = e.Scope + ": " + key
	}
	if key != "" {
		return fmt.Sprintf("configuration %s: %s", key, msg)
	}
	return "configuration: " + msg
}

func (e *ConfigurationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConfiguration
}

// Is makes errors.Is(err, ErrConfiguration) hold even when Err is set.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
