package simerrors

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an invalid static parameter, detected when a model is constructed.
type ConfigurationError struct {
	Component string  // the model that rejected the parameter, e.g. "solar" or "inverter"
	Field     string  // the name of the offending parameter
	Value     float64 // the rejected value
	Reason    string  // human readable constraint that was violated
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid %s (%v): %s", e.Component, e.Field, e.Value, e.Reason)
}

// NewConfigurationError returns a ConfigurationError for the given component and field.
func NewConfigurationError(component, field string, value float64, reason string) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Field:     field,
		Value:     value,
		Reason:    reason,
	}
}

// IsConfigurationError returns true if err, or any error it wraps, is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
