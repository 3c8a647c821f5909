package config

import (
	"fmt"
	"strings"
)

// ValidationError reports configuration inputs that are missing or invalid
// at startup. It is fatal: the process refuses to start rather than run
// degraded with a partial provider configuration.
type ValidationError struct {
	// Missing lists required inputs that were not supplied.
	Missing []string

	// Invalid maps supplied inputs to the reason they were rejected.
	Invalid map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", ")))
	}
	for field, reason := range e.Invalid {
		parts = append(parts, fmt.Sprintf("invalid %s: %s", field, reason))
	}
	if len(parts) == 0 {
		return "configuration error"
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

func (e *ValidationError) addMissing(field string) {
	e.Missing = append(e.Missing, field)
}

func (e *ValidationError) addInvalid(field, reason string) {
	if e.Invalid == nil {
		e.Invalid = make(map[string]string)
	}
	e.Invalid[field] = reason
}
