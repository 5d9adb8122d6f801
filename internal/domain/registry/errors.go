package registry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is wrapped by every configuration failure.
var ErrConfiguration = errors.New("registry: invalid model configuration")

// ConfigurationError reports an unknown, misconfigured or incompatible model
// selection.
type ConfigurationError struct {
	Role      string
	Name      string
	Available []string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "registry: %s %q", e.Role, e.Name)
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if len(e.Available) > 0 {
		fmt.Fprintf(&b, " (available: %s)", strings.Join(e.Available, ", "))
	}
	return b.String()
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
