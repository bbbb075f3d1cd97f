// Package identity resolves who a logbook entry is attributed to.
package identity

import (
	"errors"
	"os"
	"strings"
)

// EnvVar names the environment variable consulted when no explicit
// identity is given.
const EnvVar = "HELM_IDENTITY"

// ErrUnresolved means no identity could be determined from any source.
var ErrUnresolved = errors.New("no identity: pass --as, set " + EnvVar + ", or set identity in the config file")

// Resolve picks the identity to record, in precedence order: the explicit
// value (from --as), the HELM_IDENTITY environment variable, then the
// config default. Whitespace-only values are treated as unset.
func Resolve(explicit, configDefault string) (string, error) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(EnvVar)); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(configDefault); v != "" {
		return v, nil
	}
	return "", ErrUnresolved
}
