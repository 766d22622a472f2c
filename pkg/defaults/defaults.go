// Package defaults carries the rule document shipped with the binary.
package defaults

import _ "embed"

//go:embed default.json
var configJSON string

// ConfigString returns the bundled default rule document.
func ConfigString() string {
	return configJSON
}
