// Package guid provides the default GUID generator used when a registry
// enables GUID assignment without injecting its own.
package guid

import "github.com/google/uuid"

// New mints a GUID of the form "<prefix>_<uuid>". The prefix carries no
// meaning beyond making the origin of an identifier recognizable; only
// uniqueness is load-bearing.
func New(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "_" + uuid.NewString()
}
