// Package ids generates identifiers for render jobs.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns prefix_<uuid without dashes>.
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Short returns n random hex characters, at most 32.
func Short(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n <= 0 || n > len(s) {
		return s
	}
	return s[:n]
}
