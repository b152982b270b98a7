package internal

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random UUID in simple form (32 lowercase hex characters
// without hyphens), the format used for instruction and message identifiers.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
