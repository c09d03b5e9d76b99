package state

import (
	"github.com/google/uuid"
)

// NewID returns a fresh object identifier prefixed with its kind.
func NewID(k Kind) string {
	return string(k) + "-" + uuid.NewString()
}
