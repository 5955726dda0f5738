// Package id creates identifiers for sessions.
package id

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces identifiers.
type Generator func() string

// New generates a new random session ID.
func New() string {
	return uuid.NewString()
}

// Sequence returns a generator yielding prefix-1, prefix-2, and so on.
func Sequence(prefix string) Generator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
