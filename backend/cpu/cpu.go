// Package cpu provides the pure Go CPU backend for tensor operations.
package cpu

import (
	internalcpu "github.com/relay-ml/relay/internal/backend/cpu"
	"github.com/relay-ml/relay/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return internalcpu.New()
}
