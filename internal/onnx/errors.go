package onnx

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNoGraph        = errors.New("model has no graph")
	ErrNoGraphName    = errors.New("graph has no name")
	ErrDanglingInput  = errors.New("node input has no producer")
	ErrBadElemType    = errors.New("unsupported element type")
	ErrBadDimension   = errors.New("dimension must be positive")
	ErrShapeMismatch  = errors.New("declared shape disagrees with tensor data")
	ErrMissingOutput  = errors.New("graph output is not produced")
	ErrDuplicateValue = errors.New("duplicate value name")
	ErrEmptyName      = errors.New("value has no name")
)

// ValidationError provides detailed information about model validation
// failures. It wraps one of the sentinel errors above.
type ValidationError struct {
	Kind  error  // Sentinel describing the failure class
	Value string // Tensor or value name involved (may be empty)
	Node  string // Node name involved (may be empty)
	Field string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.Node != "" && e.Value != "":
		return fmt.Sprintf("node %q: value %q: %s: %s", e.Node, e.Value, e.Kind, e.Field)
	case e.Value != "":
		return fmt.Sprintf("value %q: %s: %s", e.Value, e.Kind, e.Field)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
}

// Unwrap exposes the sentinel for errors.Is checks.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}
