package operators

import (
	"fmt"

	"github.com/relay-ml/relay/internal/tensor"
)

// registerUtilityOps adds utility operators to the registry.
func (r *Registry) registerUtilityOps() {
	r.Register("Identity", handleIdentity)
	r.Register("Dropout", handleDropout)
}

func handleIdentity(_ *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("identity requires 1 input, got %d", len(inputs))
	}
	return inputs, nil
}

// handleDropout passes through at inference time. The optional mask output
// is not produced.
func handleDropout(_ *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) < 1 {
		return nil, fmt.Errorf("dropout requires at least 1 input, got %d", len(inputs))
	}
	return []*tensor.RawTensor{inputs[0]}, nil
}
