package operators

import (
	"fmt"

	"github.com/relay-ml/relay/internal/tensor"
)

// registerActivations adds activation operators to the registry.
func (r *Registry) registerActivations() {
	r.Register("Relu", handleRelu)
	r.Register("Softmax", handleSoftmax)
}

func handleRelu(_ *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("relu requires 1 input, got %d", len(inputs))
	}
	result, err := tensor.ReLU(inputs[0])
	if err != nil {
		return nil, fmt.Errorf("relu: %w", err)
	}
	return []*tensor.RawTensor{result}, nil
}

func handleSoftmax(_ *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("softmax requires 1 input, got %d", len(inputs))
	}
	axis := int(GetAttrInt(node, "axis", 1))
	result, err := tensor.Softmax(inputs[0], axis)
	if err != nil {
		return nil, fmt.Errorf("softmax: %w", err)
	}
	return []*tensor.RawTensor{result}, nil
}
