package operators

import (
	"fmt"

	"github.com/relay-ml/relay/internal/tensor"
)

// registerShapeOps adds shape manipulation operators to the registry.
func (r *Registry) registerShapeOps() {
	r.Register("Reshape", handleReshape)
	r.Register("Flatten", handleFlatten)
}

func handleReshape(_ *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("reshape requires 2 inputs (data, shape), got %d", len(inputs))
	}

	shapeData := inputs[1].AsInt64()
	newShape := make(tensor.Shape, len(shapeData))
	inferIdx := -1
	known := 1
	for i, v := range shapeData {
		switch {
		case v == -1:
			if inferIdx >= 0 {
				return nil, fmt.Errorf("reshape: more than one -1 in shape %v", shapeData)
			}
			inferIdx = i
		case v == 0:
			// Copy the corresponding input dim.
			if i >= len(inputs[0].Shape()) {
				return nil, fmt.Errorf("reshape: cannot copy dim %d from shape %v", i, inputs[0].Shape())
			}
			newShape[i] = inputs[0].Shape()[i]
			known *= newShape[i]
		default:
			newShape[i] = int(v)
			known *= newShape[i]
		}
	}
	if inferIdx >= 0 {
		total := inputs[0].NumElements()
		if known == 0 || total%known != 0 {
			return nil, fmt.Errorf("reshape: cannot infer dim for %v from %d elements", shapeData, total)
		}
		newShape[inferIdx] = total / known
	}

	result, err := tensor.Reshape(inputs[0], newShape)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	return []*tensor.RawTensor{result}, nil
}

func handleFlatten(_ *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("flatten requires 1 input, got %d", len(inputs))
	}

	axis := int(GetAttrInt(node, "axis", 1))

	result, err := tensor.Flatten(inputs[0], axis)
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}
	return []*tensor.RawTensor{result}, nil
}
