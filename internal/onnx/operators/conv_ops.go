package operators

import (
	"fmt"

	"github.com/relay-ml/relay/internal/tensor"
)

// registerConvOps adds convolution and pooling operators to the registry.
func (r *Registry) registerConvOps() {
	r.Register("Conv", handleConv)
	r.Register("MaxPool", handleMaxPool)
	r.Register("AveragePool", handleAveragePool)
	r.Register("GlobalAveragePool", handleGlobalAveragePool)
}

// uniformInt collapses a symmetric attribute list (strides, pads,
// kernel_shape) to a single value. The CPU backend operates on square
// windows, so asymmetric values are rejected.
func uniformInt(vals []int64, defaultVal int) (int, error) {
	if len(vals) == 0 {
		return defaultVal, nil
	}
	first := vals[0]
	for _, v := range vals[1:] {
		if v != first {
			return 0, fmt.Errorf("asymmetric values %v not supported", vals)
		}
	}
	return int(first), nil
}

func handleConv(ctx *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("conv requires at least 2 inputs (X, W), got %d", len(inputs))
	}

	stride, err := uniformInt(GetAttrInts(node, "strides"), 1)
	if err != nil {
		return nil, fmt.Errorf("conv strides: %w", err)
	}
	pad, err := uniformInt(GetAttrInts(node, "pads"), 0)
	if err != nil {
		return nil, fmt.Errorf("conv pads: %w", err)
	}
	if group := GetAttrInt(node, "group", 1); group != 1 {
		return nil, fmt.Errorf("conv group %d not supported", group)
	}

	result := ctx.Backend.Conv2D(inputs[0], inputs[1], stride, pad)

	if len(inputs) >= 3 && inputs[2] != nil {
		bias := inputs[2]
		if len(bias.Shape()) != 1 {
			return nil, fmt.Errorf("conv bias must be 1D, got shape %v", bias.Shape())
		}
		b := ctx.Backend.Reshape(bias, tensor.Shape{bias.Shape()[0], 1, 1})
		result = ctx.Backend.Add(result, b)
	}

	return []*tensor.RawTensor{result}, nil
}

func handleMaxPool(ctx *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("maxPool requires 1 input, got %d", len(inputs))
	}

	kernel, err := uniformInt(GetAttrInts(node, "kernel_shape"), 0)
	if err != nil {
		return nil, fmt.Errorf("maxPool kernel_shape: %w", err)
	}
	if kernel <= 0 {
		return nil, fmt.Errorf("maxPool requires kernel_shape")
	}
	stride, err := uniformInt(GetAttrInts(node, "strides"), 1)
	if err != nil {
		return nil, fmt.Errorf("maxPool strides: %w", err)
	}
	pad, err := uniformInt(GetAttrInts(node, "pads"), 0)
	if err != nil {
		return nil, fmt.Errorf("maxPool pads: %w", err)
	}

	result := ctx.Backend.MaxPool2D(inputs[0], kernel, stride, pad)
	return []*tensor.RawTensor{result}, nil
}

func handleAveragePool(ctx *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("averagePool requires 1 input, got %d", len(inputs))
	}

	kernel, err := uniformInt(GetAttrInts(node, "kernel_shape"), 0)
	if err != nil {
		return nil, fmt.Errorf("averagePool kernel_shape: %w", err)
	}
	if kernel <= 0 {
		return nil, fmt.Errorf("averagePool requires kernel_shape")
	}
	stride, err := uniformInt(GetAttrInts(node, "strides"), 1)
	if err != nil {
		return nil, fmt.Errorf("averagePool strides: %w", err)
	}
	pad, err := uniformInt(GetAttrInts(node, "pads"), 0)
	if err != nil {
		return nil, fmt.Errorf("averagePool pads: %w", err)
	}

	result := ctx.Backend.AveragePool2D(inputs[0], kernel, stride, pad)
	return []*tensor.RawTensor{result}, nil
}

func handleGlobalAveragePool(ctx *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("globalAveragePool requires 1 input, got %d", len(inputs))
	}
	shape := inputs[0].Shape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("globalAveragePool requires 4D input, got %dD", len(shape))
	}
	if shape[2] != shape[3] {
		return nil, fmt.Errorf("globalAveragePool requires square spatial dims, got %v", shape)
	}

	result := ctx.Backend.AveragePool2D(inputs[0], shape[2], 1, 0)
	return []*tensor.RawTensor{result}, nil
}
