package predictor

import (
	"fmt"

	"github.com/relay-ml/relay/internal/netdef"
	"github.com/relay-ml/relay/internal/tensor"
)

// opContext carries execution state for operator handlers.
type opContext struct {
	backend tensor.Backend
}

// opHandler executes one legacy operator.
type opHandler func(ctx *opContext, op *netdef.OperatorDef, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error)

// legacyOps maps legacy operator types to handlers.
var legacyOps = map[string]opHandler{
	"Conv":        handleConv,
	"Relu":        handleRelu,
	"MaxPool":     handleMaxPool,
	"AveragePool": handleAveragePool,
	"FC":          handleFC,
	"Sum":         handleSum,
	"Softmax":     handleSoftmax,
	"Dropout":     handleDropout,
	"Flatten":     handleFlatten,
}

// SupportedOps returns the legacy operator types the predictor can execute.
func SupportedOps() []string {
	ops := make([]string, 0, len(legacyOps))
	for op := range legacyOps {
		ops = append(ops, op)
	}
	return ops
}

func execOp(ctx *opContext, op *netdef.OperatorDef, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	handler, ok := legacyOps[op.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported operator: %s", op.Type)
	}
	return handler(ctx, op, inputs)
}

func handleConv(ctx *opContext, op *netdef.OperatorDef, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("conv requires at least 2 inputs (X, W), got %d", len(inputs))
	}
	stride := int(netdef.GetArgInt(op, "stride", 1))
	pad := int(netdef.GetArgInt(op, "pad", 0))

	result := ctx.backend.Conv2D(inputs[0], inputs[1], stride, pad)

	if len(inputs) >= 3 {
		bias := inputs[2]
		if len(bias.Shape()) != 1 {
			return nil, fmt.Errorf("conv bias must be 1D, got shape %v", bias.Shape())
		}
		// Reshape (C) -> (C,1,1) so broadcasting aligns with NCHW.
		b := ctx.backend.Reshape(bias, tensor.Shape{bias.Shape()[0], 1, 1})
		result = ctx.backend.Add(result, b)
	}
	return []*tensor.RawTensor{result}, nil
}

func handleRelu(_ *opContext, _ *netdef.OperatorDef, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("relu requires 1 input, got %d", len(inputs))
	}
	result, err := tensor.ReLU(inputs[0])
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{result}, nil
}

func handleMaxPool(ctx *opContext, op *netdef.OperatorDef, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("maxpool requires 1 input, got %d", len(inputs))
	}
	kernel := int(netdef.GetArgInt(op, "kernel", 0))
	stride := int(netdef.GetArgInt(op, "stride", 1))
	pad := int(netdef.GetArgInt(op, "pad", 0))
	if kernel <= 0 {
		return nil, fmt.Errorf("maxpool requires a positive kernel argument")
	}
	result := ctx.backend.MaxPool2D(inputs[0], kernel, stride, pad)
	return []*tensor.RawTensor{result}, nil
}

func handleAveragePool(ctx *opContext, op *netdef.OperatorDef, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("averagepool requires 1 input, got %d", len(inputs))
	}
	shape := inputs[0].Shape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("averagepool requires 4D input, got %dD", len(shape))
	}

	if netdef.GetArgInt(op, "global_pooling", 0) != 0 {
		if shape[2] != shape[3] {
			return nil, fmt.Errorf("global averagepool requires square spatial dims, got %v", shape)
		}
		result := ctx.backend.AveragePool2D(inputs[0], shape[2], 1, 0)
		return []*tensor.RawTensor{result}, nil
	}

	kernel := int(netdef.GetArgInt(op, "kernel", 0))
	stride := int(netdef.GetArgInt(op, "stride", 1))
	pad := int(netdef.GetArgInt(op, "pad", 0))
	if kernel <= 0 {
		return nil, fmt.Errorf("averagepool requires a positive kernel argument")
	}
	result := ctx.backend.AveragePool2D(inputs[0], kernel, stride, pad)
	return []*tensor.RawTensor{result}, nil
}

// handleFC computes Y = X @ W^T + b, flattening X to 2D first.
// W is stored as [out_features, in_features], matching the legacy layout.
func handleFC(ctx *opContext, _ *netdef.OperatorDef, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 3 {
		return nil, fmt.Errorf("fc requires 3 inputs (X, W, b), got %d", len(inputs))
	}
	x, err := tensor.Flatten(inputs[0], 1)
	if err != nil {
		return nil, fmt.Errorf("fc: %w", err)
	}
	w := inputs[1]
	if len(w.Shape()) != 2 {
		return nil, fmt.Errorf("fc weight must be 2D, got shape %v", w.Shape())
	}
	if x.Shape()[1] != w.Shape()[1] {
		return nil, fmt.Errorf("fc: input features %d != weight features %d", x.Shape()[1], w.Shape()[1])
	}

	result := ctx.backend.MatMul(x, ctx.backend.Transpose(w))
	result = ctx.backend.Add(result, inputs[2])
	return []*tensor.RawTensor{result}, nil
}

func handleSum(ctx *opContext, _ *netdef.OperatorDef, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("sum requires at least 1 input")
	}
	result := inputs[0]
	for i := 1; i < len(inputs); i++ {
		result = ctx.backend.Add(result, inputs[i])
	}
	return []*tensor.RawTensor{result}, nil
}

func handleSoftmax(_ *opContext, op *netdef.OperatorDef, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("softmax requires 1 input, got %d", len(inputs))
	}
	axis := int(netdef.GetArgInt(op, "axis", 1))
	result, err := tensor.Softmax(inputs[0], axis)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{result}, nil
}

// handleDropout is an identity at inference time.
func handleDropout(_ *opContext, _ *netdef.OperatorDef, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("dropout requires 1 input, got %d", len(inputs))
	}
	return []*tensor.RawTensor{inputs[0]}, nil
}

func handleFlatten(_ *opContext, op *netdef.OperatorDef, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("flatten requires 1 input, got %d", len(inputs))
	}
	axis := int(netdef.GetArgInt(op, "axis", 1))
	result, err := tensor.Flatten(inputs[0], axis)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{result}, nil
}
