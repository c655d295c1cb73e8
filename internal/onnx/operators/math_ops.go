package operators

import (
	"fmt"

	"github.com/relay-ml/relay/internal/tensor"
)

// registerMathOps adds math operators to the registry.
func (r *Registry) registerMathOps() {
	r.Register("Add", handleAdd)
	r.Register("MatMul", handleMatMul)
	r.Register("Gemm", handleGemm)
	r.Register("Sum", handleSum)
}

func handleAdd(ctx *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("add requires 2 inputs, got %d", len(inputs))
	}
	result := ctx.Backend.Add(inputs[0], inputs[1])
	return []*tensor.RawTensor{result}, nil
}

func handleMatMul(ctx *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("matMul requires 2 inputs, got %d", len(inputs))
	}
	result := ctx.Backend.MatMul(inputs[0], inputs[1])
	return []*tensor.RawTensor{result}, nil
}

// handleGemm implements General Matrix Multiplication: Y = alpha*A*B + beta*C.
// A is flattened to 2D at axis 1 when it carries more dimensions, so Gemm can
// follow a Conv/Pool stack directly.
func handleGemm(ctx *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("gemm requires at least 2 inputs, got %d", len(inputs))
	}

	alpha := GetAttrFloat(node, "alpha", 1.0)
	beta := GetAttrFloat(node, "beta", 1.0)
	transA := GetAttrInt(node, "transA", 0) != 0
	transB := GetAttrInt(node, "transB", 0) != 0

	a := inputs[0]
	b := inputs[1]

	if len(a.Shape()) > 2 {
		flat, err := tensor.Flatten(a, 1)
		if err != nil {
			return nil, fmt.Errorf("gemm: %w", err)
		}
		a = flat
	}

	if transA {
		a = ctx.Backend.Transpose(a)
	}
	if transB {
		b = ctx.Backend.Transpose(b)
	}

	result := ctx.Backend.MatMul(a, b)

	if alpha != 1.0 {
		result = ctx.Backend.MulScalar(result, alpha)
	}

	if len(inputs) >= 3 && inputs[2] != nil && beta != 0 {
		c := inputs[2]
		if beta != 1.0 {
			c = ctx.Backend.MulScalar(c, beta)
		}
		result = ctx.Backend.Add(result, c)
	}

	return []*tensor.RawTensor{result}, nil
}

func handleSum(ctx *Context, _ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("sum requires at least 1 input")
	}
	result := inputs[0]
	for i := 1; i < len(inputs); i++ {
		result = ctx.Backend.Add(result, inputs[i])
	}
	return []*tensor.RawTensor{result}, nil
}
