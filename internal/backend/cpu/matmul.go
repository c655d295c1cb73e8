package cpu

import (
	"fmt"

	"github.com/relay-ml/relay/internal/tensor"
)

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] -> [M, N].
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: requires 2D tensors, got %dD and %dD", len(aShape), len(bShape)))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch: %v @ %v", aShape, bShape))
	}
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("matmul: unsupported dtypes %s, %s", a.DType(), b.DType()))
	}

	M := aShape[0]
	K := aShape[1]
	N := bShape[1]

	result, err := tensor.NewRaw(tensor.Shape{M, N}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	av := a.AsFloat32()
	bv := b.AsFloat32()
	out := result.AsFloat32()

	// ikj loop order keeps the inner loop sequential over both b and out.
	for i := 0; i < M; i++ {
		for k := 0; k < K; k++ {
			aik := av[i*K+k]
			if aik == 0 {
				continue
			}
			bRow := bv[k*N : (k+1)*N]
			outRow := out[i*N : (i+1)*N]
			for j := 0; j < N; j++ {
				outRow[j] += aik * bRow[j]
			}
		}
	}

	return result
}
