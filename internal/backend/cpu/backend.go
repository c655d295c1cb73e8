// Package cpu implements the pure-Go CPU compute backend.
package cpu

import (
	"fmt"

	"github.com/relay-ml/relay/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("add: %v", err))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("add: failed to create result tensor: %v", err))
	}

	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("add: unsupported dtypes %s, %s", a.DType(), b.DType()))
	}

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		addSameShape(result, a, b)
	} else {
		addWithBroadcast(result, a, b, outShape)
	}

	return result
}

func addSameShape(result, a, b *tensor.RawTensor) {
	out := result.AsFloat32()
	av := a.AsFloat32()
	bv := b.AsFloat32()
	for i := range out {
		out[i] = av[i] + bv[i]
	}
}

func addWithBroadcast(result, a, b *tensor.RawTensor, outShape tensor.Shape) {
	out := result.AsFloat32()
	av := a.AsFloat32()
	bv := b.AsFloat32()

	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()

	idx := make([]int, len(outShape))
	for i := range out {
		// Decompose flat index into multi-index
		rem := i
		for d := range outShape {
			idx[d] = rem / outStrides[d]
			rem %= outStrides[d]
		}
		aIdx, bIdx := 0, 0
		for d := range outShape {
			aIdx += idx[d] * aStrides[d]
			bIdx += idx[d] * bStrides[d]
		}
		out[i] = av[aIdx] + bv[bIdx]
	}
}

// broadcastStrides returns strides for indexing a tensor of shape `in` as if
// it had shape `out`: broadcast dimensions get stride 0.
func broadcastStrides(in, out tensor.Shape) []int {
	inStrides := in.ComputeStrides()
	strides := make([]int, len(out))
	offset := len(out) - len(in)
	for d := range out {
		if d < offset {
			strides[d] = 0
			continue
		}
		if in[d-offset] == 1 && out[d] != 1 {
			strides[d] = 0
		} else {
			strides[d] = inStrides[d-offset]
		}
	}
	return strides
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("mulScalar: unsupported dtype %s", x.DType()))
	}
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("mulScalar: %v", err))
	}
	in := x.AsFloat32()
	out := result.AsFloat32()
	for i := range in {
		out[i] = in[i] * scalar
	}
	return result
}

// Reshape returns a tensor with the same data but a different shape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result, err := tensor.Reshape(t, newShape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return result
}

// Transpose transposes the tensor by permuting its dimensions.
// With no axes given, all dimensions are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(newShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	in := t.AsFloat32()
	out := result.AsFloat32()
	inStrides := shape.ComputeStrides()
	outStrides := newShape.ComputeStrides()

	idx := make([]int, ndim)
	for i := range out {
		rem := i
		for d := 0; d < ndim; d++ {
			idx[d] = rem / outStrides[d]
			rem %= outStrides[d]
		}
		srcIdx := 0
		for d := 0; d < ndim; d++ {
			srcIdx += idx[d] * inStrides[axes[d]]
		}
		out[i] = in[srcIdx]
	}

	return result
}
