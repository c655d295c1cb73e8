// Package tensor is the public facade over the core tensor types.
//
// Both the legacy predictor and the interchange model runner operate on
// RawTensor values through a shared Backend, which is what guarantees that a
// converted model reproduces the original network's outputs.
package tensor

import (
	"github.com/relay-ml/relay/internal/tensor"
)

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// DataType represents runtime type information for tensors.
type DataType = tensor.DataType

// Supported data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Int32   = tensor.Int32
	Int64   = tensor.Int64
)

// Device represents the compute device for tensor operations.
type Device = tensor.Device

// CPU is the only supported device.
const CPU = tensor.CPU

// RawTensor is the low-level tensor representation: a flat byte buffer with
// shape, stride and runtime type information.
type RawTensor = tensor.RawTensor

// Backend defines the tensor operations a compute device must provide.
type Backend = tensor.Backend

// NewRaw creates a zero-initialized RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromFloat32 creates a Float32 RawTensor holding a copy of the given data.
func FromFloat32(data []float32, shape Shape) (*RawTensor, error) {
	return tensor.FromFloat32(data, shape)
}

// Zeros creates a zero-filled RawTensor.
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.Zeros(shape, dtype)
}
