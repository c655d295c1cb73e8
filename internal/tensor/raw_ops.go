package tensor

import (
	"fmt"
	"math"
)

// ReLU applies the ReLU activation function element-wise: max(x, 0).
func ReLU(x *RawTensor) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("ReLU: input tensor is nil")
	}
	result, err := NewRaw(x.shape, x.dtype, x.device)
	if err != nil {
		return nil, fmt.Errorf("ReLU: %w", err)
	}

	switch x.dtype {
	case Float32:
		in := x.AsFloat32()
		out := result.AsFloat32()
		for i := range in {
			if in[i] > 0 {
				out[i] = in[i]
			}
		}
	case Float64:
		in := x.AsFloat64()
		out := result.AsFloat64()
		for i := range in {
			if in[i] > 0 {
				out[i] = in[i]
			}
		}
	default:
		return nil, fmt.Errorf("ReLU: unsupported dtype %v", x.dtype)
	}
	return result, nil
}

// Softmax computes softmax along the specified axis with max-subtraction for
// numerical stability.
func Softmax(x *RawTensor, axis int) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("Softmax: input tensor is nil")
	}

	if axis < 0 {
		axis = len(x.shape) + axis
	}
	if axis < 0 || axis >= len(x.shape) {
		return nil, fmt.Errorf("Softmax: axis %d out of range for tensor with %d dimensions", axis, len(x.shape))
	}

	result, err := NewRaw(x.shape, x.dtype, x.device)
	if err != nil {
		return nil, fmt.Errorf("Softmax: %w", err)
	}

	switch x.dtype {
	case Float32:
		softmaxFloat32(x.AsFloat32(), result.AsFloat32(), x.shape, axis)
	default:
		return nil, fmt.Errorf("Softmax: unsupported dtype %v", x.dtype)
	}
	return result, nil
}

func softmaxFloat32(in, out []float32, shape Shape, axis int) {
	outerSize := 1
	for i := 0; i < axis; i++ {
		outerSize *= shape[i]
	}
	axisSize := shape[axis]
	innerSize := 1
	for i := axis + 1; i < len(shape); i++ {
		innerSize *= shape[i]
	}

	for outer := 0; outer < outerSize; outer++ {
		for inner := 0; inner < innerSize; inner++ {
			// Find max for numerical stability
			maxVal := float32(-math.MaxFloat32)
			for a := 0; a < axisSize; a++ {
				idx := outer*axisSize*innerSize + a*innerSize + inner
				if in[idx] > maxVal {
					maxVal = in[idx]
				}
			}
			// Compute exp and sum
			sum := float32(0)
			for a := 0; a < axisSize; a++ {
				idx := outer*axisSize*innerSize + a*innerSize + inner
				out[idx] = float32(math.Exp(float64(in[idx] - maxVal)))
				sum += out[idx]
			}
			// Normalize
			for a := 0; a < axisSize; a++ {
				idx := outer*axisSize*innerSize + a*innerSize + inner
				out[idx] /= sum
			}
		}
	}
}

// Flatten reshapes the tensor into 2D, collapsing dimensions before axis
// into the first dimension and the rest into the second.
func Flatten(x *RawTensor, axis int) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("Flatten: input tensor is nil")
	}
	if axis < 0 {
		axis = len(x.shape) + axis
	}
	if axis < 0 || axis > len(x.shape) {
		return nil, fmt.Errorf("Flatten: axis %d out of range for tensor with %d dimensions", axis, len(x.shape))
	}

	rows := 1
	for i := 0; i < axis; i++ {
		rows *= x.shape[i]
	}
	cols := 1
	for i := axis; i < len(x.shape); i++ {
		cols *= x.shape[i]
	}
	return x.WithShape(Shape{rows, cols})
}

// Reshape returns a view of the tensor with a new shape.
// Element count must be preserved.
func Reshape(x *RawTensor, newShape Shape) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("Reshape: input tensor is nil")
	}
	result, err := x.WithShape(newShape)
	if err != nil {
		return nil, fmt.Errorf("Reshape: %w", err)
	}
	return result, nil
}
