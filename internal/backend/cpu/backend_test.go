package cpu

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relay-ml/relay/internal/tensor"
)

func fromFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromFloat32(data, shape)
	require.NoError(t, err)
	return raw
}

func TestAddSameShape(t *testing.T) {
	backend := New()
	a := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	result := backend.Add(a, b)

	assert.Equal(t, []float32{11, 22, 33, 44}, result.AsFloat32())
}

func TestAddBroadcastBias(t *testing.T) {
	backend := New()
	// (1,2,2,2) + (2,1,1): per-channel bias, the Conv bias pattern.
	x := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{1, 2, 2, 2})
	bias := fromFloat32(t, []float32{10, 20}, tensor.Shape{2, 1, 1})

	result := backend.Add(x, bias)

	require.True(t, result.Shape().Equal(tensor.Shape{1, 2, 2, 2}))
	assert.Equal(t, []float32{11, 12, 13, 14, 25, 26, 27, 28}, result.AsFloat32())
}

func TestAddIncompatibleShapes(t *testing.T) {
	backend := New()
	a := fromFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})
	b := fromFloat32(t, []float32{1, 2}, tensor.Shape{2})

	assert.Panics(t, func() { backend.Add(a, b) })
}

func TestMulScalar(t *testing.T) {
	backend := New()
	x := fromFloat32(t, []float32{1, -2, 3}, tensor.Shape{3})

	result := backend.MulScalar(x, 0.5)

	assert.Equal(t, []float32{0.5, -1, 1.5}, result.AsFloat32())
}

func TestMatMul(t *testing.T) {
	backend := New()
	a := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromFloat32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	result := backend.MatMul(a, b)

	require.True(t, result.Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float32{58, 64, 139, 154}, result.AsFloat32())
}

func TestMatMulDimensionMismatch(t *testing.T) {
	backend := New()
	a := fromFloat32(t, make([]float32, 6), tensor.Shape{2, 3})
	b := fromFloat32(t, make([]float32, 4), tensor.Shape{2, 2})

	assert.Panics(t, func() { backend.MatMul(a, b) })
}

func TestTranspose2D(t *testing.T) {
	backend := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	result := backend.Transpose(x)

	require.True(t, result.Shape().Equal(tensor.Shape{3, 2}))
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, result.AsFloat32())
}

func TestConv2DIdentityKernel(t *testing.T) {
	backend := New()
	// 1x1 kernel with weight 1 reproduces the input.
	input := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := fromFloat32(t, []float32{1}, tensor.Shape{1, 1, 1, 1})

	result := backend.Conv2D(input, kernel, 1, 0)

	require.True(t, result.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{1, 2, 3, 4}, result.AsFloat32())
}

func TestConv2DKnownValues(t *testing.T) {
	backend := New()
	// 3x3 input, 2x2 all-ones kernel, stride 1, no padding:
	// each output is the sum of a 2x2 window.
	input := fromFloat32(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3})
	kernel := fromFloat32(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	result := backend.Conv2D(input, kernel, 1, 0)

	require.True(t, result.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	want := []float32{12, 16, 24, 28}
	assert.Empty(t, cmp.Diff(want, result.AsFloat32(), cmpopts.EquateApprox(0, 1e-6)))
}

func TestConv2DStrideAndPadding(t *testing.T) {
	backend := New()
	input := fromFloat32(t, []float32{
		1, 2,
		3, 4,
	}, tensor.Shape{1, 1, 2, 2})
	kernel := fromFloat32(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	// Padding 1, stride 2: windows at the four corners.
	result := backend.Conv2D(input, kernel, 2, 1)

	require.True(t, result.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{1, 2, 3, 4}, result.AsFloat32())
}

func TestConv2DMultiChannel(t *testing.T) {
	backend := New()
	// Two input channels summed by a single 1x1 kernel.
	input := fromFloat32(t, []float32{
		1, 2, 3, 4, // channel 0
		10, 20, 30, 40, // channel 1
	}, tensor.Shape{1, 2, 2, 2})
	kernel := fromFloat32(t, []float32{1, 1}, tensor.Shape{1, 2, 1, 1})

	result := backend.Conv2D(input, kernel, 1, 0)

	require.True(t, result.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{11, 22, 33, 44}, result.AsFloat32())
}

func TestMaxPool2D(t *testing.T) {
	backend := New()
	input := fromFloat32(t, []float32{
		1, 3, 2, 4,
		5, 7, 6, 8,
		9, 11, 10, 12,
		13, 15, 14, 16,
	}, tensor.Shape{1, 1, 4, 4})

	result := backend.MaxPool2D(input, 2, 2, 0)

	require.True(t, result.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{7, 8, 15, 16}, result.AsFloat32())
}

func TestMaxPool2DPadding(t *testing.T) {
	backend := New()
	input := fromFloat32(t, []float32{
		-1, -2,
		-3, -4,
	}, tensor.Shape{1, 1, 2, 2})

	// Padding positions must be ignored, not treated as zero: all values are
	// negative and must survive pooling.
	result := backend.MaxPool2D(input, 2, 2, 1)

	require.True(t, result.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{-1, -2, -3, -4}, result.AsFloat32())
}

func TestAveragePool2D(t *testing.T) {
	backend := New()
	input := fromFloat32(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, tensor.Shape{1, 1, 4, 4})

	result := backend.AveragePool2D(input, 2, 2, 0)

	require.True(t, result.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{3.5, 5.5, 11.5, 13.5}, result.AsFloat32())
}

func TestAveragePool2DPaddingDivisor(t *testing.T) {
	backend := New()
	input := fromFloat32(t, []float32{
		4, 8,
		12, 16,
	}, tensor.Shape{1, 1, 2, 2})

	// With padding 1 and stride 2, each window covers exactly one in-bounds
	// element; the divisor counts in-bounds positions only.
	result := backend.AveragePool2D(input, 2, 2, 1)

	require.True(t, result.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{4, 8, 12, 16}, result.AsFloat32())
}

func TestReshape(t *testing.T) {
	backend := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	result := backend.Reshape(x, tensor.Shape{3, 2})

	require.True(t, result.Shape().Equal(tensor.Shape{3, 2}))
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, result.AsFloat32())
}
