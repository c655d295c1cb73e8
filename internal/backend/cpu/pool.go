package cpu

import (
	"fmt"
	"math"

	"github.com/relay-ml/relay/internal/parallel"
	"github.com/relay-ml/relay/internal/tensor"
)

// MaxPool2D performs 2D max pooling over NCHW input.
// Padding positions are ignored when searching for the maximum.
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	return cpu.pool2d("maxpool2d", input, kernelSize, stride, padding, maxPoolWindow)
}

// AveragePool2D performs 2D average pooling over NCHW input.
// The divisor counts only in-bounds positions (padding excluded).
func (cpu *CPUBackend) AveragePool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	return cpu.pool2d("averagepool2d", input, kernelSize, stride, padding, averagePoolWindow)
}

type poolFunc func(in []float32, H, W, hStart, wStart, kernelSize int) float32

func (cpu *CPUBackend) pool2d(name string, input *tensor.RawTensor, kernelSize, stride, padding int, fn poolFunc) *tensor.RawTensor {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("%s: input must be 4D [N,C,H,W], got %dD", name, len(shape)))
	}
	if input.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, input.DType()))
	}
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("%s: kernel size %d and stride %d must be positive", name, kernelSize, stride))
	}

	N := shape[0]
	C := shape[1]
	H := shape[2]
	W := shape[3]

	HOut := (H+2*padding-kernelSize)/stride + 1
	WOut := (W+2*padding-kernelSize)/stride + 1
	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("%s: invalid output dimensions: out_h=%d, out_w=%d", name, HOut, WOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{N, C, HOut, WOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	in := input.AsFloat32()
	out := output.AsFloat32()

	// Each (batch, channel) plane is independent.
	parallel.ForBatch(N, C, func(n, c int) {
		plane := in[(n*C+c)*H*W : (n*C+c+1)*H*W]
		outPlane := out[(n*C+c)*HOut*WOut : (n*C+c+1)*HOut*WOut]
		for oh := 0; oh < HOut; oh++ {
			for ow := 0; ow < WOut; ow++ {
				hStart := oh*stride - padding
				wStart := ow*stride - padding
				outPlane[oh*WOut+ow] = fn(plane, H, W, hStart, wStart, kernelSize)
			}
		}
	}, parallel.DefaultConfig())

	return output
}

func maxPoolWindow(in []float32, H, W, hStart, wStart, kernelSize int) float32 {
	maxVal := float32(math.Inf(-1))
	for kh := 0; kh < kernelSize; kh++ {
		for kw := 0; kw < kernelSize; kw++ {
			h := hStart + kh
			w := wStart + kw
			if h < 0 || h >= H || w < 0 || w >= W {
				continue
			}
			if v := in[h*W+w]; v > maxVal {
				maxVal = v
			}
		}
	}
	return maxVal
}

func averagePoolWindow(in []float32, H, W, hStart, wStart, kernelSize int) float32 {
	sum := float32(0)
	count := 0
	for kh := 0; kh < kernelSize; kh++ {
		for kw := 0; kw < kernelSize; kw++ {
			h := hStart + kh
			w := wStart + kw
			if h < 0 || h >= H || w < 0 || w >= W {
				continue
			}
			sum += in[h*W+w]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float32(count)
}
