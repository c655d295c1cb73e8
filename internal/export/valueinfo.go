package export

import (
	"github.com/relay-ml/relay/internal/onnx"
	"github.com/relay-ml/relay/internal/tensor"
)

// ValueInfo describes the type and shape of a graph value. Legacy net
// definitions do not carry this information, so the caller supplies it for
// every non-weight external input.
type ValueInfo struct {
	DType tensor.DataType
	Shape tensor.Shape
}

// toProto builds the wire form of a named value declaration.
func (vi ValueInfo) toProto(name string) onnx.ValueInfoProto {
	dims := make([]onnx.DimensionProto, len(vi.Shape))
	for i, d := range vi.Shape {
		dims[i] = onnx.DimensionProto{DimValue: int64(d)}
	}
	return onnx.ValueInfoProto{
		Name: name,
		Type: &onnx.TypeProto{
			TensorType: &onnx.TensorTypeProto{
				ElemType: onnx.DataTypeToElemType(vi.DType),
				Shape:    &onnx.TensorShapeProto{Dims: dims},
			},
		},
	}
}

// tensorValueInfo derives a ValueInfo from an existing tensor.
func tensorValueInfo(t *tensor.RawTensor) ValueInfo {
	return ValueInfo{DType: t.DType(), Shape: t.Shape()}
}
