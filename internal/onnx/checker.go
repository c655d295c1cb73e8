package onnx

import (
	"fmt"

	"github.com/relay-ml/relay/internal/tensor"
)

// Check validates a model's structural integrity before it is written or
// executed. It verifies that:
//
//   - the model carries a graph with a non-empty name
//   - every value info declares a supported element type and positive,
//     static dimensions
//   - every initializer's data length matches its declared shape
//   - a weight declared as a graph input agrees with its initializer's
//     dims and element type
//   - every node input is produced by a graph input, an initializer, or
//     another node's output
//   - every graph output is produced by some node or initializer
//
// The first violation is returned as a *ValidationError.
func Check(model *ModelProto) error {
	if model == nil || model.Graph == nil {
		return &ValidationError{Kind: ErrNoGraph, Field: "nothing to validate"}
	}
	graph := model.Graph
	if graph.Name == "" {
		return &ValidationError{Kind: ErrNoGraphName, Field: "graph name must be set"}
	}

	for i := range graph.Inputs {
		if err := checkValueInfo(&graph.Inputs[i]); err != nil {
			return err
		}
	}
	for i := range graph.Outputs {
		if err := checkValueInfo(&graph.Outputs[i]); err != nil {
			return err
		}
	}
	for i := range graph.Initializers {
		if err := checkInitializer(&graph.Initializers[i]); err != nil {
			return err
		}
	}

	inputIdx := make(map[string]int, len(graph.Inputs))
	for i := range graph.Inputs {
		inputIdx[graph.Inputs[i].Name] = i
	}
	for i := range graph.Initializers {
		init := &graph.Initializers[i]
		idx, ok := inputIdx[init.Name]
		if !ok {
			continue
		}
		if err := checkInitializerDeclaration(&graph.Inputs[idx], init); err != nil {
			return err
		}
	}

	// Every name a node may consume.
	available := make(map[string]bool)
	for i := range graph.Inputs {
		name := graph.Inputs[i].Name
		if available[name] {
			return &ValidationError{Kind: ErrDuplicateValue, Value: name, Field: "declared more than once as graph input"}
		}
		available[name] = true
	}
	for i := range graph.Initializers {
		available[graph.Initializers[i].Name] = true
	}
	for i := range graph.Nodes {
		for _, out := range graph.Nodes[i].Outputs {
			available[out] = true
		}
	}

	for i := range graph.Nodes {
		node := &graph.Nodes[i]
		for _, in := range node.Inputs {
			if in == "" {
				// Optional input slot.
				continue
			}
			if !available[in] {
				return &ValidationError{
					Kind:  ErrDanglingInput,
					Node:  node.Name,
					Value: in,
					Field: fmt.Sprintf("not a graph input, initializer, or output of any node (op %s)", node.OpType),
				}
			}
		}
	}

	for i := range graph.Outputs {
		name := graph.Outputs[i].Name
		if !available[name] {
			return &ValidationError{Kind: ErrMissingOutput, Value: name, Field: "no node or initializer produces it"}
		}
	}

	return nil
}

func checkValueInfo(vi *ValueInfoProto) error {
	if vi.Name == "" {
		return &ValidationError{Kind: ErrEmptyName, Field: "value info has empty name"}
	}
	if vi.Type == nil || vi.Type.TensorType == nil {
		return &ValidationError{Kind: ErrBadElemType, Value: vi.Name, Field: "missing tensor type"}
	}
	tt := vi.Type.TensorType
	if _, err := elemTypeToDataType(tt.ElemType); err != nil {
		return &ValidationError{Kind: ErrBadElemType, Value: vi.Name, Field: fmt.Sprintf("elem type %d", tt.ElemType)}
	}
	if tt.Shape == nil {
		return &ValidationError{Kind: ErrBadDimension, Value: vi.Name, Field: "missing shape"}
	}
	for _, dim := range tt.Shape.Dims {
		if dim.DimParam != "" {
			continue
		}
		if dim.DimValue <= 0 {
			return &ValidationError{
				Kind:  ErrBadDimension,
				Value: vi.Name,
				Field: fmt.Sprintf("dim value %d", dim.DimValue),
			}
		}
	}
	return nil
}

// checkInitializerDeclaration verifies that a graph-input declaration for a
// weight does not contradict the initializer carrying its data. The value
// info itself has already been validated.
func checkInitializerDeclaration(vi *ValueInfoProto, init *TensorProto) error {
	tt := vi.Type.TensorType
	if tt.ElemType != init.DataType {
		return &ValidationError{
			Kind:  ErrBadElemType,
			Value: init.Name,
			Field: fmt.Sprintf("declared elem type %d, initializer has %d", tt.ElemType, init.DataType),
		}
	}

	dims := tt.Shape.Dims
	if len(dims) != len(init.Dims) {
		return &ValidationError{
			Kind:  ErrShapeMismatch,
			Value: init.Name,
			Field: fmt.Sprintf("declared %d dims, initializer has %d", len(dims), len(init.Dims)),
		}
	}
	for d := range dims {
		if dims[d].DimParam != "" {
			continue
		}
		if dims[d].DimValue != init.Dims[d] {
			return &ValidationError{
				Kind:  ErrShapeMismatch,
				Value: init.Name,
				Field: fmt.Sprintf("declared dim %d is %d, initializer has %d", d, dims[d].DimValue, init.Dims[d]),
			}
		}
	}
	return nil
}

func checkInitializer(t *TensorProto) error {
	if t.Name == "" {
		return &ValidationError{Kind: ErrEmptyName, Field: "initializer has empty name"}
	}
	dtype, err := elemTypeToDataType(t.DataType)
	if err != nil {
		return &ValidationError{Kind: ErrBadElemType, Value: t.Name, Field: fmt.Sprintf("elem type %d", t.DataType)}
	}

	elems := 1
	for _, d := range t.Dims {
		if d <= 0 {
			return &ValidationError{Kind: ErrBadDimension, Value: t.Name, Field: fmt.Sprintf("dim value %d", d)}
		}
		elems *= int(d)
	}

	var got int
	switch {
	case len(t.RawData) > 0:
		size := dtype.Size()
		if len(t.RawData)%size != 0 {
			return &ValidationError{
				Kind:  ErrShapeMismatch,
				Value: t.Name,
				Field: fmt.Sprintf("raw data length %d is not a multiple of element size %d", len(t.RawData), size),
			}
		}
		got = len(t.RawData) / size
	case len(t.FloatData) > 0:
		got = len(t.FloatData)
	case len(t.Int32Data) > 0:
		got = len(t.Int32Data)
	case len(t.Int64Data) > 0:
		got = len(t.Int64Data)
	default:
		return &ValidationError{Kind: ErrShapeMismatch, Value: t.Name, Field: "no data"}
	}

	if got != elems {
		return &ValidationError{
			Kind:  ErrShapeMismatch,
			Value: t.Name,
			Field: fmt.Sprintf("%d elements for shape %v (%d expected)", got, t.Dims, elems),
		}
	}
	return nil
}

// elemTypeToDataType maps a wire element type to a tensor.DataType.
func elemTypeToDataType(elemType int32) (tensor.DataType, error) {
	switch elemType {
	case TensorProtoFloat:
		return tensor.Float32, nil
	case TensorProtoDouble:
		return tensor.Float64, nil
	case TensorProtoInt32:
		return tensor.Int32, nil
	case TensorProtoInt64:
		return tensor.Int64, nil
	default:
		return 0, fmt.Errorf("unsupported element type: %d", elemType)
	}
}

// DataTypeToElemType maps a tensor.DataType to its wire element type.
func DataTypeToElemType(dtype tensor.DataType) int32 {
	switch dtype {
	case tensor.Float64:
		return TensorProtoDouble
	case tensor.Int32:
		return TensorProtoInt32
	case tensor.Int64:
		return TensorProtoInt64
	default:
		return TensorProtoFloat
	}
}
