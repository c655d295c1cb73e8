// Package export translates legacy net definition pairs into single-file
// interchange models.
//
// A legacy network is split across two files and carries no type or shape
// information for its inputs. Export merges the materialized weights and the
// predict net's operator list into one graph, with caller-supplied ValueInfo
// filling in the missing input and output declarations.
package export

import (
	"fmt"

	"github.com/relay-ml/relay/internal/netdef"
	"github.com/relay-ml/relay/internal/onnx"
	"github.com/relay-ml/relay/internal/predictor"
	"github.com/relay-ml/relay/internal/tensor"
)

// Producer identification stamped into exported models.
const (
	producerName    = "relay"
	producerVersion = "1.0"

	irVersion    = 4
	opsetVersion = 9
)

// Export builds an interchange model from an init/predict net pair.
//
// The predict net must carry a name; it becomes the graph name and the
// interchange format requires it. valueInfo must hold an entry for every
// non-weight external input and every external output of the predict net.
func Export(init, predict *netdef.NetDef, valueInfo map[string]ValueInfo) (*onnx.ModelProto, error) {
	if predict == nil {
		return nil, fmt.Errorf("predict net is nil")
	}
	if predict.Name == "" {
		return nil, fmt.Errorf("predict net has no name: the graph name is required")
	}

	weights, err := predictor.MaterializeInit(init)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize init net: %w", err)
	}

	graph := &onnx.GraphProto{Name: predict.Name}

	// Graph inputs: caller-declared inputs first, then one declaration per
	// initializer so the graph is self-describing.
	for _, name := range predict.ExternalInputs {
		if _, isWeight := weights[name]; isWeight {
			continue
		}
		vi, ok := valueInfo[name]
		if !ok {
			return nil, fmt.Errorf("missing value info for input %q", name)
		}
		graph.Inputs = append(graph.Inputs, vi.toProto(name))
	}
	for _, name := range predict.ExternalInputs {
		t, isWeight := weights[name]
		if !isWeight {
			continue
		}
		graph.Inputs = append(graph.Inputs, tensorValueInfo(t).toProto(name))
		graph.Initializers = append(graph.Initializers, tensorToProto(name, t))
	}

	for i := range predict.Ops {
		op := &predict.Ops[i]
		node, err := translateOp(op, i, weights)
		if err != nil {
			return nil, fmt.Errorf("operator %s (%s): %w", op.Name, op.Type, err)
		}
		graph.Nodes = append(graph.Nodes, node)
	}

	for _, name := range predict.ExternalOutputs {
		vi, ok := valueInfo[name]
		if !ok {
			return nil, fmt.Errorf("missing value info for output %q", name)
		}
		graph.Outputs = append(graph.Outputs, vi.toProto(name))
	}

	return &onnx.ModelProto{
		IRVersion:       irVersion,
		ProducerName:    producerName,
		ProducerVersion: producerVersion,
		OpsetImport:     []onnx.OperatorSetID{{Version: opsetVersion}},
		Graph:           graph,
	}, nil
}

// translateOp maps one legacy operator to its interchange node.
func translateOp(op *netdef.OperatorDef, index int, weights map[string]*tensor.RawTensor) (onnx.NodeProto, error) {
	node := onnx.NodeProto{
		Name:    op.Name,
		Inputs:  op.Inputs,
		Outputs: op.Outputs,
	}
	if node.Name == "" {
		node.Name = fmt.Sprintf("%s_%d", op.Type, index)
	}

	switch op.Type {
	case "Conv":
		node.OpType = "Conv"
		stride := netdef.GetArgInt(op, "stride", 1)
		pad := netdef.GetArgInt(op, "pad", 0)
		kernel, err := convKernel(op, weights)
		if err != nil {
			return node, err
		}
		node.Attributes = []onnx.AttributeProto{
			attrInts("kernel_shape", kernel, kernel),
			attrInts("strides", stride, stride),
			attrInts("pads", pad, pad, pad, pad),
		}
	case "FC":
		node.OpType = "Gemm"
		node.Attributes = []onnx.AttributeProto{
			attrInt("transB", 1),
		}
	case "MaxPool":
		node.OpType = "MaxPool"
		kernel := netdef.GetArgInt(op, "kernel", 0)
		if kernel <= 0 {
			return node, fmt.Errorf("missing kernel argument")
		}
		stride := netdef.GetArgInt(op, "stride", 1)
		pad := netdef.GetArgInt(op, "pad", 0)
		node.Attributes = []onnx.AttributeProto{
			attrInts("kernel_shape", kernel, kernel),
			attrInts("strides", stride, stride),
			attrInts("pads", pad, pad, pad, pad),
		}
	case "AveragePool":
		if netdef.GetArgInt(op, "global_pooling", 0) != 0 {
			node.OpType = "GlobalAveragePool"
			break
		}
		node.OpType = "AveragePool"
		kernel := netdef.GetArgInt(op, "kernel", 0)
		if kernel <= 0 {
			return node, fmt.Errorf("missing kernel argument")
		}
		stride := netdef.GetArgInt(op, "stride", 1)
		pad := netdef.GetArgInt(op, "pad", 0)
		node.Attributes = []onnx.AttributeProto{
			attrInts("kernel_shape", kernel, kernel),
			attrInts("strides", stride, stride),
			attrInts("pads", pad, pad, pad, pad),
		}
	case "Relu":
		node.OpType = "Relu"
	case "Softmax":
		node.OpType = "Softmax"
		node.Attributes = []onnx.AttributeProto{
			attrInt("axis", netdef.GetArgInt(op, "axis", 1)),
		}
	case "Sum":
		node.OpType = "Sum"
	case "Dropout":
		node.OpType = "Dropout"
		// Mask output is dropped: inference-only graphs never consume it.
		node.Outputs = op.Outputs[:1]
	case "Flatten":
		node.OpType = "Flatten"
		node.Attributes = []onnx.AttributeProto{
			attrInt("axis", netdef.GetArgInt(op, "axis", 1)),
		}
	default:
		return node, fmt.Errorf("unsupported operator: %s", op.Type)
	}

	return node, nil
}

// convKernel resolves a Conv operator's kernel size, preferring the explicit
// argument and falling back to the materialized weight shape.
func convKernel(op *netdef.OperatorDef, weights map[string]*tensor.RawTensor) (int64, error) {
	if kernel := netdef.GetArgInt(op, "kernel", 0); kernel > 0 {
		return kernel, nil
	}
	if len(op.Inputs) >= 2 {
		if w, ok := weights[op.Inputs[1]]; ok && len(w.Shape()) == 4 {
			return int64(w.Shape()[2]), nil
		}
	}
	return 0, fmt.Errorf("cannot determine kernel size")
}

// tensorToProto serializes a weight tensor as an initializer.
func tensorToProto(name string, t *tensor.RawTensor) onnx.TensorProto {
	dims := make([]int64, len(t.Shape()))
	for i, d := range t.Shape() {
		dims[i] = int64(d)
	}
	raw := make([]byte, len(t.Data()))
	copy(raw, t.Data())
	return onnx.TensorProto{
		Name:     name,
		DataType: onnx.DataTypeToElemType(t.DType()),
		Dims:     dims,
		RawData:  raw,
	}
}

func attrInt(name string, v int64) onnx.AttributeProto {
	return onnx.AttributeProto{Name: name, Type: onnx.AttributeProtoInt, I: v}
}

func attrInts(name string, vals ...int64) onnx.AttributeProto {
	return onnx.AttributeProto{Name: name, Type: onnx.AttributeProtoInts, Ints: vals}
}
