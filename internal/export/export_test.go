package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relay-ml/relay/internal/netdef"
	"github.com/relay-ml/relay/internal/onnx"
	"github.com/relay-ml/relay/internal/tensor"
)

func givenTensorFill(name string, shape []int64, values []float32) netdef.OperatorDef {
	return netdef.OperatorDef{
		Type:    "GivenTensorFill",
		Outputs: []string{name},
		Args: []netdef.Argument{
			{Name: "shape", Ints: shape},
			{Name: "values", Floats: values},
		},
	}
}

// convFCNets builds a Conv -> Relu -> FC -> Softmax pair.
func convFCNets() (*netdef.NetDef, *netdef.NetDef) {
	initNet := &netdef.NetDef{
		Ops: []netdef.OperatorDef{
			givenTensorFill("conv_w", []int64{1, 1, 2, 2}, []float32{1, 1, 1, 1}),
			givenTensorFill("conv_b", []int64{1}, []float32{0}),
			givenTensorFill("fc_w", []int64{2, 4}, make([]float32, 8)),
			givenTensorFill("fc_b", []int64{2}, []float32{0, 0}),
		},
	}
	predictNet := &netdef.NetDef{
		Name: "conv_fc",
		Ops: []netdef.OperatorDef{
			{
				Type:    "Conv",
				Name:    "conv1",
				Inputs:  []string{"data", "conv_w", "conv_b"},
				Outputs: []string{"conv1_out"},
				Args: []netdef.Argument{
					{Name: "kernel", I: 2},
					{Name: "stride", I: 1},
					{Name: "pad", I: 0},
				},
			},
			{
				Type:    "Relu",
				Inputs:  []string{"conv1_out"},
				Outputs: []string{"relu1_out"},
			},
			{
				Type:    "FC",
				Name:    "fc1",
				Inputs:  []string{"relu1_out", "fc_w", "fc_b"},
				Outputs: []string{"fc1_out"},
			},
			{
				Type:    "Softmax",
				Inputs:  []string{"fc1_out"},
				Outputs: []string{"prob"},
			},
		},
		ExternalInputs:  []string{"data", "conv_w", "conv_b", "fc_w", "fc_b"},
		ExternalOutputs: []string{"prob"},
	}
	return initNet, predictNet
}

func sampleValueInfo() map[string]ValueInfo {
	return map[string]ValueInfo{
		"data": {DType: tensor.Float32, Shape: tensor.Shape{1, 1, 3, 3}},
		"prob": {DType: tensor.Float32, Shape: tensor.Shape{1, 2}},
	}
}

func TestExportTranslation(t *testing.T) {
	initNet, predictNet := convFCNets()

	model, err := Export(initNet, predictNet, sampleValueInfo())
	require.NoError(t, err)

	assert.Equal(t, "relay", model.ProducerName)
	assert.Equal(t, "1.0", model.ProducerVersion)
	assert.Equal(t, int64(4), model.IRVersion)
	require.Len(t, model.OpsetImport, 1)
	assert.Equal(t, int64(9), model.OpsetImport[0].Version)

	graph := model.Graph
	require.NotNil(t, graph)
	assert.Equal(t, "conv_fc", graph.Name)

	// Non-weight input first, then one declaration per weight.
	require.Len(t, graph.Inputs, 5)
	assert.Equal(t, "data", graph.Inputs[0].Name)
	assert.Len(t, graph.Initializers, 4)

	require.Len(t, graph.Nodes, 4)
	conv := graph.Nodes[0]
	assert.Equal(t, "Conv", conv.OpType)
	assert.Equal(t, "conv1", conv.Name)
	require.Len(t, conv.Attributes, 3)
	assert.Equal(t, "kernel_shape", conv.Attributes[0].Name)
	assert.Equal(t, []int64{2, 2}, conv.Attributes[0].Ints)
	assert.Equal(t, []int64{1, 1}, conv.Attributes[1].Ints)
	assert.Equal(t, []int64{0, 0, 0, 0}, conv.Attributes[2].Ints)

	relu := graph.Nodes[1]
	assert.Equal(t, "Relu", relu.OpType)
	assert.Equal(t, "Relu_1", relu.Name)

	fc := graph.Nodes[2]
	assert.Equal(t, "Gemm", fc.OpType)
	require.Len(t, fc.Attributes, 1)
	assert.Equal(t, "transB", fc.Attributes[0].Name)
	assert.Equal(t, int64(1), fc.Attributes[0].I)

	softmax := graph.Nodes[3]
	assert.Equal(t, "Softmax", softmax.OpType)
	require.Len(t, softmax.Attributes, 1)
	assert.Equal(t, int64(1), softmax.Attributes[0].I)

	require.Len(t, graph.Outputs, 1)
	assert.Equal(t, "prob", graph.Outputs[0].Name)

	// The exported model must stand on its own.
	assert.NoError(t, onnx.Check(model))
}

func TestExportRequiresGraphName(t *testing.T) {
	initNet, predictNet := convFCNets()
	predictNet.Name = ""

	_, err := Export(initNet, predictNet, sampleValueInfo())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graph name is required")
}

func TestExportNilPredictNet(t *testing.T) {
	_, err := Export(nil, nil, nil)
	require.Error(t, err)
}

func TestExportMissingInputValueInfo(t *testing.T) {
	initNet, predictNet := convFCNets()
	vi := sampleValueInfo()
	delete(vi, "data")

	_, err := Export(initNet, predictNet, vi)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing value info for input "data"`)
}

func TestExportMissingOutputValueInfo(t *testing.T) {
	initNet, predictNet := convFCNets()
	vi := sampleValueInfo()
	delete(vi, "prob")

	_, err := Export(initNet, predictNet, vi)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing value info for output "prob"`)
}

func TestExportUnsupportedOperator(t *testing.T) {
	predictNet := &netdef.NetDef{
		Name: "bad",
		Ops: []netdef.OperatorDef{
			{Type: "LSTM", Name: "lstm1", Inputs: []string{"data"}, Outputs: []string{"out"}},
		},
		ExternalInputs:  []string{"data"},
		ExternalOutputs: []string{"out"},
	}
	vi := map[string]ValueInfo{
		"data": {DType: tensor.Float32, Shape: tensor.Shape{1, 4}},
		"out":  {DType: tensor.Float32, Shape: tensor.Shape{1, 4}},
	}

	_, err := Export(nil, predictNet, vi)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operator: LSTM")
	assert.Contains(t, err.Error(), "lstm1")
}

func TestExportConvKernelFromWeights(t *testing.T) {
	// No kernel argument: the size comes from the weight shape.
	initNet := &netdef.NetDef{
		Ops: []netdef.OperatorDef{
			givenTensorFill("w", []int64{1, 1, 3, 3}, make([]float32, 9)),
		},
	}
	predictNet := &netdef.NetDef{
		Name: "conv_only",
		Ops: []netdef.OperatorDef{
			{
				Type:    "Conv",
				Inputs:  []string{"data", "w"},
				Outputs: []string{"out"},
			},
		},
		ExternalInputs:  []string{"data", "w"},
		ExternalOutputs: []string{"out"},
	}
	vi := map[string]ValueInfo{
		"data": {DType: tensor.Float32, Shape: tensor.Shape{1, 1, 5, 5}},
		"out":  {DType: tensor.Float32, Shape: tensor.Shape{1, 1, 3, 3}},
	}

	model, err := Export(initNet, predictNet, vi)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 3}, model.Graph.Nodes[0].Attributes[0].Ints)
}

func TestExportGlobalAveragePool(t *testing.T) {
	predictNet := &netdef.NetDef{
		Name: "gap",
		Ops: []netdef.OperatorDef{
			{
				Type:    "AveragePool",
				Inputs:  []string{"data"},
				Outputs: []string{"out"},
				Args:    []netdef.Argument{{Name: "global_pooling", I: 1}},
			},
		},
		ExternalInputs:  []string{"data"},
		ExternalOutputs: []string{"out"},
	}
	vi := map[string]ValueInfo{
		"data": {DType: tensor.Float32, Shape: tensor.Shape{1, 2, 4, 4}},
		"out":  {DType: tensor.Float32, Shape: tensor.Shape{1, 2, 1, 1}},
	}

	model, err := Export(nil, predictNet, vi)
	require.NoError(t, err)
	node := model.Graph.Nodes[0]
	assert.Equal(t, "GlobalAveragePool", node.OpType)
	assert.Empty(t, node.Attributes)
}

func TestExportDropoutDropsMask(t *testing.T) {
	predictNet := &netdef.NetDef{
		Name: "drop",
		Ops: []netdef.OperatorDef{
			{
				Type:    "Dropout",
				Inputs:  []string{"data"},
				Outputs: []string{"out", "mask"},
			},
		},
		ExternalInputs:  []string{"data"},
		ExternalOutputs: []string{"out"},
	}
	vi := map[string]ValueInfo{
		"data": {DType: tensor.Float32, Shape: tensor.Shape{1, 4}},
		"out":  {DType: tensor.Float32, Shape: tensor.Shape{1, 4}},
	}

	model, err := Export(nil, predictNet, vi)
	require.NoError(t, err)
	assert.Equal(t, []string{"out"}, model.Graph.Nodes[0].Outputs)
	assert.NoError(t, onnx.Check(model))
}

func TestExportInitializerRawData(t *testing.T) {
	initNet, predictNet := convFCNets()

	model, err := Export(initNet, predictNet, sampleValueInfo())
	require.NoError(t, err)

	byName := make(map[string]onnx.TensorProto)
	for _, init := range model.Graph.Initializers {
		byName[init.Name] = init
	}

	convW, ok := byName["conv_w"]
	require.True(t, ok)
	assert.Equal(t, []int64{1, 1, 2, 2}, convW.Dims)
	assert.Len(t, convW.RawData, 16)
	assert.Equal(t, int32(onnx.TensorProtoFloat), convW.DataType)
}
