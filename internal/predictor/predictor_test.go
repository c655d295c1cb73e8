package predictor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relay-ml/relay/internal/backend/cpu"
	"github.com/relay-ml/relay/internal/netdef"
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

// fcNet builds a one-layer fully connected net: out = softmax(x @ W^T + b).
func fcNet() (*netdef.NetDef, *netdef.NetDef) {
	initNet := &netdef.NetDef{
		Ops: []netdef.OperatorDef{
			givenTensorFill("fc_w", []int64{3, 4}, []float32{
				1, 0, 0, 0,
				0, 1, 0, 0,
				0, 0, 1, 1,
			}),
			givenTensorFill("fc_b", []int64{3}, []float32{0.1, 0.2, 0.3}),
		},
	}
	predictNet := &netdef.NetDef{
		Name: "fc_test",
		Ops: []netdef.OperatorDef{
			{
				Type:    "FC",
				Name:    "fc1",
				Inputs:  []string{"data", "fc_w", "fc_b"},
				Outputs: []string{"fc1_out"},
			},
			{
				Type:    "Softmax",
				Name:    "softmax1",
				Inputs:  []string{"fc1_out"},
				Outputs: []string{"prob"},
			},
		},
		ExternalInputs:  []string{"data", "fc_w", "fc_b"},
		ExternalOutputs: []string{"prob"},
	}
	return initNet, predictNet
}

func TestMaterializeInit(t *testing.T) {
	initNet := &netdef.NetDef{
		Ops: []netdef.OperatorDef{
			givenTensorFill("w", []int64{2, 2}, []float32{1, 2, 3, 4}),
			{
				Type:    "ConstantFill",
				Outputs: []string{"b"},
				Args: []netdef.Argument{
					{Name: "shape", Ints: []int64{2}},
					{Name: "value", F: 0.5},
				},
			},
		},
	}

	weights, err := MaterializeInit(initNet)
	require.NoError(t, err)
	require.Len(t, weights, 2)

	assert.Equal(t, []float32{1, 2, 3, 4}, weights["w"].AsFloat32())
	assert.True(t, weights["w"].Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float32{0.5, 0.5}, weights["b"].AsFloat32())
}

func TestMaterializeInitNil(t *testing.T) {
	weights, err := MaterializeInit(nil)
	require.NoError(t, err)
	assert.Empty(t, weights)
}

func TestMaterializeInitErrors(t *testing.T) {
	tests := []struct {
		name string
		op   netdef.OperatorDef
	}{
		{
			name: "missing shape",
			op: netdef.OperatorDef{
				Type:    "GivenTensorFill",
				Outputs: []string{"w"},
				Args:    []netdef.Argument{{Name: "values", Floats: []float32{1}}},
			},
		},
		{
			name: "value count mismatch",
			op: netdef.OperatorDef{
				Type:    "GivenTensorFill",
				Outputs: []string{"w"},
				Args: []netdef.Argument{
					{Name: "shape", Ints: []int64{2, 2}},
					{Name: "values", Floats: []float32{1, 2}},
				},
			},
		},
		{
			name: "unsupported fill type",
			op: netdef.OperatorDef{
				Type:    "XavierFill",
				Outputs: []string{"w"},
				Args:    []netdef.Argument{{Name: "shape", Ints: []int64{2}}},
			},
		},
		{
			name: "wrong output count",
			op: netdef.OperatorDef{
				Type:    "GivenTensorFill",
				Outputs: []string{"w", "extra"},
				Args: []netdef.Argument{
					{Name: "shape", Ints: []int64{1}},
					{Name: "values", Floats: []float32{1}},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MaterializeInit(&netdef.NetDef{Ops: []netdef.OperatorDef{tt.op}})
			assert.Error(t, err)
		})
	}
}

func TestPredictorRunFCNet(t *testing.T) {
	initNet, predictNet := fcNet()
	pred, err := New(initNet, predictNet, cpu.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"data"}, pred.InputNames())
	assert.Equal(t, []string{"prob"}, pred.OutputNames())

	input, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{1, 4})
	require.NoError(t, err)

	outputs, err := pred.Run(map[string]*tensor.RawTensor{"data": input})
	require.NoError(t, err)

	prob := outputs["prob"]
	require.NotNil(t, prob)
	require.True(t, prob.Shape().Equal(tensor.Shape{1, 3}))

	// Pre-softmax logits are [1.1, 2.2, 7.3]; softmax keeps the ordering.
	idx, val, err := Top1(prob)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Greater(t, val, float32(0.9))

	var sum float32
	for _, v := range prob.AsFloat32() {
		sum += v
	}
	assert.Empty(t, cmp.Diff(float32(1), sum, cmpopts.EquateApprox(0, 1e-6)))
}

func TestPredictorMissingInput(t *testing.T) {
	initNet, predictNet := fcNet()
	pred, err := New(initNet, predictNet, cpu.New())
	require.NoError(t, err)

	_, err = pred.Run(map[string]*tensor.RawTensor{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing input: data")
}

func TestPredictorUnsupportedOp(t *testing.T) {
	predictNet := &netdef.NetDef{
		Name: "bad",
		Ops: []netdef.OperatorDef{
			{Type: "LSTM", Inputs: []string{"data"}, Outputs: []string{"out"}},
		},
		ExternalInputs:  []string{"data"},
		ExternalOutputs: []string{"out"},
	}
	pred, err := New(nil, predictNet, cpu.New())
	require.NoError(t, err)

	input, _ := tensor.FromFloat32([]float32{1}, tensor.Shape{1, 1})
	_, err = pred.Run(map[string]*tensor.RawTensor{"data": input})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operator")
}

func TestPredictorConvNet(t *testing.T) {
	initNet := &netdef.NetDef{
		Ops: []netdef.OperatorDef{
			givenTensorFill("conv_w", []int64{1, 1, 2, 2}, []float32{1, 1, 1, 1}),
			givenTensorFill("conv_b", []int64{1}, []float32{10}),
		},
	}
	predictNet := &netdef.NetDef{
		Name: "conv_test",
		Ops: []netdef.OperatorDef{
			{
				Type:    "Conv",
				Name:    "conv1",
				Inputs:  []string{"data", "conv_w", "conv_b"},
				Outputs: []string{"conv_out"},
				Args:    []netdef.Argument{{Name: "kernel", I: 2}},
			},
			{
				Type:    "MaxPool",
				Name:    "pool1",
				Inputs:  []string{"conv_out"},
				Outputs: []string{"pool_out"},
				Args:    []netdef.Argument{{Name: "kernel", I: 2}},
			},
		},
		ExternalInputs:  []string{"data", "conv_w", "conv_b"},
		ExternalOutputs: []string{"pool_out"},
	}

	pred, err := New(initNet, predictNet, cpu.New())
	require.NoError(t, err)

	input, err := tensor.FromFloat32([]float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3})
	require.NoError(t, err)

	outputs, err := pred.Run(map[string]*tensor.RawTensor{"data": input})
	require.NoError(t, err)

	// Conv windows sum to [12 16 24 28], plus bias 10; max pooling the 2x2
	// result collapses to 38.
	pool := outputs["pool_out"]
	require.True(t, pool.Shape().Equal(tensor.Shape{1, 1, 1, 1}))
	assert.Equal(t, []float32{38}, pool.AsFloat32())
}
