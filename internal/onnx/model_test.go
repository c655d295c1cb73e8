package onnx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relay-ml/relay/internal/backend/cpu"
	"github.com/relay-ml/relay/internal/onnx/operators"
	"github.com/relay-ml/relay/internal/tensor"
)

func TestLoadFromBytesForward(t *testing.T) {
	model, err := LoadFromBytes(Marshal(sampleModel()), cpu.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"X"}, model.InputNames())
	assert.Equal(t, []string{"Y"}, model.OutputNames())
	assert.Equal(t, int64(9), model.OpsetVersion())

	input, err := tensor.FromFloat32([]float32{0, 0, 0, 0}, tensor.Shape{1, 4})
	require.NoError(t, err)

	out, err := model.Forward(input)
	require.NoError(t, err)
	// Relu(0 + [-10 -1 1 10]) = [0 0 1 10].
	assert.Equal(t, []float32{0, 0, 1, 10}, out.AsFloat32())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.onnx")
	require.NoError(t, Save(sampleModel(), path))

	model, err := Load(path, cpu.New())
	require.NoError(t, err)
	assert.Equal(t, "relay", model.Metadata()["producer_name"])
}

func TestLoadRejectsInvalidModel(t *testing.T) {
	broken := sampleModel()
	broken.Graph.Name = ""

	_, err := LoadFromBytes(Marshal(broken), cpu.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoGraphName)
}

func TestForwardNamedMissingInput(t *testing.T) {
	model, err := LoadFromBytes(Marshal(sampleModel()), cpu.New())
	require.NoError(t, err)

	_, err = model.ForwardNamed(map[string]*tensor.RawTensor{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing input: X")
}

func TestTopologicalSortOutOfOrder(t *testing.T) {
	// The Relu node is listed before the Add node that feeds it.
	model := sampleModel()
	model.Graph.Nodes[0], model.Graph.Nodes[1] = model.Graph.Nodes[1], model.Graph.Nodes[0]

	m, err := LoadFromBytes(Marshal(model), cpu.New())
	require.NoError(t, err)

	input, err := tensor.FromFloat32([]float32{1, 1, 1, 1}, tensor.Shape{1, 4})
	require.NoError(t, err)

	out, err := m.Forward(input)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 2, 11}, out.AsFloat32())
}

func TestStrictModeUnsupportedOp(t *testing.T) {
	model := sampleModel()
	model.Graph.Nodes[1].OpType = "LSTM"

	_, err := LoadFromBytes(Marshal(model), cpu.New(), LoadOptions{StrictMode: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operators")

	// Without strict mode loading succeeds but execution fails.
	m, err := LoadFromBytes(Marshal(model), cpu.New())
	require.NoError(t, err)

	input, _ := tensor.FromFloat32([]float32{0, 0, 0, 0}, tensor.Shape{1, 4})
	_, err = m.Forward(input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operator")
}

func TestCustomOp(t *testing.T) {
	model := sampleModel()
	model.Graph.Nodes[1].OpType = "Negate"

	opts := LoadOptions{
		StrictMode: true,
		CustomOps: map[string]operators.OpHandler{
			"Negate": func(ctx *operators.Context, node *operators.Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
				return []*tensor.RawTensor{ctx.Backend.MulScalar(inputs[0], -1)}, nil
			},
		},
	}
	m, err := LoadFromBytes(Marshal(model), cpu.New(), opts)
	require.NoError(t, err)

	input, err := tensor.FromFloat32([]float32{0, 0, 0, 0}, tensor.Shape{1, 4})
	require.NoError(t, err)

	out, err := m.Forward(input)
	require.NoError(t, err)
	assert.Equal(t, []float32{10, 1, -1, -10}, out.AsFloat32())
}

func TestListSupportedOps(t *testing.T) {
	ops := ListSupportedOps()
	assert.NotEmpty(t, ops)
	assert.Contains(t, ops, "Conv")
	assert.Contains(t, ops, "Gemm")
	assert.Contains(t, ops, "Relu")
}
