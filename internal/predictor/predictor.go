// Package predictor executes legacy netdef networks.
//
// A Predictor is built from an (init net, predict net) pair: the init net is
// interpreted once to materialize weight tensors, and the predict net is then
// run against caller-supplied inputs.
package predictor

import (
	"fmt"

	"github.com/relay-ml/relay/internal/netdef"
	"github.com/relay-ml/relay/internal/tensor"
)

// Predictor is an executable inference object bound to a predict net and its
// materialized weights.
type Predictor struct {
	predict    *netdef.NetDef
	weights    map[string]*tensor.RawTensor
	backend    tensor.Backend
	inputNames []string
}

// New builds a Predictor from an init/predict net pair.
// The init net's fill operators are interpreted to materialize weights.
func New(init, predict *netdef.NetDef, backend tensor.Backend) (*Predictor, error) {
	if predict == nil {
		return nil, fmt.Errorf("predict net is nil")
	}
	weights, err := MaterializeInit(init)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize init net: %w", err)
	}

	// External inputs that the init net does not provide must come from the
	// caller at Run time.
	var inputNames []string
	for _, name := range predict.ExternalInputs {
		if _, ok := weights[name]; !ok {
			inputNames = append(inputNames, name)
		}
	}

	return &Predictor{
		predict:    predict,
		weights:    weights,
		backend:    backend,
		inputNames: inputNames,
	}, nil
}

// InputNames returns the names the caller must bind at Run time.
func (p *Predictor) InputNames() []string {
	return p.inputNames
}

// OutputNames returns the predict net's external output names.
func (p *Predictor) OutputNames() []string {
	return p.predict.ExternalOutputs
}

// Weights returns the materialized weight tensors keyed by name.
func (p *Predictor) Weights() map[string]*tensor.RawTensor {
	return p.weights
}

// Run executes the predict net against the given named inputs and returns
// the external outputs keyed by name.
func (p *Predictor) Run(inputs map[string]*tensor.RawTensor) (map[string]*tensor.RawTensor, error) {
	ws := make(map[string]*tensor.RawTensor, len(p.weights)+len(inputs))
	for name, t := range p.weights {
		ws[name] = t
	}
	for name, t := range inputs {
		ws[name] = t
	}

	for _, name := range p.inputNames {
		if _, ok := ws[name]; !ok {
			return nil, fmt.Errorf("missing input: %s", name)
		}
	}

	// Predict nets are serialized in execution order.
	ctx := &opContext{backend: p.backend}
	for i := range p.predict.Ops {
		op := &p.predict.Ops[i]

		opInputs := make([]*tensor.RawTensor, len(op.Inputs))
		for j, name := range op.Inputs {
			t, ok := ws[name]
			if !ok {
				return nil, fmt.Errorf("operator %s (%s): missing input %s", op.Name, op.Type, name)
			}
			opInputs[j] = t
		}

		outputs, err := execOp(ctx, op, opInputs)
		if err != nil {
			return nil, fmt.Errorf("operator %s (%s): %w", op.Name, op.Type, err)
		}
		for j, name := range op.Outputs {
			if j < len(outputs) {
				ws[name] = outputs[j]
			}
		}
	}

	result := make(map[string]*tensor.RawTensor, len(p.predict.ExternalOutputs))
	for _, name := range p.predict.ExternalOutputs {
		t, ok := ws[name]
		if !ok {
			return nil, fmt.Errorf("missing output: %s", name)
		}
		result[name] = t
	}
	return result, nil
}
