package predictor

import (
	"fmt"

	"github.com/relay-ml/relay/internal/netdef"
	"github.com/relay-ml/relay/internal/tensor"
)

// MaterializeInit interprets an init net's fill operators into named weight
// tensors. A nil init net yields an empty weight map.
//
// Supported fills:
//   - GivenTensorFill: args "shape" (ints) and "values" (floats)
//   - ConstantFill: args "shape" (ints) and "value" (float, default 0)
func MaterializeInit(init *netdef.NetDef) (map[string]*tensor.RawTensor, error) {
	weights := make(map[string]*tensor.RawTensor)
	if init == nil {
		return weights, nil
	}

	for i := range init.Ops {
		op := &init.Ops[i]
		if len(op.Outputs) != 1 {
			return nil, fmt.Errorf("fill operator %s (%s): expected 1 output, got %d", op.Name, op.Type, len(op.Outputs))
		}
		name := op.Outputs[0]

		t, err := evalFill(op)
		if err != nil {
			return nil, fmt.Errorf("fill operator for %q: %w", name, err)
		}
		weights[name] = t
	}
	return weights, nil
}

func evalFill(op *netdef.OperatorDef) (*tensor.RawTensor, error) {
	shapeArg := netdef.GetArgInts(op, "shape")
	if len(shapeArg) == 0 {
		return nil, fmt.Errorf("%s: missing shape argument", op.Type)
	}
	shape := make(tensor.Shape, len(shapeArg))
	for i, d := range shapeArg {
		shape[i] = int(d)
	}

	switch op.Type {
	case "GivenTensorFill":
		values := netdef.GetArgFloats(op, "values")
		if len(values) != shape.NumElements() {
			return nil, fmt.Errorf("GivenTensorFill: %d values for shape %v (%d elements)",
				len(values), shape, shape.NumElements())
		}
		return tensor.FromFloat32(values, shape)
	case "ConstantFill":
		value := netdef.GetArgFloat(op, "value", 0)
		t, err := tensor.Zeros(shape, tensor.Float32)
		if err != nil {
			return nil, err
		}
		if value != 0 {
			data := t.AsFloat32()
			for i := range data {
				data[i] = value
			}
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported fill operator: %s", op.Type)
	}
}
