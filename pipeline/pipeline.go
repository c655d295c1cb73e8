// Package pipeline wires the full conversion flow: load a legacy net pair,
// run a baseline prediction, export to the interchange format, re-import the
// exported file and verify that both runners agree.
package pipeline

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/relay-ml/relay/internal/backend/cpu"
	"github.com/relay-ml/relay/internal/export"
	"github.com/relay-ml/relay/internal/netdef"
	"github.com/relay-ml/relay/internal/onnx"
	"github.com/relay-ml/relay/internal/predictor"
	"github.com/relay-ml/relay/internal/tensor"
)

// DefaultTolerance is the maximum absolute per-element difference allowed
// between the baseline and the re-imported outputs.
const DefaultTolerance = 1e-5

// DefaultGraphName is assigned to predict nets that were serialized without
// a name, since the interchange format requires one.
const DefaultGraphName = "relay_net"

// Config controls a conversion run.
type Config struct {
	InitNetPath    string       // Serialized init net (weights)
	PredictNetPath string       // Serialized predict net (architecture)
	OutputPath     string       // Destination for the interchange model
	InputName      string       // Input to feed; defaults to the net's only input
	InputShape     tensor.Shape // Shape of the zero-filled probe input
	Tolerance      float64      // Parity tolerance; DefaultTolerance if zero
}

// Result reports the outcome of a conversion run.
type Result struct {
	OutputName      string  // External output the top-1 was computed over
	BaselineIndex   int     // Top-1 class from the legacy runner
	BaselineValue   float32 // Score at BaselineIndex
	RoundTripIndex  int     // Top-1 class recomputed from the re-imported model
	RoundTripValue  float32 // Score at RoundTripIndex
	MaxAbsDiff      float64 // Largest per-element difference across all outputs
	WithinTolerance bool    // MaxAbsDiff <= tolerance
}

// Run executes the full pipeline. A nil logger disables logging.
func Run(cfg Config, log *zap.SugaredLogger) (*Result, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	tolerance := cfg.Tolerance
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}

	initNet, err := netdef.Load(cfg.InitNetPath)
	if err != nil {
		return nil, fmt.Errorf("init net: %w", err)
	}
	predictNet, err := netdef.Load(cfg.PredictNetPath)
	if err != nil {
		return nil, fmt.Errorf("predict net: %w", err)
	}
	log.Infow("loaded net definitions",
		"init_ops", len(initNet.Ops),
		"predict_ops", len(predictNet.Ops),
		"net", predictNet.Name)

	backend := cpu.New()
	pred, err := predictor.New(initNet, predictNet, backend)
	if err != nil {
		return nil, fmt.Errorf("predictor: %w", err)
	}

	inputName := cfg.InputName
	if inputName == "" {
		names := pred.InputNames()
		if len(names) != 1 {
			return nil, fmt.Errorf("net has %d inputs, specify one of %v", len(names), names)
		}
		inputName = names[0]
	}
	if len(cfg.InputShape) == 0 {
		return nil, fmt.Errorf("input shape is required")
	}

	probe, err := tensor.Zeros(cfg.InputShape, tensor.Float32)
	if err != nil {
		return nil, fmt.Errorf("probe input: %w", err)
	}
	inputs := map[string]*tensor.RawTensor{inputName: probe}

	baseline, err := pred.Run(inputs)
	if err != nil {
		return nil, fmt.Errorf("baseline run: %w", err)
	}

	outputName := pred.OutputNames()[0]
	baseIdx, baseVal, err := predictor.Top1(baseline[outputName])
	if err != nil {
		return nil, fmt.Errorf("baseline top-1: %w", err)
	}
	log.Infow("baseline prediction", "output", outputName, "class", baseIdx, "score", baseVal)

	// Legacy nets are frequently serialized without a name; the interchange
	// format requires one, so assign a default before export.
	if predictNet.Name == "" {
		predictNet.Name = DefaultGraphName
	}

	valueInfo := map[string]export.ValueInfo{
		inputName: {DType: tensor.Float32, Shape: cfg.InputShape},
	}
	for name, t := range baseline {
		valueInfo[name] = export.ValueInfo{DType: t.DType(), Shape: t.Shape()}
	}

	model, err := export.Export(initNet, predictNet, valueInfo)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := onnx.Check(model); err != nil {
		return nil, fmt.Errorf("exported model failed validation: %w", err)
	}
	if err := onnx.Save(model, cfg.OutputPath); err != nil {
		return nil, err
	}
	log.Infow("wrote interchange model",
		"path", cfg.OutputPath,
		"nodes", len(model.Graph.Nodes),
		"initializers", len(model.Graph.Initializers))

	imported, err := onnx.Load(cfg.OutputPath, backend)
	if err != nil {
		return nil, fmt.Errorf("re-import: %w", err)
	}
	roundTrip, err := imported.ForwardNamed(inputs)
	if err != nil {
		return nil, fmt.Errorf("re-imported run: %w", err)
	}

	maxDiff, err := maxAbsDiff(baseline, roundTrip)
	if err != nil {
		return nil, err
	}

	// The verification top-1 comes from the re-imported outputs, so a broken
	// round trip cannot hide behind the baseline result.
	rtIdx, rtVal, err := predictor.Top1(roundTrip[outputName])
	if err != nil {
		return nil, fmt.Errorf("round-trip top-1: %w", err)
	}

	result := &Result{
		OutputName:      outputName,
		BaselineIndex:   baseIdx,
		BaselineValue:   baseVal,
		RoundTripIndex:  rtIdx,
		RoundTripValue:  rtVal,
		MaxAbsDiff:      maxDiff,
		WithinTolerance: maxDiff <= tolerance,
	}
	if !result.WithinTolerance {
		log.Errorw("round trip outputs diverge",
			"max_abs_diff", maxDiff,
			"tolerance", tolerance)
		return result, fmt.Errorf("round trip outputs diverge: max abs diff %g exceeds tolerance %g", maxDiff, tolerance)
	}
	log.Infow("round trip verified",
		"class", rtIdx,
		"score", rtVal,
		"max_abs_diff", maxDiff)

	return result, nil
}

// maxAbsDiff computes the largest per-element difference across all named
// outputs. Both runs must produce the same names and shapes.
func maxAbsDiff(a, b map[string]*tensor.RawTensor) (float64, error) {
	var maxDiff float64
	for name, ta := range a {
		tb, ok := b[name]
		if !ok {
			return 0, fmt.Errorf("output %q missing from re-imported run", name)
		}
		if !ta.Shape().Equal(tb.Shape()) {
			return 0, fmt.Errorf("output %q: shape %v != %v", name, ta.Shape(), tb.Shape())
		}
		da := ta.AsFloat32()
		db := tb.AsFloat32()
		for i := range da {
			diff := math.Abs(float64(da[i]) - float64(db[i]))
			if diff > maxDiff {
				maxDiff = diff
			}
		}
	}
	return maxDiff, nil
}
