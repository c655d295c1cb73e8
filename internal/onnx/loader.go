package onnx

import (
	"fmt"

	"github.com/relay-ml/relay/internal/onnx/operators"
	"github.com/relay-ml/relay/internal/tensor"
)

// LoadOptions configures model loading behavior.
type LoadOptions struct {
	// StrictMode fails on unsupported operators (default: false).
	StrictMode bool

	// CustomOps provides custom operator handlers.
	CustomOps map[string]operators.OpHandler
}

// DefaultLoadOptions returns default loading options.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		StrictMode: false,
		CustomOps:  nil,
	}
}

// Load loads an interchange model from file, validates it and prepares it
// for inference. The backend is used for tensor operations.
func Load(path string, backend tensor.Backend, opts ...LoadOptions) (*Model, error) {
	opt := DefaultLoadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	proto, err := ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}

	return LoadFromProto(proto, backend, opt)
}

// LoadFromBytes loads an interchange model from bytes.
func LoadFromBytes(data []byte, backend tensor.Backend, opts ...LoadOptions) (*Model, error) {
	opt := DefaultLoadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	proto, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model data: %w", err)
	}

	return LoadFromProto(proto, backend, opt)
}

// LoadFromProto loads a model from a parsed ModelProto. The proto is
// structurally validated before compilation.
func LoadFromProto(proto *ModelProto, backend tensor.Backend, opt LoadOptions) (*Model, error) {
	if err := Check(proto); err != nil {
		return nil, err
	}

	registry := operators.NewRegistry()
	for opType, handler := range opt.CustomOps {
		registry.Register(opType, handler)
	}

	if opt.StrictMode {
		if err := validateOperators(proto.Graph, registry); err != nil {
			return nil, err
		}
	}

	model := &Model{
		proto:    proto,
		registry: registry,
		backend:  backend,
	}

	if err := model.compile(); err != nil {
		return nil, fmt.Errorf("failed to compile model: %w", err)
	}

	return model, nil
}

// validateOperators checks that all operators are supported.
func validateOperators(graph *GraphProto, registry *operators.Registry) error {
	if graph == nil {
		return ErrNoGraph
	}

	unsupported := make([]string, 0)
	for i := range graph.Nodes {
		if _, ok := registry.Get(graph.Nodes[i].OpType); !ok {
			unsupported = append(unsupported, graph.Nodes[i].OpType)
		}
	}

	if len(unsupported) > 0 {
		return fmt.Errorf("unsupported operators: %v", unsupported)
	}

	return nil
}

// ListSupportedOps returns all supported graph operators.
func ListSupportedOps() []string {
	registry := operators.NewRegistry()
	return registry.SupportedOps()
}
