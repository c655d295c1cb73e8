// Package onnx is the public facade for interchange model import, export
// and validation.
//
// Use [Load] to parse, validate and compile a model for inference, [Check]
// to validate a model without running it, and [Save] to write one out.
package onnx

import (
	internalonnx "github.com/relay-ml/relay/internal/onnx"
	"github.com/relay-ml/relay/internal/tensor"
)

// ModelProto is the top-level serialized model structure.
type ModelProto = internalonnx.ModelProto

// GraphProto is the computation graph inside a model.
type GraphProto = internalonnx.GraphProto

// NodeProto is a single operation in the graph.
type NodeProto = internalonnx.NodeProto

// TensorProto is a weight/initializer tensor.
type TensorProto = internalonnx.TensorProto

// ValueInfoProto declares a graph value's name, type and shape.
type ValueInfoProto = internalonnx.ValueInfoProto

// ValidationError describes a structural model validation failure.
type ValidationError = internalonnx.ValidationError

// Model is a compiled interchange model ready for inference.
type Model = internalonnx.Model

// LoadOptions configures model loading behavior.
type LoadOptions = internalonnx.LoadOptions

// Load parses, validates and compiles a model from a file.
func Load(path string, backend tensor.Backend, opts ...LoadOptions) (*Model, error) {
	return internalonnx.Load(path, backend, opts...)
}

// LoadFromBytes parses, validates and compiles a model from bytes.
func LoadFromBytes(data []byte, backend tensor.Backend, opts ...LoadOptions) (*Model, error) {
	return internalonnx.LoadFromBytes(data, backend, opts...)
}

// ParseFile parses a model from a file without validating or compiling it.
func ParseFile(path string) (*ModelProto, error) {
	return internalonnx.ParseFile(path)
}

// Parse parses a model from bytes without validating or compiling it.
func Parse(data []byte) (*ModelProto, error) {
	return internalonnx.Parse(data)
}

// Check validates a model's structural integrity.
func Check(model *ModelProto) error {
	return internalonnx.Check(model)
}

// Marshal serializes a model into protobuf wire format.
func Marshal(model *ModelProto) []byte {
	return internalonnx.Marshal(model)
}

// Save writes a serialized model to a file, overwriting it if present.
func Save(model *ModelProto, path string) error {
	return internalonnx.Save(model, path)
}

// ListSupportedOps returns all supported graph operators.
func ListSupportedOps() []string {
	return internalonnx.ListSupportedOps()
}
