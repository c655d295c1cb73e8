// Package onnx provides interchange model import/export functionality.
//
// The interchange format is a single self-describing file: one protobuf
// message carrying the computation graph, its weight tensors, and typed
// input/output declarations. This package implements a hand-written
// protobuf wire codec for it without external dependencies.
//
// Key components:
//   - ModelProto: Top-level model structure with metadata and graph
//   - GraphProto: Computation graph with nodes, inputs, outputs, and initializers
//   - Check: Structural validation run before a model is written or executed
//   - Model: Compiled, executable form of a parsed model
//
// Example usage:
//
//	model, err := onnx.Load("model.onnx", cpu.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	output, err := model.Forward(input)
package onnx
