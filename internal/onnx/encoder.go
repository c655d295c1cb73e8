package onnx

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Marshal serializes a model into protobuf wire format.
func Marshal(model *ModelProto) []byte {
	e := &encoder{}
	e.writeModelProto(model)
	return e.data
}

// Save writes a serialized model to a file, overwriting it if present.
func Save(model *ModelProto, path string) error {
	if err := os.WriteFile(path, Marshal(model), 0o644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// encoder implements a minimal protobuf wire format encoder, the inverse of
// the decoder in parser.go.
type encoder struct {
	data []byte
}

func (e *encoder) writeModelProto(m *ModelProto) {
	if m.IRVersion != 0 {
		e.writeTag(1, wireVarint)
		e.writeVarint(m.IRVersion)
	}
	if m.ProducerName != "" {
		e.writeTag(2, wireBytes)
		e.writeBytes([]byte(m.ProducerName))
	}
	if m.ProducerVersion != "" {
		e.writeTag(3, wireBytes)
		e.writeBytes([]byte(m.ProducerVersion))
	}
	if m.Domain != "" {
		e.writeTag(4, wireBytes)
		e.writeBytes([]byte(m.Domain))
	}
	if m.ModelVersion != 0 {
		e.writeTag(5, wireVarint)
		e.writeVarint(m.ModelVersion)
	}
	if m.DocString != "" {
		e.writeTag(6, wireBytes)
		e.writeBytes([]byte(m.DocString))
	}
	if m.Graph != nil {
		sub := &encoder{}
		sub.writeGraphProto(m.Graph)
		e.writeTag(7, wireBytes)
		e.writeBytes(sub.data)
	}
	for i := range m.OpsetImport {
		sub := &encoder{}
		sub.writeOperatorSetID(&m.OpsetImport[i])
		e.writeTag(8, wireBytes)
		e.writeBytes(sub.data)
	}
	for i := range m.MetadataProps {
		sub := &encoder{}
		sub.writeStringStringEntry(&m.MetadataProps[i])
		e.writeTag(14, wireBytes)
		e.writeBytes(sub.data)
	}
}

func (e *encoder) writeGraphProto(m *GraphProto) {
	for i := range m.Nodes {
		sub := &encoder{}
		sub.writeNodeProto(&m.Nodes[i])
		e.writeTag(1, wireBytes)
		e.writeBytes(sub.data)
	}
	if m.Name != "" {
		e.writeTag(2, wireBytes)
		e.writeBytes([]byte(m.Name))
	}
	for i := range m.Initializers {
		sub := &encoder{}
		sub.writeTensorProto(&m.Initializers[i])
		e.writeTag(5, wireBytes)
		e.writeBytes(sub.data)
	}
	if m.DocString != "" {
		e.writeTag(10, wireBytes)
		e.writeBytes([]byte(m.DocString))
	}
	for i := range m.Inputs {
		sub := &encoder{}
		sub.writeValueInfoProto(&m.Inputs[i])
		e.writeTag(11, wireBytes)
		e.writeBytes(sub.data)
	}
	for i := range m.Outputs {
		sub := &encoder{}
		sub.writeValueInfoProto(&m.Outputs[i])
		e.writeTag(12, wireBytes)
		e.writeBytes(sub.data)
	}
}

func (e *encoder) writeNodeProto(m *NodeProto) {
	for _, name := range m.Inputs {
		e.writeTag(1, wireBytes)
		e.writeBytes([]byte(name))
	}
	for _, name := range m.Outputs {
		e.writeTag(2, wireBytes)
		e.writeBytes([]byte(name))
	}
	if m.Name != "" {
		e.writeTag(3, wireBytes)
		e.writeBytes([]byte(m.Name))
	}
	if m.OpType != "" {
		e.writeTag(4, wireBytes)
		e.writeBytes([]byte(m.OpType))
	}
	for i := range m.Attributes {
		sub := &encoder{}
		sub.writeAttributeProto(&m.Attributes[i])
		e.writeTag(5, wireBytes)
		e.writeBytes(sub.data)
	}
	if m.Domain != "" {
		e.writeTag(7, wireBytes)
		e.writeBytes([]byte(m.Domain))
	}
}

func (e *encoder) writeTensorProto(m *TensorProto) {
	if len(m.Dims) > 0 {
		sub := &encoder{}
		for _, d := range m.Dims {
			sub.writeVarint(d)
		}
		e.writeTag(1, wireBytes)
		e.writeBytes(sub.data)
	}
	if m.DataType != 0 {
		e.writeTag(2, wireVarint)
		e.writeVarint(int64(m.DataType))
	}
	if len(m.FloatData) > 0 {
		packed := make([]byte, 4*len(m.FloatData))
		for i, v := range m.FloatData {
			binary.LittleEndian.PutUint32(packed[i*4:], math.Float32bits(v))
		}
		e.writeTag(4, wireBytes)
		e.writeBytes(packed)
	}
	if len(m.Int32Data) > 0 {
		sub := &encoder{}
		for _, v := range m.Int32Data {
			sub.writeVarint(int64(v))
		}
		e.writeTag(5, wireBytes)
		e.writeBytes(sub.data)
	}
	if len(m.Int64Data) > 0 {
		sub := &encoder{}
		for _, v := range m.Int64Data {
			sub.writeVarint(v)
		}
		e.writeTag(7, wireBytes)
		e.writeBytes(sub.data)
	}
	if m.Name != "" {
		e.writeTag(8, wireBytes)
		e.writeBytes([]byte(m.Name))
	}
	if len(m.RawData) > 0 {
		e.writeTag(9, wireBytes)
		e.writeBytes(m.RawData)
	}
}

func (e *encoder) writeValueInfoProto(m *ValueInfoProto) {
	if m.Name != "" {
		e.writeTag(1, wireBytes)
		e.writeBytes([]byte(m.Name))
	}
	if m.Type != nil {
		sub := &encoder{}
		sub.writeTypeProto(m.Type)
		e.writeTag(2, wireBytes)
		e.writeBytes(sub.data)
	}
}

func (e *encoder) writeTypeProto(m *TypeProto) {
	if m.TensorType != nil {
		sub := &encoder{}
		sub.writeTensorTypeProto(m.TensorType)
		e.writeTag(1, wireBytes)
		e.writeBytes(sub.data)
	}
}

func (e *encoder) writeTensorTypeProto(m *TensorTypeProto) {
	if m.ElemType != 0 {
		e.writeTag(1, wireVarint)
		e.writeVarint(int64(m.ElemType))
	}
	if m.Shape != nil {
		sub := &encoder{}
		sub.writeTensorShapeProto(m.Shape)
		e.writeTag(2, wireBytes)
		e.writeBytes(sub.data)
	}
}

func (e *encoder) writeTensorShapeProto(m *TensorShapeProto) {
	for i := range m.Dims {
		sub := &encoder{}
		sub.writeDimensionProto(&m.Dims[i])
		e.writeTag(1, wireBytes)
		e.writeBytes(sub.data)
	}
}

func (e *encoder) writeDimensionProto(m *DimensionProto) {
	if m.DimValue != 0 {
		e.writeTag(1, wireVarint)
		e.writeVarint(m.DimValue)
	}
	if m.DimParam != "" {
		e.writeTag(2, wireBytes)
		e.writeBytes([]byte(m.DimParam))
	}
}

func (e *encoder) writeAttributeProto(m *AttributeProto) {
	if m.Name != "" {
		e.writeTag(1, wireBytes)
		e.writeBytes([]byte(m.Name))
	}
	if m.F != 0 {
		e.writeTag(2, wire32Bit)
		e.writeFloat32(m.F)
	}
	if m.I != 0 {
		e.writeTag(3, wireVarint)
		e.writeVarint(m.I)
	}
	if len(m.S) > 0 {
		e.writeTag(4, wireBytes)
		e.writeBytes(m.S)
	}
	if len(m.Floats) > 0 {
		packed := make([]byte, 4*len(m.Floats))
		for i, v := range m.Floats {
			binary.LittleEndian.PutUint32(packed[i*4:], math.Float32bits(v))
		}
		e.writeTag(6, wireBytes)
		e.writeBytes(packed)
	}
	if len(m.Ints) > 0 {
		sub := &encoder{}
		for _, v := range m.Ints {
			sub.writeVarint(v)
		}
		e.writeTag(7, wireBytes)
		e.writeBytes(sub.data)
	}
	for _, s := range m.Strings {
		e.writeTag(8, wireBytes)
		e.writeBytes(s)
	}
	if m.Type != 0 {
		e.writeTag(20, wireVarint)
		e.writeVarint(int64(m.Type))
	}
}

func (e *encoder) writeOperatorSetID(m *OperatorSetID) {
	if m.Domain != "" {
		e.writeTag(1, wireBytes)
		e.writeBytes([]byte(m.Domain))
	}
	if m.Version != 0 {
		e.writeTag(2, wireVarint)
		e.writeVarint(m.Version)
	}
}

func (e *encoder) writeStringStringEntry(m *StringStringEntry) {
	if m.Key != "" {
		e.writeTag(1, wireBytes)
		e.writeBytes([]byte(m.Key))
	}
	if m.Value != "" {
		e.writeTag(2, wireBytes)
		e.writeBytes([]byte(m.Value))
	}
}

func (e *encoder) writeTag(fieldNum, wireType int) {
	e.writeVarint(int64(fieldNum<<3 | wireType))
}

func (e *encoder) writeVarint(v int64) {
	u := uint64(v)
	for u >= 0x80 {
		e.data = append(e.data, byte(u)|0x80)
		u >>= 7
	}
	e.data = append(e.data, byte(u))
}

func (e *encoder) writeBytes(data []byte) {
	e.writeVarint(int64(len(data)))
	e.data = append(e.data, data...)
}

func (e *encoder) writeFloat32(v float32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	e.data = append(e.data, buf[:]...)
}
