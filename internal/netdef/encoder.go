package netdef

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Marshal serializes a NetDef into protobuf wire format.
func Marshal(net *NetDef) []byte {
	e := &encoder{}
	e.writeNetDef(net)
	return e.data
}

// Save writes a serialized NetDef to a file, overwriting it if present.
func Save(net *NetDef, path string) error {
	if err := os.WriteFile(path, Marshal(net), 0o644); err != nil {
		return fmt.Errorf("failed to write net definition: %w", err)
	}
	return nil
}

// encoder implements a minimal protobuf wire format encoder, the inverse of
// the decoder in parser.go.
type encoder struct {
	data []byte
}

func (e *encoder) writeNetDef(m *NetDef) {
	if m.Name != "" {
		e.writeTag(netDefFieldName, wireBytes)
		e.writeBytes([]byte(m.Name))
	}
	for i := range m.Ops {
		sub := &encoder{}
		sub.writeOperatorDef(&m.Ops[i])
		e.writeTag(netDefFieldOp, wireBytes)
		e.writeBytes(sub.data)
	}
	if m.Type != "" {
		e.writeTag(netDefFieldType, wireBytes)
		e.writeBytes([]byte(m.Type))
	}
	for i := range m.Args {
		sub := &encoder{}
		sub.writeArgument(&m.Args[i])
		e.writeTag(netDefFieldArg, wireBytes)
		e.writeBytes(sub.data)
	}
	for _, name := range m.ExternalInputs {
		e.writeTag(netDefFieldExternalInput, wireBytes)
		e.writeBytes([]byte(name))
	}
	for _, name := range m.ExternalOutputs {
		e.writeTag(netDefFieldExternalOutput, wireBytes)
		e.writeBytes([]byte(name))
	}
}

func (e *encoder) writeOperatorDef(m *OperatorDef) {
	for _, name := range m.Inputs {
		e.writeTag(opFieldInput, wireBytes)
		e.writeBytes([]byte(name))
	}
	for _, name := range m.Outputs {
		e.writeTag(opFieldOutput, wireBytes)
		e.writeBytes([]byte(name))
	}
	if m.Name != "" {
		e.writeTag(opFieldName, wireBytes)
		e.writeBytes([]byte(m.Name))
	}
	if m.Type != "" {
		e.writeTag(opFieldType, wireBytes)
		e.writeBytes([]byte(m.Type))
	}
	for i := range m.Args {
		sub := &encoder{}
		sub.writeArgument(&m.Args[i])
		e.writeTag(opFieldArg, wireBytes)
		e.writeBytes(sub.data)
	}
	if m.Engine != "" {
		e.writeTag(opFieldEngine, wireBytes)
		e.writeBytes([]byte(m.Engine))
	}
}

func (e *encoder) writeArgument(m *Argument) {
	if m.Name != "" {
		e.writeTag(argFieldName, wireBytes)
		e.writeBytes([]byte(m.Name))
	}
	if m.F != 0 {
		e.writeTag(argFieldF, wire32Bit)
		e.writeFloat32(m.F)
	}
	if m.I != 0 {
		e.writeTag(argFieldI, wireVarint)
		e.writeVarint(m.I)
	}
	if len(m.S) > 0 {
		e.writeTag(argFieldS, wireBytes)
		e.writeBytes(m.S)
	}
	if len(m.Floats) > 0 {
		// packed repeated
		packed := make([]byte, 4*len(m.Floats))
		for i, v := range m.Floats {
			binary.LittleEndian.PutUint32(packed[i*4:], math.Float32bits(v))
		}
		e.writeTag(argFieldFloats, wireBytes)
		e.writeBytes(packed)
	}
	if len(m.Ints) > 0 {
		sub := &encoder{}
		for _, v := range m.Ints {
			sub.writeVarint(v)
		}
		e.writeTag(argFieldInts, wireBytes)
		e.writeBytes(sub.data)
	}
	for _, s := range m.Strings {
		e.writeTag(argFieldStrings, wireBytes)
		e.writeBytes(s)
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
