package netdef

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Load reads and parses a NetDef from a file.
func Load(path string) (*NetDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read net definition: %w", err)
	}
	net, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return net, nil
}

// Parse parses a NetDef from bytes.
func Parse(data []byte) (*NetDef, error) {
	p := &parser{data: data}
	net := &NetDef{}
	if err := p.readNetDef(net); err != nil {
		return nil, fmt.Errorf("failed to parse net definition: %w", err)
	}
	return net, nil
}

// parser implements a minimal protobuf wire format decoder.
type parser struct {
	data []byte
	pos  int
}

// Protobuf wire types.
const (
	wireVarint = 0 // int32, int64, bool, enum
	wire64Bit  = 1 // fixed64, double
	wireBytes  = 2 // string, bytes, embedded messages, packed repeated fields
	wire32Bit  = 5 // fixed32, float
)

func (p *parser) readNetDef(m *NetDef) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case netDefFieldName:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Name = string(data)
		case netDefFieldOp:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			op := OperatorDef{}
			if err2 := sub.readOperatorDef(&op); err2 != nil {
				return err2
			}
			m.Ops = append(m.Ops, op)
		case netDefFieldType:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Type = string(data)
		case netDefFieldArg:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			arg := Argument{}
			if err2 := sub.readArgument(&arg); err2 != nil {
				return err2
			}
			m.Args = append(m.Args, arg)
		case netDefFieldExternalInput:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.ExternalInputs = append(m.ExternalInputs, string(data))
		case netDefFieldExternalOutput:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.ExternalOutputs = append(m.ExternalOutputs, string(data))
		default:
			if err := p.skipField(wireType); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) readOperatorDef(m *OperatorDef) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case opFieldInput:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Inputs = append(m.Inputs, string(data))
		case opFieldOutput:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Outputs = append(m.Outputs, string(data))
		case opFieldName:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Name = string(data)
		case opFieldType:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Type = string(data)
		case opFieldArg:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			sub := &parser{data: data}
			arg := Argument{}
			if err2 := sub.readArgument(&arg); err2 != nil {
				return err2
			}
			m.Args = append(m.Args, arg)
		case opFieldEngine:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Engine = string(data)
		default:
			if err := p.skipField(wireType); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) readArgument(m *Argument) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		switch fieldNum {
		case argFieldName:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Name = string(data)
		case argFieldF:
			m.F, err = p.readFloat32()
			if err != nil {
				return err
			}
		case argFieldI:
			m.I, err = p.readVarint()
			if err != nil {
				return err
			}
		case argFieldS:
			m.S, err = p.readBytes()
			if err != nil {
				return err
			}
		case argFieldFloats:
			if wireType == wireBytes {
				// packed repeated
				data, err2 := p.readBytes()
				if err2 != nil {
					return err2
				}
				for i := 0; i+4 <= len(data); i += 4 {
					bits := binary.LittleEndian.Uint32(data[i:])
					m.Floats = append(m.Floats, math.Float32frombits(bits))
				}
				continue
			}
			v, err2 := p.readFloat32()
			if err2 != nil {
				return err2
			}
			m.Floats = append(m.Floats, v)
		case argFieldInts:
			if wireType == wireBytes {
				data, err2 := p.readBytes()
				if err2 != nil {
					return err2
				}
				sub := &parser{data: data}
				for sub.pos < len(sub.data) {
					v, err3 := sub.readVarint()
					if err3 != nil {
						break
					}
					m.Ints = append(m.Ints, v)
				}
				continue
			}
			v, err2 := p.readVarint()
			if err2 != nil {
				return err2
			}
			m.Ints = append(m.Ints, v)
		case argFieldStrings:
			data, err2 := p.readBytes()
			if err2 != nil {
				return err2
			}
			m.Strings = append(m.Strings, data)
		default:
			if err := p.skipField(wireType); err != nil {
				return err
			}
		}
	}
	return nil
}

// readTag reads a protobuf field tag.
func (p *parser) readTag() (fieldNum, wireType int, err error) {
	if p.pos >= len(p.data) {
		return 0, 0, io.EOF
	}
	tag, err := p.readVarint()
	if err != nil {
		return 0, 0, err
	}
	return int(tag >> 3), int(tag & 0x7), nil
}

// readVarint reads a varint-encoded int64.
func (p *parser) readVarint() (int64, error) {
	var result uint64
	var shift uint
	for {
		if p.pos >= len(p.data) {
			return 0, io.EOF
		}
		b := p.data[p.pos]
		p.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
	return int64(result), nil
}

// readBytes reads a length-delimited byte slice.
func (p *parser) readBytes() ([]byte, error) {
	length, err := p.readVarint()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errors.New("negative length")
	}
	end := p.pos + int(length)
	if end > len(p.data) || end < p.pos {
		return nil, io.ErrUnexpectedEOF
	}
	result := p.data[p.pos:end]
	p.pos = end
	return result, nil
}

// readFloat32 reads a 32-bit float.
func (p *parser) readFloat32() (float32, error) {
	if p.pos+4 > len(p.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint32(p.data[p.pos:])
	p.pos += 4
	return math.Float32frombits(bits), nil
}

// skipField skips a field based on wire type.
func (p *parser) skipField(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := p.readVarint()
		return err
	case wire64Bit:
		if p.pos+8 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 8
		return nil
	case wireBytes:
		_, err := p.readBytes()
		return err
	case wire32Bit:
		if p.pos+4 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type: %d", wireType)
	}
}
