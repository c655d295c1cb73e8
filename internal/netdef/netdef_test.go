package netdef

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func sampleNet() *NetDef {
	return &NetDef{
		Name: "test_net",
		Ops: []OperatorDef{
			{
				Type:    "Conv",
				Name:    "conv1",
				Inputs:  []string{"data", "conv1_w", "conv1_b"},
				Outputs: []string{"conv1_out"},
				Args: []Argument{
					{Name: "stride", I: 2},
					{Name: "pad", I: 3},
					{Name: "kernel", I: 7},
				},
			},
			{
				Type:    "Relu",
				Inputs:  []string{"conv1_out"},
				Outputs: []string{"relu1_out"},
			},
		},
		ExternalInputs:  []string{"data", "conv1_w", "conv1_b"},
		ExternalOutputs: []string{"relu1_out"},
	}
}

func TestMarshalParseRoundTrip(t *testing.T) {
	original := sampleNet()

	data := Marshal(original)
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if parsed.Name != original.Name {
		t.Errorf("Name = %q, want %q", parsed.Name, original.Name)
	}
	if len(parsed.Ops) != 2 {
		t.Fatalf("Ops = %d, want 2", len(parsed.Ops))
	}

	conv := parsed.Ops[0]
	if conv.Type != "Conv" || conv.Name != "conv1" {
		t.Errorf("op[0] = %s/%s, want Conv/conv1", conv.Type, conv.Name)
	}
	if len(conv.Inputs) != 3 || conv.Inputs[1] != "conv1_w" {
		t.Errorf("op[0] inputs = %v", conv.Inputs)
	}
	if got := GetArgInt(&conv, "stride", 1); got != 2 {
		t.Errorf("stride = %d, want 2", got)
	}
	if got := GetArgInt(&conv, "pad", 0); got != 3 {
		t.Errorf("pad = %d, want 3", got)
	}

	if len(parsed.ExternalInputs) != 3 {
		t.Errorf("ExternalInputs = %v", parsed.ExternalInputs)
	}
	if len(parsed.ExternalOutputs) != 1 || parsed.ExternalOutputs[0] != "relu1_out" {
		t.Errorf("ExternalOutputs = %v", parsed.ExternalOutputs)
	}
}

func TestRoundTripFloatArgs(t *testing.T) {
	net := &NetDef{
		Ops: []OperatorDef{
			{
				Type:    "GivenTensorFill",
				Outputs: []string{"w"},
				Args: []Argument{
					{Name: "shape", Ints: []int64{2, 2}},
					{Name: "values", Floats: []float32{0.5, -1.5, 2.25, 0}},
				},
			},
		},
	}

	parsed, err := Parse(Marshal(net))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	op := parsed.Ops[0]
	shape := GetArgInts(&op, "shape")
	if len(shape) != 2 || shape[0] != 2 || shape[1] != 2 {
		t.Errorf("shape = %v, want [2 2]", shape)
	}
	values := GetArgFloats(&op, "values")
	want := []float32{0.5, -1.5, 2.25, 0}
	if len(values) != len(want) {
		t.Fatalf("values = %v, want %v", values, want)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("values[%d] = %v, want %v", i, values[i], want[i])
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.pb")
	original := sampleNet()

	if err := Save(original, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != original.Name {
		t.Errorf("Name = %q, want %q", loaded.Name, original.Name)
	}
	if len(loaded.Ops) != len(original.Ops) {
		t.Errorf("Ops = %d, want %d", len(loaded.Ops), len(original.Ops))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.pb"))
	if err == nil {
		t.Fatal("Load of missing file succeeded")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestParseMalformedData(t *testing.T) {
	// Field 2 (op, embedded message) with a length running past the buffer.
	malformed := []byte{0x12, 0xFF, 0x01, 0x00}
	if _, err := Parse(malformed); err == nil {
		t.Error("malformed data accepted")
	}
}

func TestParseTruncatedVarint(t *testing.T) {
	// A varint with the continuation bit set and no following byte.
	if _, err := Parse([]byte{0x30, 0x80}); err == nil {
		t.Error("truncated varint accepted")
	}
}

func TestParseEmpty(t *testing.T) {
	net, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse of empty data failed: %v", err)
	}
	if net.Name != "" || len(net.Ops) != 0 {
		t.Errorf("empty parse produced %+v", net)
	}
}

func TestHasArg(t *testing.T) {
	op := &OperatorDef{Args: []Argument{{Name: "kernel", I: 3}}}
	if !HasArg(op, "kernel") {
		t.Error("HasArg missed existing argument")
	}
	if HasArg(op, "stride") {
		t.Error("HasArg found missing argument")
	}
	if got := GetArgInt(op, "stride", 1); got != 1 {
		t.Errorf("default not returned: got %d", got)
	}
}
