// Package netdef implements the legacy two-file network definition format.
//
// A network is serialized as a pair of NetDef protobuf messages: an init net
// whose operators fill weight tensors, and a predict net describing the
// computation graph. The format does not self-describe input shapes or
// types; callers supply those separately when exporting.
package netdef

// NetDef protobuf data structures (hand-written).

// NetDef represents a serialized network definition.
type NetDef struct {
	Name            string        // Net name (may be empty on disk)
	Ops             []OperatorDef // Operators in execution order
	Type            string        // Execution type (unused, kept for fidelity)
	Args            []Argument    // Net-level arguments
	ExternalInputs  []string      // Names the net consumes but does not produce
	ExternalOutputs []string      // Names the net produces for the caller
}

// OperatorDef represents a single operator.
type OperatorDef struct {
	Inputs  []string   // Input tensor names
	Outputs []string   // Output tensor names
	Name    string     // Operator name (optional)
	Type    string     // Operator type (e.g., "Conv", "FC", "Relu")
	Args    []Argument // Operator arguments
	Engine  string     // Preferred execution engine (unused)
}

// Argument is a named value attached to a net or an operator.
// Exactly one of the value fields is meaningful per argument.
type Argument struct {
	Name    string    // Argument name
	F       float32   // Float value
	I       int64     // Integer value
	S       []byte    // String/bytes value
	Floats  []float32 // Float array
	Ints    []int64   // Integer array
	Strings [][]byte  // String array
}

// NetDef wire-format field numbers.
const (
	netDefFieldName           = 1
	netDefFieldOp             = 2
	netDefFieldType           = 3
	netDefFieldArg            = 6
	netDefFieldExternalInput  = 7
	netDefFieldExternalOutput = 8
)

// OperatorDef wire-format field numbers.
const (
	opFieldInput  = 1
	opFieldOutput = 2
	opFieldName   = 3
	opFieldType   = 4
	opFieldArg    = 5
	opFieldEngine = 7
)

// Argument wire-format field numbers.
const (
	argFieldName    = 1
	argFieldF       = 2
	argFieldI       = 3
	argFieldS       = 4
	argFieldFloats  = 5
	argFieldInts    = 6
	argFieldStrings = 7
)

// GetArgInt returns an integer argument or a default value.
func GetArgInt(op *OperatorDef, name string, defaultVal int64) int64 {
	for i := range op.Args {
		if op.Args[i].Name == name {
			return op.Args[i].I
		}
	}
	return defaultVal
}

// GetArgInts returns an integer array argument, or nil if absent.
func GetArgInts(op *OperatorDef, name string) []int64 {
	for i := range op.Args {
		if op.Args[i].Name == name {
			return op.Args[i].Ints
		}
	}
	return nil
}

// GetArgFloat returns a float argument or a default value.
func GetArgFloat(op *OperatorDef, name string, defaultVal float32) float32 {
	for i := range op.Args {
		if op.Args[i].Name == name {
			return op.Args[i].F
		}
	}
	return defaultVal
}

// GetArgFloats returns a float array argument, or nil if absent.
func GetArgFloats(op *OperatorDef, name string) []float32 {
	for i := range op.Args {
		if op.Args[i].Name == name {
			return op.Args[i].Floats
		}
	}
	return nil
}

// HasArg reports whether the operator carries the named argument.
func HasArg(op *OperatorDef, name string) bool {
	for i := range op.Args {
		if op.Args[i].Name == name {
			return true
		}
	}
	return false
}
