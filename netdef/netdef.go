// Package netdef is the public facade for reading and writing legacy
// two-file network definitions.
//
// A legacy network is split across an init net, whose operators materialize
// the weight tensors, and a predict net, whose operators describe the
// computation. Neither file records input types or shapes.
package netdef

import (
	"github.com/relay-ml/relay/internal/netdef"
)

// NetDef is a serialized network definition.
type NetDef = netdef.NetDef

// OperatorDef is a single operator inside a NetDef.
type OperatorDef = netdef.OperatorDef

// Argument is a named operator argument.
type Argument = netdef.Argument

// Load reads and parses a NetDef from a file.
func Load(path string) (*NetDef, error) {
	return netdef.Load(path)
}

// Parse parses a NetDef from bytes.
func Parse(data []byte) (*NetDef, error) {
	return netdef.Parse(data)
}

// Marshal serializes a NetDef into protobuf wire format.
func Marshal(net *NetDef) []byte {
	return netdef.Marshal(net)
}

// Save writes a serialized NetDef to a file, overwriting it if present.
func Save(net *NetDef, path string) error {
	return netdef.Save(net, path)
}
