// Package export is the public facade for translating legacy net definition
// pairs into interchange models.
package export

import (
	internalexport "github.com/relay-ml/relay/internal/export"
	"github.com/relay-ml/relay/internal/netdef"
	"github.com/relay-ml/relay/internal/onnx"
)

// ValueInfo describes the type and shape of a graph value. The caller
// supplies one for every non-weight input and every output, since legacy net
// definitions carry no type information.
type ValueInfo = internalexport.ValueInfo

// Export builds an interchange model from an init/predict net pair.
// The predict net must carry a name; it becomes the graph name.
func Export(init, predict *netdef.NetDef, valueInfo map[string]ValueInfo) (*onnx.ModelProto, error) {
	return internalexport.Export(init, predict, valueInfo)
}
