// Package predictor is the public facade for executing legacy networks.
package predictor

import (
	"github.com/relay-ml/relay/internal/netdef"
	internalpredictor "github.com/relay-ml/relay/internal/predictor"
	"github.com/relay-ml/relay/internal/tensor"
)

// Predictor is an executable inference object bound to a predict net and its
// materialized weights.
type Predictor = internalpredictor.Predictor

// New builds a Predictor from an init/predict net pair.
func New(init, predict *netdef.NetDef, backend tensor.Backend) (*Predictor, error) {
	return internalpredictor.New(init, predict, backend)
}

// MaterializeInit interprets an init net's fill operators into named weight
// tensors.
func MaterializeInit(init *netdef.NetDef) (map[string]*tensor.RawTensor, error) {
	return internalpredictor.MaterializeInit(init)
}

// Top1 returns the index and value of the largest element in a prediction
// tensor. Ties resolve to the lowest index.
func Top1(t *tensor.RawTensor) (int, float32, error) {
	return internalpredictor.Top1(t)
}

// SupportedOps returns the legacy operator types the predictor can execute.
func SupportedOps() []string {
	return internalpredictor.SupportedOps()
}
