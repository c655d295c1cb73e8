package predictor

import (
	"fmt"

	"github.com/relay-ml/relay/internal/tensor"
)

// Top1 returns the index and value of the largest element in a prediction
// tensor. The tensor must be float32 and flatten to a single axis: at most
// one dimension may be greater than one, so (N), (1, N) and (1, N, 1, 1)
// all qualify. Ties resolve to the lowest index.
func Top1(t *tensor.RawTensor) (int, float32, error) {
	if t.DType() != tensor.Float32 {
		return 0, 0, fmt.Errorf("top1 requires float32 tensor, got %s", t.DType())
	}
	shape := t.Shape()
	nonSingleton := 0
	for _, d := range shape {
		if d > 1 {
			nonSingleton++
		}
	}
	if nonSingleton > 1 {
		return 0, 0, fmt.Errorf("top1 requires a single prediction axis, got shape %v", shape)
	}

	data := t.AsFloat32()
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("top1 on empty tensor")
	}

	best := 0
	for i, v := range data {
		if v > data[best] {
			best = i
		}
	}
	return best, data[best], nil
}
