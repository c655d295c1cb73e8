package tensor

// Backend defines the interface compute backends must implement.
// Both the legacy predictor and the interchange runner execute their graphs
// through a Backend, so a single implementation guarantees numerical parity
// between the two sides of a conversion.
type Backend interface {
	// Element-wise addition with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// Convolutional operations
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	MaxPool2D(input *RawTensor, kernelSize, stride, padding int) *RawTensor
	AveragePool2D(input *RawTensor, kernelSize, stride, padding int) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations
	MulScalar(x *RawTensor, scalar float32) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
