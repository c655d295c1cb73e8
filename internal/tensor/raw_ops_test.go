package tensor

import (
	"math"
	"testing"
)

func TestReLU(t *testing.T) {
	x, _ := FromFloat32([]float32{-2, -0.5, 0, 0.5, 2}, Shape{5})
	result, err := ReLU(x)
	if err != nil {
		t.Fatalf("ReLU failed: %v", err)
	}
	want := []float32{0, 0, 0, 0.5, 2}
	got := result.AsFloat32()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ReLU[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSoftmax(t *testing.T) {
	x, _ := FromFloat32([]float32{1, 2, 3, 4}, Shape{1, 4})
	result, err := Softmax(x, 1)
	if err != nil {
		t.Fatalf("Softmax failed: %v", err)
	}
	got := result.AsFloat32()

	var sum float32
	for _, v := range got {
		sum += v
	}
	if math.Abs(float64(sum)-1) > 1e-6 {
		t.Errorf("softmax sum = %v, want 1", sum)
	}
	// Monotone: larger input, larger probability.
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Errorf("softmax not monotone at %d: %v", i, got)
		}
	}
}

func TestSoftmaxUniform(t *testing.T) {
	// All-equal inputs give a uniform distribution, the zero-input case.
	x, _ := FromFloat32(make([]float32, 4), Shape{1, 4})
	result, err := Softmax(x, 1)
	if err != nil {
		t.Fatalf("Softmax failed: %v", err)
	}
	for i, v := range result.AsFloat32() {
		if math.Abs(float64(v)-0.25) > 1e-6 {
			t.Errorf("softmax[%d] = %v, want 0.25", i, v)
		}
	}
}

func TestSoftmaxAxisOutOfRange(t *testing.T) {
	x, _ := FromFloat32([]float32{1, 2}, Shape{2})
	if _, err := Softmax(x, 3); err == nil {
		t.Error("out of range axis accepted")
	}
}

func TestFlatten(t *testing.T) {
	x, _ := FromFloat32(make([]float32, 24), Shape{2, 3, 2, 2})
	result, err := Flatten(x, 1)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if !result.Shape().Equal(Shape{2, 12}) {
		t.Errorf("shape = %v, want [2 12]", result.Shape())
	}

	result, err = Flatten(x, 2)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if !result.Shape().Equal(Shape{6, 4}) {
		t.Errorf("shape = %v, want [6 4]", result.Shape())
	}
}

func TestReshape(t *testing.T) {
	x, _ := FromFloat32([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	result, err := Reshape(x, Shape{3, 2})
	if err != nil {
		t.Fatalf("Reshape failed: %v", err)
	}
	if !result.Shape().Equal(Shape{3, 2}) {
		t.Errorf("shape = %v, want [3 2]", result.Shape())
	}

	if _, err := Reshape(x, Shape{4, 2}); err == nil {
		t.Error("element count mismatch accepted")
	}
}
