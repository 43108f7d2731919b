package imageprocessing

const (
	// InputSize is the square edge length the classifier expects.
	InputSize = 224
	// Channels is the number of colour channels fed to the classifier (RGB).
	Channels = 3
)

// Tensor is a dense float32 array in NHWC layout.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// InputShape returns the fixed classifier input shape [1, 224, 224, 3].
func InputShape() []int64 {
	return []int64{1, InputSize, InputSize, Channels}
}

func newInputTensor() *Tensor {
	return &Tensor{
		Shape: InputShape(),
		Data:  make([]float32, InputSize*InputSize*Channels),
	}
}

// Len returns the number of elements implied by Shape.
func (t *Tensor) Len() int {
	n := 1
	for _, d := range t.Shape {
		n *= int(d)
	}
	return n
}

// At returns the channel value of pixel (x, y) of the first batch entry.
func (t *Tensor) At(x, y, c int) float32 {
	width := int(t.Shape[2])
	channels := int(t.Shape[3])
	return t.Data[(y*width+x)*channels+c]
}
