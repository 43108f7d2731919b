package classifier

import (
	"context"
	"fmt"
	"math"

	"github.com/jo-hoe/lesionscan/internal/backend/imageprocessing"
)

// Classifier maps a [1, 224, 224, 3] image tensor to a single score in [0, 1].
// Implementations must be safe for concurrent use.
type Classifier interface {
	Score(ctx context.Context, tensor *imageprocessing.Tensor) (float32, error)
	Close() error
}

// ScoreFunc adapts a plain function to the Classifier interface.
type ScoreFunc func(ctx context.Context, tensor *imageprocessing.Tensor) (float32, error)

func (f ScoreFunc) Score(ctx context.Context, tensor *imageprocessing.Tensor) (float32, error) {
	if err := validateInput(tensor); err != nil {
		return 0, err
	}
	score, err := f(ctx, tensor)
	if err != nil {
		return 0, err
	}
	return score, checkScore(score)
}

func (f ScoreFunc) Close() error {
	return nil
}

func validateInput(tensor *imageprocessing.Tensor) error {
	if tensor == nil {
		return fmt.Errorf("input tensor is nil")
	}
	want := imageprocessing.InputShape()
	if len(tensor.Shape) != len(want) {
		return fmt.Errorf("input tensor has rank %d, expected %d", len(tensor.Shape), len(want))
	}
	for i := range want {
		if tensor.Shape[i] != want[i] {
			return fmt.Errorf("input tensor shape %v, expected %v", tensor.Shape, want)
		}
	}
	if len(tensor.Data) != tensor.Len() {
		return fmt.Errorf("input tensor holds %d values, shape requires %d", len(tensor.Data), tensor.Len())
	}
	return nil
}

func checkScore(score float32) error {
	v := float64(score)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("model produced non-finite score %v", score)
	}
	return nil
}
