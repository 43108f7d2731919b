package imageprocessing

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxSourcePixels bounds the decoded size of an upload. A compressed file
// under the byte limit can still expand to gigabytes of pixels.
const MaxSourcePixels = 40_000_000

// DecodeError reports bytes that do not hold a supported still image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode turns an encoded JPEG, PNG, GIF, BMP, TIFF, WebP or SVG image into
// the classifier input tensor: nearest-neighbour resized to 224x224, RGB, values
// in [0, 255], shape [1, 224, 224, 3].
func Decode(data []byte) (tensor *Tensor, err error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: fmt.Errorf("empty input")}
	}

	// Some decoders panic on crafted input; never let that reach the caller.
	defer func() {
		if r := recover(); r != nil {
			tensor = nil
			err = &DecodeError{Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	if isSVG(data) {
		img, err := rasterizeSVG(data)
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		return Normalize(img)
	}

	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if pixels := int64(config.Width) * int64(config.Height); pixels > MaxSourcePixels {
		return nil, &DecodeError{Err: fmt.Errorf("image is %dx%d, larger than %d pixels", config.Width, config.Height, MaxSourcePixels)}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return Normalize(img)
}

// Normalize resizes an already decoded image into the classifier input tensor.
// A panic while sampling the source, on any row worker, is returned as a
// DecodeError.
func Normalize(img image.Image) (tensor *Tensor, err error) {
	defer func() {
		if r := recover(); r != nil {
			tensor = nil
			err = &DecodeError{Err: fmt.Errorf("sampling panic: %v", r)}
		}
	}()

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &DecodeError{Err: fmt.Errorf("image has no pixels (%dx%d)", bounds.Dx(), bounds.Dy())}
	}

	xMap, yMap := buildIndexMaps(bounds.Dx(), bounds.Dy(), InputSize, InputSize)
	out := newInputTensor()
	drawScaledNearest(out.Data, img, bounds.Min, xMap, yMap)
	return out, nil
}
