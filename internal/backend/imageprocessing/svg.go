package imageprocessing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// svgSniffLength is how much of the input is inspected for an SVG root.
const svgSniffLength = 4096

// isSVG reports whether data looks like an SVG document.
func isSVG(data []byte) bool {
	n := min(len(data), svgSniffLength)
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte(`xmlns="http://www.w3.org/2000/svg"`)) ||
		bytes.Contains(header, []byte(`xmlns='http://www.w3.org/2000/svg'`))
}

// rasterizeSVG renders an SVG straight onto a white InputSize x InputSize
// canvas, stretched like every other input.
func rasterizeSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(InputSize), float64(InputSize))

	canvas := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(InputSize, InputSize, canvas, canvas.Bounds())
	dasher := rasterx.NewDasher(InputSize, InputSize, scanner)
	icon.Draw(dasher, 1.0)
	return canvas, nil
}
