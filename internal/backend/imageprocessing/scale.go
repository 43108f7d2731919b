package imageprocessing

import (
	"image"
	"image/color"
)

// buildIndexMaps maps every destination column/row to its nearest source
// column/row using floor(dst * in / out), without corner alignment or
// half-pixel centres.
func buildIndexMaps(originalWidth, originalHeight, scaledWidth, scaledHeight int) ([]int, []int) {
	xMap := make([]int, scaledWidth)
	yMap := make([]int, scaledHeight)
	for x := 0; x < scaledWidth; x++ {
		xMap[x] = x * originalWidth / scaledWidth
		if xMap[x] >= originalWidth {
			xMap[x] = originalWidth - 1
		}
	}
	for y := 0; y < scaledHeight; y++ {
		yMap[y] = y * originalHeight / scaledHeight
		if yMap[y] >= originalHeight {
			yMap[y] = originalHeight - 1
		}
	}
	return xMap, yMap
}

// drawScaledNearest samples src at the mapped coordinates and writes the
// 8-bit RGB values as floats into dst (HWC order). Alpha is discarded.
func drawScaledNearest(dst []float32, src image.Image, origin image.Point, xMap, yMap []int) {
	width := len(xMap)
	parallelFor(len(yMap), func(y int) {
		srcY := origin.Y + yMap[y]
		row := y * width * Channels
		for x := 0; x < width; x++ {
			r, g, b := rgb8(src.At(origin.X+xMap[x], srcY))
			i := row + x*Channels
			dst[i] = float32(r)
			dst[i+1] = float32(g)
			dst[i+2] = float32(b)
		}
	})
}

// rgb8 returns the non-premultiplied 8-bit channels of c, which is what a
// JPEG/PNG decoder hands to the model when alpha is dropped.
func rgb8(c color.Color) (uint8, uint8, uint8) {
	switch v := c.(type) {
	case color.RGBA:
		if v.A == 0xff {
			return v.R, v.G, v.B
		}
	case color.Gray:
		return v.Y, v.Y, v.Y
	case color.YCbCr:
		return color.YCbCrToRGB(v.Y, v.Cb, v.Cr)
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R, n.G, n.B
}
