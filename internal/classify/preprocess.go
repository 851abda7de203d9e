package classify

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// DefaultInputSize is the side of the square model input.
const DefaultInputSize = 32

// Preprocess turns an image into a size*size vector in [0,1], row-major.
// The image is flattened onto white, converted to grayscale and resized
// bilinearly. With invert set, dark ink on light paper becomes bright ink
// on black, which is the polarity the training set uses.
func Preprocess(img image.Image, size int, invert bool) []float32 {
	if size <= 0 {
		size = DefaultInputSize
	}

	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Over)

	small := resize.Resize(uint(size), uint(size), gray, resize.Bilinear)

	out := make([]float32, size*size)
	sb := small.Bounds()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := color.GrayModel.Convert(small.At(sb.Min.X+x, sb.Min.Y+y)).(color.Gray).Y
			if invert {
				v = 255 - v
			}
			out[y*size+x] = float32(v) / 255
		}
	}
	return out
}
