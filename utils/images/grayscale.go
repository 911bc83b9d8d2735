package images

import (
	"image"
	"image/color"
)

// Grayscale returns 8 bit gray copy of img when every pixel is opaque and has
// R==G==B, so no information is lost. Old photographs often are.
func Grayscale(img image.Image) (*image.Gray, bool) {
	if g, ok := img.(*image.Gray); ok {
		return g, true
	}

	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A != 0xff || c.R != c.G || c.G != c.B {
				return nil, false
			}
			gray.SetGray(x, y, color.Gray{Y: c.R})
		}
	}
	return gray, true
}
