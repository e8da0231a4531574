// Package visualiser renders flow fields: HSV colour coding, quiver plots
// over the source frame and an HTML report.
package visualiser

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/banshee-data/opticflow/internal/flow"
)

// EncodeHSV colour-codes f: hue follows the flow direction, value the
// magnitude relative to the largest vector, saturation is full.
func EncodeHSV(f *flow.Field) *image.RGBA {
	w, h := f.Width(), f.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	maxMag := f.MaxMagnitude()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u, v := f.At(x, y)
			hue := math.Mod((math.Atan2(v, u)+math.Pi)/(2*math.Pi)*360, 360)
			val := math.Hypot(u, v) / (maxMag + 1e-6)
			r, g, b := colorful.Hsv(hue, 1, val).Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}
