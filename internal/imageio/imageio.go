// Package imageio converts between image files and intensity frames.
//
// Frames are grayscale with values in [0,1]. Colour images are reduced with
// the ITU-R BT.601 luma weights. PNG, JPEG, GIF, BMP, TIFF and WebP are
// decoded; PNG, BMP and TIFF can be written.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/banshee-data/opticflow/internal/flow"
	"github.com/banshee-data/opticflow/internal/fsutil"
)

// BT.601 luma weights.
const (
	weightR = 0.299
	weightG = 0.587
	weightB = 0.114
)

// LoadFrame decodes the image at path and converts it to a frame.
func LoadFrame(fsys fsutil.FileSystem, path string) (*flow.Frame, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	frame, err := FrameFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%s image %s: %w", format, path, err)
	}
	return frame, nil
}

// FrameFromImage converts img to a [0,1] intensity frame. Alpha is ignored
// for opaque pixels; translucent pixels are treated as premultiplied.
func FrameFromImage(img image.Image) (*flow.Frame, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]float64, w*h)

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[i : i+w]
			for x, v := range row {
				pix[y*w+x] = float64(v) / 255
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				pix[y*w+x] = (weightR*float64(r) + weightG*float64(g) + weightB*float64(bl)) / 0xffff
			}
		}
	}
	return flow.NewFrame(w, h, pix)
}

// ToGray quantises f to an 8-bit grayscale image, clamping to [0,1].
func ToGray(f *flow.Frame) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width(), f.Height()))
	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			v := math.Max(0, math.Min(1, f.At(x, y)))
			img.SetGray(x, y, color.Gray{Y: uint8(math.Round(v * 255))})
		}
	}
	return img
}

// SaveGray writes f as an 8-bit grayscale image. The encoder is chosen by
// extension: .png, .bmp, .tif or .tiff.
func SaveGray(fsys fsutil.FileSystem, path string, f *flow.Frame) error {
	encode, err := encoderFor(path)
	if err != nil {
		return err
	}
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := encode(w, ToGray(f)); err != nil {
		w.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return w.Close()
}

func encoderFor(path string) (func(io.Writer, image.Image) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode, nil
	case ".bmp":
		return bmp.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	default:
		return nil, fmt.Errorf("unsupported image extension %q", filepath.Ext(path))
	}
}
