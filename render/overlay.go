// Package render draws fusion results back onto the camera image. It is a
// collaborator of the fusion pipeline: poses and point subsets are computed
// and published whether or not rendering succeeds.
package render

import (
	"image"
	// registered for image.Decode
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// matchedPointRadius is the radius in pixels of each drawn marker.
const matchedPointRadius = 5

// Overlay draws a filled red circle at every matched pixel on a copy of the
// input image. The input image is not modified.
func Overlay(img image.Image, pixels []image.Point) (image.Image, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 0, 0)
	for _, px := range pixels {
		dc.DrawCircle(float64(px.X), float64(px.Y), matchedPointRadius)
		dc.Fill()
	}
	return dc.Image(), nil
}

// OverlayToPNGFile renders the overlay and writes it to path as PNG.
func OverlayToPNGFile(path string, img image.Image, pixels []image.Point) error {
	overlaid, err := Overlay(img, pixels)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, overlaid)
}

// LoadImageFromFile decodes an image from disk for overlay rendering. A
// decode failure here is fatal to the overlay only, never to the already
// computed fusion output.
func LoadImageFromFile(path string) (image.Image, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening image file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding image")
	}
	return img, nil
}
