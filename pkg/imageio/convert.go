package imageio

import (
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/voronoize/voronoize/pkg/errors"
)

// Colorspace selects how image pixels map onto raster channel vectors.
type Colorspace string

const (
	// ColorspaceRGB stores R, G, B in [0, 255].
	ColorspaceRGB Colorspace = "rgb"
	// ColorspaceLab stores CIE L*a*b* components. Colour distances in Lab
	// approximate perceptual difference, which makes greedy merges pick
	// visually similar neighbours first.
	ColorspaceLab Colorspace = "lab"
)

// ValidColorspaces is the set of supported colorspaces.
var ValidColorspaces = map[Colorspace]bool{
	ColorspaceRGB: true,
	ColorspaceLab: true,
}

// Load opens an image file and converts it to a raster in the given colorspace.
// Returns FILE_NOT_FOUND if the path does not exist, UNSUPPORTED_FORMAT if the
// file cannot be decoded, and INVALID_INPUT for images with no pixels.
func Load(path string, cs Colorspace) (*Raster, error) {
	img, err := imaging.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s was not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeUnsupportedFormat, err, "decode %s", path)
	}
	return FromImage(img, cs)
}

// FromImage converts a decoded image to a 3-channel raster.
// Returns INVALID_INPUT for images with zero area.
func FromImage(img image.Image, cs Colorspace) (*Raster, error) {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	if h == 0 || w == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image has no pixels (%dx%d)", w, h)
	}

	r, err := NewRaster(h, w, 3)
	if err != nil {
		return nil, err
	}
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			c, ok := colorful.MakeColor(img.At(bounds.Min.X+col, bounds.Min.Y+row))
			if !ok {
				// Fully transparent pixel; treat as black.
				c = colorful.Color{}
			}
			r.Set(row, col, encodePixel(c, cs))
		}
	}
	return r, nil
}

// ToImage converts a 3-channel raster back to an NRGBA image.
// Returns INVALID_INPUT for rasters that do not carry three channels.
func ToImage(r *Raster, cs Colorspace) (*image.NRGBA, error) {
	if r.Channels() != 3 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"raster has %d channels, need 3 for image output", r.Channels())
	}
	img := image.NewNRGBA(image.Rect(0, 0, r.Width(), r.Height()))
	for row := 0; row < r.Height(); row++ {
		for col := 0; col < r.Width(); col++ {
			c := decodePixel(r.At(row, col), cs)
			cr, cg, cb := c.Clamped().RGB255()
			img.SetNRGBA(col, row, color.NRGBA{R: cr, G: cg, B: cb, A: 255})
		}
	}
	return img, nil
}

// Save encodes a raster to a file, with the format inferred from the extension.
func Save(r *Raster, path string, cs Colorspace) error {
	img, err := ToImage(r, cs)
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrap(errors.ErrCodeUnsupportedFormat, err, "save %s", path)
	}
	return nil
}

// EncodeColor converts a colour to the channel vector used by rasters in the
// given colorspace. Fully transparent colours encode as black.
func EncodeColor(c color.Color, cs Colorspace) []float64 {
	cc, ok := colorful.MakeColor(c)
	if !ok {
		cc = colorful.Color{}
	}
	return encodePixel(cc, cs)
}

// DecodeColor converts a channel vector in the given colorspace back to an
// opaque 8-bit colour.
func DecodeColor(v []float64, cs Colorspace) color.NRGBA {
	cr, cg, cb := decodePixel(v, cs).Clamped().RGB255()
	return color.NRGBA{R: cr, G: cg, B: cb, A: 255}
}

func encodePixel(c colorful.Color, cs Colorspace) []float64 {
	if cs == ColorspaceLab {
		l, a, b := c.Lab()
		return []float64{l, a, b}
	}
	return []float64{c.R * 255, c.G * 255, c.B * 255}
}

func decodePixel(v []float64, cs Colorspace) colorful.Color {
	if cs == ColorspaceLab {
		return colorful.Lab(v[0], v[1], v[2])
	}
	return colorful.Color{R: v[0] / 255, G: v[1] / 255, B: v[2] / 255}
}
