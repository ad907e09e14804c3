// Package imageio converts between image files and the numeric rasters the
// compression core operates on.
//
// A [Raster] is a height × width × channels array of float64 samples in
// row-major order. The core treats samples as opaque numeric vectors; this
// package decides what the channels mean via a [Colorspace]:
//
//   - [ColorspaceRGB]: channels are R, G, B in [0, 255]
//   - [ColorspaceLab]: channels are CIE L*a*b*, giving perceptually uniform
//     colour distances during cell merging
//
// File decoding and encoding go through github.com/disintegration/imaging,
// colour conversion through github.com/lucasb-eyer/go-colorful.
package imageio

import (
	"github.com/voronoize/voronoize/pkg/errors"
)

// Raster is a dense height × width × channels array of float64 samples.
// Pixels are stored row-major: sample (row, col, ch) lives at
// pix[(row*width+col)*channels+ch].
type Raster struct {
	height   int
	width    int
	channels int
	pix      []float64
}

// NewRaster allocates a zero-filled raster with the given dimensions.
// Returns INVALID_INPUT if any dimension is not positive.
func NewRaster(height, width, channels int) (*Raster, error) {
	if height <= 0 || width <= 0 || channels <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"raster dimensions must be positive, got %dx%dx%d", height, width, channels)
	}
	return &Raster{
		height:   height,
		width:    width,
		channels: channels,
		pix:      make([]float64, height*width*channels),
	}, nil
}

// Height returns the number of pixel rows.
func (r *Raster) Height() int { return r.height }

// Width returns the number of pixel columns.
func (r *Raster) Width() int { return r.width }

// Channels returns the number of samples per pixel.
func (r *Raster) Channels() int { return r.channels }

// PixelCount returns height × width.
func (r *Raster) PixelCount() int { return r.height * r.width }

// At returns the channel vector of pixel (row, col).
// The returned slice aliases the raster's backing storage: writes through
// it modify the raster. Callers needing an independent copy must clone.
func (r *Raster) At(row, col int) []float64 {
	off := (row*r.width + col) * r.channels
	return r.pix[off : off+r.channels : off+r.channels]
}

// Set copies v into the channel vector of pixel (row, col).
func (r *Raster) Set(row, col int, v []float64) {
	copy(r.At(row, col), v)
}

// Pix returns the backing sample slice. Useful for bulk comparisons in tests.
func (r *Raster) Pix() []float64 { return r.pix }

// Equal reports whether two rasters have identical dimensions and samples.
func (r *Raster) Equal(o *Raster) bool {
	if r.height != o.height || r.width != o.width || r.channels != o.channels {
		return false
	}
	for i, v := range r.pix {
		if o.pix[i] != v {
			return false
		}
	}
	return true
}
