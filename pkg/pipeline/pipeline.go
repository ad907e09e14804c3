// Package pipeline provides the core compression pipeline for voronoize.
//
// This package implements the complete build → contract → rasterize pipeline
// that can be used by CLI and API components. By centralizing this logic, we
// ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: Convert the input image into a cell graph, one cell per pixel
//  2. Contract: Greedily merge the most similar adjacent cells until the
//     edge count drops to the requested ratio
//  3. Rasterize: Paint every pixel with the colour of its nearest surviving
//     cell
//
// An optional palette step between contract and rasterize snaps the surviving
// cell colours to a reduced palette.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Ratio: 0.5}
//	result, err := runner.Execute(ctx, "input.png", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	img := result.Encoded // PNG bytes
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/voronoize/voronoize/pkg/cache"
	"github.com/voronoize/voronoize/pkg/cellgraph"
	"github.com/voronoize/voronoize/pkg/errors"
	"github.com/voronoize/voronoize/pkg/imageio"
	"github.com/voronoize/voronoize/pkg/palette"
	"github.com/voronoize/voronoize/pkg/raster"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultRatio keeps half of the initial edges, matching the classic
	// "merge until half the edges remain" behaviour.
	DefaultRatio = 0.5

	// DefaultAdjacency connects each pixel to its 4 orthogonal neighbours.
	DefaultAdjacency = 4

	// DefaultBinSize is the spatial index bin edge length in pixels.
	DefaultBinSize = raster.DefaultBinSize
)

// DefaultColorspace is the colorspace merges and distances operate in.
const DefaultColorspace = imageio.ColorspaceRGB

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the compression pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Contraction options
	Ratio        float64 `json:"ratio,omitempty"`         // Target edge fraction in (0, 1]
	Adjacency    int     `json:"adjacency,omitempty"`     // 4 or 8 pixel connectivity
	WeightScaled bool    `json:"weight_scaled,omitempty"` // Scale merge scores by combined cell weight
	Colorspace   string  `json:"colorspace,omitempty"`    // "rgb" or "lab"

	// Rasterization options
	BinSize float64 `json:"bin_size,omitempty"` // Spatial index bin edge length

	// Palette options (0 = palette snapping disabled)
	PaletteSize   int    `json:"palette_size,omitempty"`
	PaletteMethod string `json:"palette_method,omitempty"` // "kmeans" or "dominant"

	// Refresh bypasses the cache and recomputes the result.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this pipeline execution.
	RunID string

	// Output is the compressed raster in the pipeline's working colorspace.
	Output *imageio.Raster

	// Encoded is the compressed image as PNG bytes.
	Encoded []byte

	// InputHash is the content hash of the source image bytes.
	InputHash string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the result came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Height           int
	Width            int
	CellCount        int // Surviving cells after contraction
	EdgeCount        int // Surviving edges after contraction
	InitialEdgeCount int
	Merges           int
	BuildTime        time.Duration
	ContractTime     time.Duration
	RasterTime       time.Duration
}

// CacheInfo tracks cache usage for a pipeline run.
type CacheInfo struct {
	Hit bool // Whether the result came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Ratio == 0 {
		o.Ratio = DefaultRatio
	}
	if o.Ratio <= 0 || o.Ratio > 1 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"ratio must be in (0, 1], got %v", o.Ratio)
	}

	if o.Adjacency == 0 {
		o.Adjacency = DefaultAdjacency
	}
	if !cellgraph.Adjacency(o.Adjacency).Valid() {
		return errors.New(errors.ErrCodeInvalidConfig,
			"adjacency must be 4 or 8, got %d", o.Adjacency)
	}

	if o.Colorspace == "" {
		o.Colorspace = string(DefaultColorspace)
	}
	if !imageio.ValidColorspaces[imageio.Colorspace(o.Colorspace)] {
		return errors.New(errors.ErrCodeInvalidConfig,
			"colorspace must be rgb or lab, got %q", o.Colorspace)
	}

	if o.BinSize == 0 {
		o.BinSize = DefaultBinSize
	}
	if o.BinSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"bin size must be positive, got %v", o.BinSize)
	}

	if o.PaletteSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"palette size must be non-negative, got %d", o.PaletteSize)
	}
	if o.PaletteSize > 0 {
		if o.PaletteMethod == "" {
			o.PaletteMethod = string(palette.MethodKMeans)
		}
		if !palette.ValidMethods[palette.Method(o.PaletteMethod)] {
			return errors.New(errors.ErrCodeInvalidConfig,
				"palette method must be kmeans or dominant, got %q", o.PaletteMethod)
		}
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// ResultKeyOpts returns the cache key fingerprint for these options.
func (o *Options) ResultKeyOpts() cache.ResultKeyOpts {
	return cache.ResultKeyOpts{
		Ratio:         o.Ratio,
		Adjacency:     o.Adjacency,
		BinSize:       o.BinSize,
		WeightScaled:  o.WeightScaled,
		Colorspace:    o.Colorspace,
		PaletteSize:   o.PaletteSize,
		PaletteMethod: o.PaletteMethod,
	}
}
