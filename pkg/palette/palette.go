// Package palette reduces the colours of a contracted cell graph to a small
// fixed palette.
//
// Contraction already merges similar regions, but the surviving cells still
// carry arbitrary averaged colours. Snapping them to an extracted palette
// gives the output a poster-like look and bounds the number of distinct
// colours, which helps indexed-format encoders downstream.
//
// Two extraction methods are supported:
//   - "kmeans" clusters the surviving cell colours
//   - "dominant" picks dominant colours from the source image
package palette

import (
	"image"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/floats"

	"github.com/voronoize/voronoize/pkg/cellgraph"
	"github.com/voronoize/voronoize/pkg/errors"
	"github.com/voronoize/voronoize/pkg/imageio"
)

// Method selects the palette extraction strategy.
type Method string

const (
	// MethodKMeans clusters the contracted cell colours with k-means.
	MethodKMeans Method = "kmeans"
	// MethodDominant extracts dominant colours from the source image.
	MethodDominant Method = "dominant"
)

// ValidMethods is the set of supported extraction methods.
var ValidMethods = map[Method]bool{
	MethodKMeans:   true,
	MethodDominant: true,
}

// FromCells extracts a palette of up to size colours by clustering the cell
// colours with k-means. Colours come back in the same channel space the cells
// carry. Fewer than size colours are returned when the cells hold fewer
// distinct clusters.
func FromCells(cells []*cellgraph.Cell, size int) ([][]float64, error) {
	if size <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "palette size must be positive, got %d", size)
	}
	if len(cells) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no cells to extract a palette from")
	}

	dim := len(cells[0].Colour)

	// The clusterer seeds centroids inside the unit cube, so observations are
	// min-max normalized per channel and centers mapped back afterwards.
	lo := make([]float64, dim)
	hi := make([]float64, dim)
	copy(lo, cells[0].Colour)
	copy(hi, cells[0].Colour)
	for _, c := range cells {
		for i, v := range c.Colour {
			lo[i] = math.Min(lo[i], v)
			hi[i] = math.Max(hi[i], v)
		}
	}
	span := make([]float64, dim)
	for i := range span {
		span[i] = hi[i] - lo[i]
		if span[i] == 0 {
			span[i] = 1
		}
	}

	dataset := make(clusters.Observations, 0, len(cells))
	for _, c := range cells {
		obs := make(clusters.Coordinates, dim)
		for i, v := range c.Colour {
			obs[i] = (v - lo[i]) / span[i]
		}
		dataset = append(dataset, obs)
	}

	k := size
	if k > len(dataset) {
		k = len(dataset)
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, k)
	if err != nil || len(cc) == 0 {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "kmeans partition of %d cell colours", len(cells))
	}

	// Largest clusters first so truncation keeps the dominant colours.
	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	pal := make([][]float64, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < dim {
			continue
		}
		v := make([]float64, dim)
		for i := 0; i < dim; i++ {
			v[i] = c.Center[i]*span[i] + lo[i]
		}
		pal = append(pal, v)
	}
	if len(pal) == 0 {
		return nil, errors.New(errors.ErrCodeInternal, "kmeans produced an empty palette")
	}
	return pal, nil
}

// FromImage extracts up to size dominant colours from the source image and
// encodes them into the given colorspace.
func FromImage(img image.Image, size int, cs imageio.Colorspace) ([][]float64, error) {
	if size <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "palette size must be positive, got %d", size)
	}
	if img == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no source image to extract a palette from")
	}

	found := dominantcolor.FindWeight(img, size)
	if len(found) == 0 {
		return nil, errors.New(errors.ErrCodeInternal, "dominant colour extraction returned no colours")
	}

	pal := make([][]float64, 0, len(found))
	for _, c := range found {
		pal = append(pal, imageio.EncodeColor(c.RGBA, cs))
	}
	return pal, nil
}

// Snap replaces every cell colour in the graph with its nearest palette
// colour. Distance is Euclidean in the cells' channel space; ties keep the
// earlier palette entry.
func Snap(g *cellgraph.Graph, pal [][]float64) error {
	if len(pal) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "empty palette")
	}
	for _, c := range g.Cells() {
		best := 0
		bestDist := floats.Distance(c.Colour, pal[0], 2)
		for i := 1; i < len(pal); i++ {
			if d := floats.Distance(c.Colour, pal[i], 2); d < bestDist {
				best, bestDist = i, d
			}
		}
		copy(c.Colour, pal[best])
	}
	return nil
}
