// Package raster reconstructs a pixel grid from a contracted cell graph:
// every output pixel takes the colour of its nearest surviving cell.
//
// # Spatial index
//
// Nearest-cell queries are served by a grid of square bins with a 50%
// overlapping stride: bin origins advance by half the bin edge, so every
// point of the plane is covered by several bins. Each cell registers in the
// bin containing its position (ring 0) and in all bins at Chebyshev ring
// distance 1 around it. This halo registration is a candidate generator, not
// a proven-exact nearest-neighbour structure: for bins much smaller than the
// typical cell spacing the candidate set contains the true nearest cell, and
// queries that find no candidates keep expanding outward ring by ring, so a
// result is always produced. Exactness at bin boundaries is covered by tests
// rather than assumed.
//
// The index is built once, after contraction freezes the graph. It holds
// non-owning cell references and must not outlive a graph mutation.
package raster

import (
	"math"

	"github.com/voronoize/voronoize/pkg/cellgraph"
	"github.com/voronoize/voronoize/pkg/errors"
)

// DefaultBinSize is the default bin edge length in pixel units.
const DefaultBinSize = 10.0

// Index is a frozen spatial index over surviving cells.
type Index struct {
	height  int
	width   int
	binSize float64
	rows    int
	cols    int
	bins    [][]*cellgraph.Cell // row-major, cells in registration (ID) order
}

// BuildIndex indexes the graph's live cells for a height × width raster.
// Returns INVALID_CONFIG for a non-positive bin size and INTERNAL_ERROR for
// an empty cell set: contraction of a non-empty image can never produce one,
// so an empty graph here is an algorithm bug, not a user error.
func BuildIndex(g *cellgraph.Graph, height, width int, binSize float64) (*Index, error) {
	if binSize <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "bin size must be positive, got %v", binSize)
	}
	cells := g.Cells()
	if len(cells) == 0 {
		return nil, errors.New(errors.ErrCodeInternal, "cannot rasterize an empty cell set")
	}

	x := &Index{
		height:  height,
		width:   width,
		binSize: binSize,
		rows:    binCount(height, binSize),
		cols:    binCount(width, binSize),
	}
	x.bins = make([][]*cellgraph.Cell, x.rows*x.cols)

	for _, c := range cells {
		br, bc := x.homeBin(c.Position[0], c.Position[1])
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				r, co := br+dr, bc+dc
				if r < 0 || r >= x.rows || co < 0 || co >= x.cols {
					continue
				}
				i := r*x.cols + co
				x.bins[i] = append(x.bins[i], c)
			}
		}
	}
	return x, nil
}

// Height returns the raster height the index was built for.
func (x *Index) Height() int { return x.height }

// Width returns the raster width the index was built for.
func (x *Index) Width() int { return x.width }

// binCount returns the number of half-stride bins covering dim units.
func binCount(dim int, binSize float64) int {
	n := int(math.Ceil(float64(dim)/(binSize/2))) - 1
	if n < 1 {
		n = 1
	}
	return n
}

// homeBin maps a plane position to its containing bin, clamped in-bounds.
// The quarter-bin shift centres positions within the overlapping layout.
func (x *Index) homeBin(row, col float64) (int, int) {
	half, quarter := x.binSize/2, x.binSize/4
	br := clamp(int((row-quarter)/half), 0, x.rows-1)
	bc := clamp(int((col-quarter)/half), 0, x.cols-1)
	return br, bc
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Nearest returns the cell whose position is closest to (row, col) in
// Euclidean distance. Candidates come from the ring-distance-1 bin
// neighbourhood of the query's home bin; empty neighbourhoods expand the
// search ring by ring. Distance ties keep the first candidate in the fixed
// row-major bin scan with cells in registration order, so the result is
// deterministic. Returns nil only if the index holds no cells at all, which
// BuildIndex rules out.
func (x *Index) Nearest(row, col float64) *cellgraph.Cell {
	br, bc := x.homeBin(row, col)

	var best *cellgraph.Cell
	bestDist := math.Inf(1)
	consider := func(c *cellgraph.Cell) {
		d := math.Hypot(c.Position[0]-row, c.Position[1]-col)
		if d < bestDist {
			best, bestDist = c, d
		}
	}

	// Rings 0 and 1 first: halo registration makes this the common case.
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			x.scanBin(br+dr, bc+dc, consider)
		}
	}
	maxRing := x.rows + x.cols
	for ring := 2; best == nil && ring <= maxRing; ring++ {
		x.scanRing(br, bc, ring, consider)
	}
	return best
}

// scanBin visits the cells of bin (r, c) in registration order.
func (x *Index) scanBin(r, c int, visit func(*cellgraph.Cell)) {
	if r < 0 || r >= x.rows || c < 0 || c >= x.cols {
		return
	}
	for _, cell := range x.bins[r*x.cols+c] {
		visit(cell)
	}
}

// scanRing visits the perimeter bins at Chebyshev distance ring around
// (br, bc) in row-major order.
func (x *Index) scanRing(br, bc, ring int, visit func(*cellgraph.Cell)) {
	for dc := -ring; dc <= ring; dc++ {
		x.scanBin(br-ring, bc+dc, visit)
	}
	for dr := -ring + 1; dr <= ring-1; dr++ {
		x.scanBin(br+dr, bc-ring, visit)
		x.scanBin(br+dr, bc+ring, visit)
	}
	for dc := -ring; dc <= ring; dc++ {
		x.scanBin(br+ring, bc+dc, visit)
	}
}
