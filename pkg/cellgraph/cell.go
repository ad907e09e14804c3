// Package cellgraph implements the planar cell graph that models an image
// during compression.
//
// Each [Cell] aggregates one or more original pixels and carries their
// weighted centroid, weighted average colour, and pixel count. The [Graph]
// owns all cells and the undirected adjacency between them, and provides the
// merge primitive that contraction is built on: replacing two adjacent cells
// by a single cell that inherits their combined mass and neighbourhood.
//
// The graph is not safe for concurrent mutation. Contraction is inherently
// sequential; once it finishes, the frozen graph may be read concurrently.
package cellgraph

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Cell is a node of the compression graph, representing a merged pixel region.
//
// Cells are created and destroyed exclusively by their owning [Graph]. All
// other components (the scheduler's priority index, the rasterizer's spatial
// index) hold non-owning references.
type Cell struct {
	id uint64

	// Position is the weighted centroid of the original pixel coordinates
	// this cell represents, in (row, col) order.
	Position []float64

	// Colour is the weighted average colour vector of the merged pixels.
	// The channel layout is opaque to the graph; distances and averages
	// treat it as a generic numeric vector.
	Colour []float64

	// Weight is the number of original pixels this cell represents.
	Weight int

	neighbours map[*Cell]struct{}
}

// ID returns the cell's graph-assigned identifier. IDs increase in creation
// order and are never reused, which makes them a stable basis for
// deterministic orderings and tie-breaks.
func (c *Cell) ID() uint64 { return c.id }

// Degree returns the number of cells adjacent to c.
func (c *Cell) Degree() int { return len(c.neighbours) }

// Neighbours returns the adjacent cells sorted by ID.
func (c *Cell) Neighbours() []*Cell {
	out := make([]*Cell, 0, len(c.neighbours))
	for n := range c.neighbours {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *Cell) int {
		if a.id < b.id {
			return -1
		}
		if a.id > b.id {
			return 1
		}
		return 0
	})
	return out
}

// ColourDistance returns the Euclidean distance between two cells' colour
// vectors. This is the canonical merge similarity score: lower means more
// similar.
func ColourDistance(a, b *Cell) float64 {
	return floats.Distance(a.Colour, b.Colour, 2)
}

// weightedAverage returns (u*wu + v*wv) / (wu+wv) as a fresh vector.
// True division, not reciprocal scaling: uniform inputs must average
// exactly to themselves.
func weightedAverage(u, v []float64, wu, wv int) []float64 {
	out := make([]float64, len(u))
	fu, fv := float64(wu), float64(wv)
	total := fu + fv
	for i := range out {
		out[i] = (u[i]*fu + v[i]*fv) / total
	}
	return out
}
