package cellgraph

import (
	"github.com/voronoize/voronoize/pkg/errors"
	"github.com/voronoize/voronoize/pkg/imageio"
)

// Adjacency selects the neighbour topology of the initial pixel grid.
type Adjacency int

const (
	// Conn4 connects each pixel to its up/down/left/right neighbours.
	Conn4 Adjacency = 4
	// Conn8 additionally connects the four diagonal neighbours.
	Conn8 Adjacency = 8
)

// Offsets returns the (dRow, dCol) neighbour offsets for the adjacency.
func (a Adjacency) Offsets() [][2]int {
	if a == Conn8 {
		return [][2]int{{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}}
	}
	return [][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
}

// Valid reports whether a is a supported adjacency.
func (a Adjacency) Valid() bool { return a == Conn4 || a == Conn8 }

// FromRaster builds the initial grid graph: one cell per pixel with unit
// weight, positioned at its (row, col) coordinate, connected to its grid
// neighbours under the given adjacency. Cell IDs follow row-major pixel
// order, which fixes the insertion history that tie-breaking depends on.
func FromRaster(r *imageio.Raster, adj Adjacency) (*Graph, error) {
	if r == nil || r.PixelCount() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot build cell grid from empty raster")
	}
	if !adj.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "adjacency must be 4- or 8-connected, got %d", int(adj))
	}

	h, w := r.Height(), r.Width()
	cells := make([]*Cell, h*w)
	g := New()
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			colour := make([]float64, r.Channels())
			copy(colour, r.At(row, col))
			cells[row*w+col] = g.NewCell([]float64{float64(row), float64(col)}, colour, 1)
		}
	}

	offsets := adj.Offsets()
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			for _, d := range offsets {
				nr, nc := row+d[0], col+d[1]
				if nr < 0 || nr >= h || nc < 0 || nc >= w {
					continue
				}
				// AddEdge rejects duplicates, so visiting each pair
				// from both endpoints is harmless.
				g.AddEdge(cells[row*w+col], cells[nr*w+nc])
			}
		}
	}
	return g, nil
}
