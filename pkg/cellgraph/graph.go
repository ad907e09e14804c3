package cellgraph

import (
	"slices"

	"github.com/voronoize/voronoize/pkg/errors"
)

// Graph owns the live cell set and the undirected edge relation between cells.
//
// Invariants maintained by construction:
//   - the adjacency is symmetric: a lists b iff b lists a
//   - no self loops and no parallel edges
//   - the total weight of all cells is constant across merges
//
// The zero value is not usable; use [New].
type Graph struct {
	cells     map[*Cell]struct{}
	edgeCount int
	nextID    uint64
}

// New creates an empty cell graph.
func New() *Graph {
	return &Graph{cells: make(map[*Cell]struct{})}
}

// NewCell creates a cell owned by this graph and registers it.
// The position and colour slices are retained, not copied.
func (g *Graph) NewCell(position, colour []float64, weight int) *Cell {
	c := &Cell{
		id:         g.nextID,
		Position:   position,
		Colour:     colour,
		Weight:     weight,
		neighbours: make(map[*Cell]struct{}),
	}
	g.nextID++
	g.cells[c] = struct{}{}
	return c
}

// Contains reports whether c is currently registered in the graph.
func (g *Graph) Contains(c *Cell) bool {
	_, ok := g.cells[c]
	return ok
}

// CellCount returns the number of live cells.
func (g *Graph) CellCount() int { return len(g.cells) }

// EdgeCount returns the number of live undirected edges.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// TotalWeight returns the summed weight of all live cells. For a graph built
// from a raster this equals the original pixel count at every point of the
// contraction.
func (g *Graph) TotalWeight() int {
	total := 0
	for c := range g.cells {
		total += c.Weight
	}
	return total
}

// Cells returns all live cells sorted by ID.
func (g *Graph) Cells() []*Cell {
	out := make([]*Cell, 0, len(g.cells))
	for c := range g.cells {
		out = append(out, c)
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

// Adjacent reports whether an edge exists between a and b.
func (g *Graph) Adjacent(a, b *Cell) bool {
	_, ok := a.neighbours[b]
	return ok
}

// AddEdge creates the symmetric edge between two distinct registered cells.
// It reports whether a new edge was created; self loops and duplicates are
// rejected without error.
func (g *Graph) AddEdge(a, b *Cell) bool {
	if a == b || !g.Contains(a) || !g.Contains(b) {
		return false
	}
	if _, exists := a.neighbours[b]; exists {
		return false
	}
	a.neighbours[b] = struct{}{}
	b.neighbours[a] = struct{}{}
	g.edgeCount++
	return true
}

// RemoveEdge removes the edge between a and b if it exists and reports
// whether an edge was removed. Removing a non-existent edge is a no-op:
// merge candidates are not guaranteed to be mutually adjacent.
func (g *Graph) RemoveEdge(a, b *Cell) bool {
	if _, exists := a.neighbours[b]; !exists {
		return false
	}
	delete(a.neighbours, b)
	delete(b.neighbours, a)
	g.edgeCount--
	return true
}

// RemoveCell detaches every edge incident to c and discards it.
// Removing a cell with no edges is valid.
func (g *Graph) RemoveCell(c *Cell) {
	for n := range c.neighbours {
		delete(n.neighbours, c)
		g.edgeCount--
	}
	c.neighbours = make(map[*Cell]struct{})
	delete(g.cells, c)
}

// Merge replaces cells a and b with a single new cell whose position and
// colour are the weight-weighted averages of the originals, whose weight is
// the sum, and whose neighbourhood is (N(a) ∪ N(b)) \ {a, b}. Shared
// neighbours collapse to a single edge, so every merge removes exactly one
// cell and at least one edge.
//
// Returns INTERNAL_ERROR if a and b are not two distinct live cells; that
// indicates a scheduler bug, not a user error.
func (g *Graph) Merge(a, b *Cell) (*Cell, error) {
	if a == b {
		return nil, errors.New(errors.ErrCodeInternal, "cannot merge cell %d with itself", a.id)
	}
	if !g.Contains(a) || !g.Contains(b) {
		return nil, errors.New(errors.ErrCodeInternal, "merge endpoints %d, %d not both live", a.id, b.id)
	}

	// Detach the shared edge first so the merged cell cannot self-loop.
	g.RemoveEdge(a, b)

	position := weightedAverage(a.Position, b.Position, a.Weight, b.Weight)
	colour := weightedAverage(a.Colour, b.Colour, a.Weight, b.Weight)
	weight := a.Weight + b.Weight

	// Union of both neighbourhoods, de-duplicated by the map and with the
	// parents excluded. Collected before removal detaches the adjacency.
	union := make(map[*Cell]struct{}, len(a.neighbours)+len(b.neighbours))
	for n := range a.neighbours {
		union[n] = struct{}{}
	}
	for n := range b.neighbours {
		union[n] = struct{}{}
	}
	delete(union, a)
	delete(union, b)

	g.RemoveCell(a)
	g.RemoveCell(b)

	merged := g.NewCell(position, colour, weight)
	for n := range union {
		g.AddEdge(merged, n)
	}
	return merged, nil
}
