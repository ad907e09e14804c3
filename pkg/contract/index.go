package contract

import (
	"container/heap"

	"github.com/voronoize/voronoize/pkg/cellgraph"
)

// edgeKey identifies an undirected edge by its endpoint cell IDs, smaller
// ID first.
type edgeKey struct {
	lo, hi uint64
}

func keyOf(a, b *cellgraph.Cell) edgeKey {
	if a.ID() < b.ID() {
		return edgeKey{a.ID(), b.ID()}
	}
	return edgeKey{b.ID(), a.ID()}
}

// entry is an edge with its snapshot score and heap position.
type entry struct {
	a, b  *cellgraph.Cell // a.ID() < b.ID()
	score float64
	index int
}

// edgeIndex is a min-heap over edges keyed by (score, lo ID, hi ID),
// with removal by edge identity through the key map.
type edgeIndex struct {
	entries      []*entry
	byKey        map[edgeKey]*entry
	weightScaled bool
}

func newEdgeIndex(weightScaled bool) *edgeIndex {
	return &edgeIndex{byKey: make(map[edgeKey]*entry), weightScaled: weightScaled}
}

// insert adds the edge (a, b) with a freshly computed score.
// Inserting an edge already present is a no-op.
func (x *edgeIndex) insert(a, b *cellgraph.Cell) {
	if a.ID() > b.ID() {
		a, b = b, a
	}
	k := edgeKey{a.ID(), b.ID()}
	if _, exists := x.byKey[k]; exists {
		return
	}
	e := &entry{a: a, b: b, score: Score(a, b, x.weightScaled)}
	x.byKey[k] = e
	heap.Push(x, e)
}

// remove deletes the edge (a, b) by identity if it is indexed.
func (x *edgeIndex) remove(a, b *cellgraph.Cell) {
	k := keyOf(a, b)
	e, ok := x.byKey[k]
	if !ok {
		return
	}
	delete(x.byKey, k)
	heap.Remove(x, e.index)
}

// popMin extracts the globally best edge. ok is false when empty.
func (x *edgeIndex) popMin() (a, b *cellgraph.Cell, ok bool) {
	if len(x.entries) == 0 {
		return nil, nil, false
	}
	e := heap.Pop(x).(*entry)
	delete(x.byKey, edgeKey{e.a.ID(), e.b.ID()})
	return e.a, e.b, true
}

func (x *edgeIndex) len() int { return len(x.entries) }

// heap.Interface

func (x *edgeIndex) Len() int { return len(x.entries) }

func (x *edgeIndex) Less(i, j int) bool {
	ei, ej := x.entries[i], x.entries[j]
	if ei.score != ej.score {
		return ei.score < ej.score
	}
	if ei.a.ID() != ej.a.ID() {
		return ei.a.ID() < ej.a.ID()
	}
	return ei.b.ID() < ej.b.ID()
}

func (x *edgeIndex) Swap(i, j int) {
	x.entries[i], x.entries[j] = x.entries[j], x.entries[i]
	x.entries[i].index = i
	x.entries[j].index = j
}

func (x *edgeIndex) Push(v any) {
	e := v.(*entry)
	e.index = len(x.entries)
	x.entries = append(x.entries, e)
}

func (x *edgeIndex) Pop() any {
	old := x.entries
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	x.entries = old[:n-1]
	return e
}
