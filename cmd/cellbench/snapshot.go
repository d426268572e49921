package main

import "github.com/reactive-cells/cellgraph/cell"

// NodeSnapshot is a read-only view of one cell in a graph, used by the
// --html debug dump. It exists purely for presentation: nothing in cell or
// cache depends on it.
type NodeSnapshot struct {
	Label     string
	Ready     bool
	Value     any
	UserCount int
	Rank      int
}

func snapshotOf(label string, c *cell.Cell) NodeSnapshot {
	return NodeSnapshot{
		Label:     label,
		Ready:     c.Ready(),
		Value:     c.Value(),
		UserCount: c.UserCount(),
		Rank:      c.Rank(),
	}
}
