package main

import (
	"fmt"
	"html"
	"sort"

	qtpl "github.com/valyala/quicktemplate"
)

// RenderHTML builds a static HTML snapshot of a cell graph for visual
// inspection — a debug artifact of the core only, analogous in spirit to
// the UI-binding consumers named out of scope for cellgraph itself. It
// writes through quicktemplate's pooled ByteBuffer rather than the
// generated template DSL, since the dump's shape is a flat table rather
// than anything warranting its own .qtpl source. Rows are laid out in rank
// order (§A.7) rather than construction order, so a diamond-shaped graph
// reads top-to-bottom by dependency depth.
func RenderHTML(nodes []NodeSnapshot) string {
	sorted := append([]NodeSnapshot(nil), nodes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	bb := qtpl.AcquireByteBuffer()
	defer qtpl.ReleaseByteBuffer(bb)

	bb.B = append(bb.B, `<!doctype html><html><head><meta charset="utf-8">`...)
	bb.B = append(bb.B, `<title>cellgraph snapshot</title></head><body>`...)
	bb.B = append(bb.B, `<table border="1" cellpadding="4"><tr><th>rank</th><th>cell</th><th>ready</th><th>value</th><th>users</th></tr>`...)

	for _, n := range sorted {
		bb.B = append(bb.B, `<tr><td>`...)
		bb.B = append(bb.B, fmt.Sprintf("%d", n.Rank)...)
		bb.B = append(bb.B, `</td><td>`...)
		bb.B = append(bb.B, html.EscapeString(n.Label)...)
		bb.B = append(bb.B, `</td><td>`...)
		bb.B = append(bb.B, fmt.Sprintf("%v", n.Ready)...)
		bb.B = append(bb.B, `</td><td>`...)
		bb.B = append(bb.B, html.EscapeString(fmt.Sprintf("%v", n.Value))...)
		bb.B = append(bb.B, `</td><td>`...)
		bb.B = append(bb.B, fmt.Sprintf("%d", n.UserCount)...)
		bb.B = append(bb.B, `</td></tr>`...)
	}

	bb.B = append(bb.B, `</table></body></html>`...)
	return string(bb.B)
}
