package cell

// Cascade-depth diagnostics (§9: "Implementers should offer diagnostic hooks
// to detect runaway cascades but must not attempt automatic cycle
// breaking"). Grounded on alien/types.go's subscriberFlags/topology
// bookkeeping: that implementation tracks per-subscriber dirty/pending flags
// to decide whether to re-run a computation; here the same bookkeeping
// instinct is repurposed as a depth counter over the trigger call stack
// rather than a flag per node, since the runtime never refuses to
// propagate, it only wants to notice when it's propagating unreasonably
// deep.
//
// The runtime is single-threaded cooperative (§5), so a package-level guard
// is sufficient; there is no concurrent trigger stack to race on.

var (
	cascadeLimit      int
	cascadeOnExceeded func(chain []*Cell)
	cascadeStack      []*Cell
)

// WithCascadeGuard installs a trigger-depth limit. Once the live trigger
// call stack exceeds limit, onExceeded is called with the chain of cells
// currently triggering (outermost first) instead of the runtime recursing
// further silently. Triggering is never refused; this is purely a
// diagnostic hook. Pass limit <= 0 to disable the guard.
func WithCascadeGuard(limit int, onExceeded func(chain []*Cell)) {
	cascadeLimit = limit
	cascadeOnExceeded = onExceeded
}

func pushCascade(c *Cell) int {
	cascadeStack = append(cascadeStack, c)
	depth := len(cascadeStack)
	if cascadeLimit > 0 && depth > cascadeLimit && cascadeOnExceeded != nil {
		chain := make([]*Cell, depth)
		copy(chain, cascadeStack)
		cascadeOnExceeded(chain)
	}
	return depth
}

func popCascade(depth int) {
	if depth > 0 && depth <= len(cascadeStack) {
		cascadeStack = cascadeStack[:depth-1]
	}
}
