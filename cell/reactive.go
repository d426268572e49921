package cell

// ReactiveCallback is invoked with the deep-resolved arguments once every
// input structure is ready (§4.2). It is free to call Changed/Trigger on
// any cell, including its own ReactiveCell via the embedded *Cell.
type ReactiveCallback func(args []any)

type registeredNotifier struct {
	cell *Cell
	tok  Token
}

// ReactiveCell re-executes a callback whenever any of its input structures
// or pure dependencies change (§4.2).
type ReactiveCell struct {
	*Cell

	inputs []Input
	deps   []*Cell
	depth  int
	cb     ReactiveCallback

	notifierTokens []registeredNotifier
	depTokens      []registeredNotifier
}

// NewReactiveCell constructs a reactive cell. inputs are resolved
// structurally up to depth; deps are pure dependency cells whose changes
// trigger recomputation but whose values are not passed to cb.
func NewReactiveCell(inputs []Input, deps []*Cell, depth int, cb ReactiveCallback, opts Options) *ReactiveCell {
	rc := &ReactiveCell{
		Cell:   New(opts),
		inputs: inputs,
		deps:   deps,
		depth:  depth,
		cb:     cb,
	}
	rc.Cell.Activate = rc.initialise
	rc.Cell.Deactivate = rc.finalise
	return rc
}

func (rc *ReactiveCell) initialise() {
	maxDepRank := -1

	for _, dep := range rc.deps {
		tok := dep.Notify(rc.trampoline)
		rc.depTokens = append(rc.depTokens, registeredNotifier{cell: dep, tok: tok})
		if dep.rank > maxDepRank {
			maxDepRank = dep.rank
		}
	}

	for _, in := range rc.inputs {
		walk(in, rc.depth, func(c *Cell) {
			tok := c.Notify(rc.trampoline)
			rc.notifierTokens = append(rc.notifierTokens, registeredNotifier{cell: c, tok: tok})
			if c.rank > maxDepRank {
				maxDepRank = c.rank
			}
		}, func(f *Future) {
			f.Then(func(v any, err error) { rc.trampoline() })
		})
	}

	rc.Cell.rank = maxDepRank + 1

	// Whether or not any input cells/deps were found, run once immediately:
	// with none found every input is a plain value and trampoline resolves
	// them straight away (§4.2, "If after traversal there are no active
	// input cells and no dependencies, run the trampoline once
	// immediately"); with some found, the first run establishes the initial
	// not-ready/ready state.
	rc.trampoline()
}

func (rc *ReactiveCell) finalise() {
	// unregister in reverse of the registration order (§4.2)
	for i := len(rc.notifierTokens) - 1; i >= 0; i-- {
		rn := rc.notifierTokens[i]
		rn.cell.Unnotify(rn.tok)
	}
	rc.notifierTokens = nil
	for i := len(rc.depTokens) - 1; i >= 0; i-- {
		rn := rc.depTokens[i]
		rn.cell.Unnotify(rn.tok)
	}
	rc.depTokens = nil
}

// trampoline is the recomputation entry point (§4.2): if every input
// structure is ready, it deep-resolves them and invokes cb; otherwise it
// resets this cell.
func (rc *ReactiveCell) trampoline() {
	args := make([]any, len(rc.inputs))
	for i, in := range rc.inputs {
		v, ready := resolve(in, rc.depth)
		if !ready {
			rc.Cell.Reset()
			return
		}
		args[i] = v
	}
	rc.cb(args)
}
