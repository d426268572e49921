package cell

// Map is the one-shot composition helper named in §6 ("composition: map(f,
// ...)"): it maps N input cells/futures/values through fn.
func Map(fn func(args []any) any, inputs ...Input) *TransformCell {
	return NewTransformCell(inputs, fn, TransformOptions{}, Options{})
}

// MapEach applies fn independently to each input cell, returning one
// transform cell per input (§6: "mapEach(f, ...)"). Useful for list-shaped
// data whose per-item rendering the core does not itself own (the
// UI-binding layer is out of scope, §1).
func MapEach(fn func(v any) any, cells ...*Cell) []*TransformCell {
	out := make([]*TransformCell, len(cells))
	for i, c := range cells {
		cc := c
		out[i] = NewTransformCell([]Input{cc}, func(args []any) any {
			return fn(args[0])
		}, TransformOptions{}, Options{})
	}
	return out
}

// Reduce folds over the current tuple of resolved inputs against a running
// accumulator seeded at init, resetting to init whenever the inputs go
// not-ready (§6: "reduce(f, init)", §A.7).
func Reduce(fn func(acc any, args []any) any, init any, inputs ...Input) *TransformCell {
	acc := init
	tc := NewTransformCell(inputs, func(args []any) any {
		acc = fn(acc, args)
		return acc
	}, TransformOptions{Latched: true}, Options{})
	tc.Cell.OnReset = func() { acc = init }
	return tc
}

// Value type-asserts a cell's current value, returning the zero value and
// false if the cell is not ready or holds a value of a different type. It
// is a thin ergonomic edge for call sites that know the concrete type of a
// dynamically-typed cell; the core itself stays untyped throughout, as the
// structural resolution in input.go fundamentally needs to walk
// heterogeneous trees.
func Value[T any](c *Cell) (T, bool) {
	var zero T
	if !c.Ready() {
		return zero, false
	}
	v, ok := c.Value().(T)
	if !ok {
		return zero, false
	}
	return v, true
}
