package cell

// TransformFunc maps the resolved arguments of a transform cell's inputs to
// an output value, which may itself be the Undefined sentinel, a *Future, a
// structure containing cells/futures, or a plain value (§4.3).
type TransformFunc func(args []any) any

// TransformOptions configures TransformCell-specific output handling.
type TransformOptions struct {
	// OutputDepth is how deep to resolve a structured output for contained
	// cells/futures (§4.3). Zero disables structured-output resolution
	// entirely: only the future/plain-value branches apply.
	OutputDepth int
	// Latched keeps the last ready value displayed while a new computation
	// is in flight, instead of resetting first.
	Latched bool
}

// TransformCell wraps a ReactiveCell with the output-handling policy of §4.3.
type TransformCell struct {
	*ReactiveCell

	fn      TransformFunc
	outDepth int
	latched bool

	inner *ReactiveCell // transient cell owned while resolving a structured output
}

// NewTransformCell constructs a transform cell mapping inputs through fn.
func NewTransformCell(inputs []Input, fn TransformFunc, tOpts TransformOptions, opts Options) *TransformCell {
	tc := &TransformCell{
		fn:       fn,
		outDepth: tOpts.OutputDepth,
		latched:  tOpts.Latched,
	}
	tc.ReactiveCell = NewReactiveCell(inputs, nil, defaultInputDepth, func(args []any) {
		out := fn(args)
		tc.handleOutput(out)
	}, opts)
	return tc
}

// defaultInputDepth is the resolution depth used for a transform cell's own
// inputs when the caller doesn't need finer control; callers that do can
// build the equivalent with NewReactiveCell directly.
const defaultInputDepth = 8

// Latched reports whether this transform cell keeps its last ready value
// while a recomputation is in flight.
func (tc *TransformCell) Latched() bool { return tc.latched }

func (tc *TransformCell) handleOutput(out any) {
	if isUndefined(out) {
		tc.warn(TriggerOfUndefined, "transform callback returned Undefined")
		tc.Cell.Reset()
		return
	}

	if fut, ok := out.(*Future); ok {
		if !tc.latched {
			tc.Cell.Reset()
		}
		fut.Then(func(v any, err error) {
			if err != nil {
				tc.logger().Printf("transform cell #%d: future rejected: %v", tc.ID(), err)
				return
			}
			tc.Cell.Changed(v)
		})
		return
	}

	if tc.outDepth > 0 && containsCellOrFuture(out, tc.outDepth) {
		if !tc.latched {
			tc.Cell.Reset()
		}
		tc.adoptInner(out)
		return
	}

	tc.Cell.Changed(out)
}

// adoptInner constructs a transient reactive cell over the returned
// structure, whose callback calls Changed with the fully resolved
// structure, and owns it (use()/drop() on each recomputation), replacing any
// previously adopted inner cell.
func (tc *TransformCell) adoptInner(out any) {
	if tc.inner != nil {
		tc.inner.Drop()
		tc.inner = nil
	}
	inner := NewReactiveCell([]Input{out}, nil, tc.outDepth, func(args []any) {
		tc.Cell.Changed(args[0])
	}, Options{})
	inner.Use()
	tc.inner = inner
}

func containsCellOrFuture(v any, depth int) bool {
	found := false
	walk(v, depth, func(*Cell) { found = true }, func(*Future) { found = true })
	return found
}
