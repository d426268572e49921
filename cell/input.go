package cell

// Input is an arbitrary structure that may contain nested cells and futures
// at any depth: a *Cell, a *Future, a []Input (ordered sequence), a
// map[string]Input (keyed mapping), or a plain leaf value (§4.2).
type Input any

// Future is a one-shot asynchronous result. It is the non-cell suspension
// point named in §5 ("Only two primitives yield: futures... and the
// underlying RPC subscriptions").
type Future struct {
	done     bool
	rejected bool
	value    any
	err      error
	onDone   []func(v any, err error)
}

// NewFuture creates an unresolved Future.
func NewFuture() *Future { return &Future{} }

// Resolve completes the future with a value, if it hasn't already resolved
// or rejected.
func (f *Future) Resolve(v any) {
	if f.done || f.rejected {
		return
	}
	f.done = true
	f.value = v
	f.fire()
}

// Reject permanently fails the future.
func (f *Future) Reject(err error) {
	if f.done || f.rejected {
		return
	}
	f.rejected = true
	f.err = err
	f.fire()
}

// Done reports whether the future has resolved (not rejected).
func (f *Future) Done() bool { return f.done }

// Rejected reports whether the future has permanently failed.
func (f *Future) Rejected() bool { return f.rejected }

// Value returns the resolved value; only meaningful once Done() is true.
func (f *Future) Value() any { return f.value }

// Err returns the rejection cause; only meaningful once Rejected() is true.
func (f *Future) Err() error { return f.err }

// Then registers a completion handler, invoked once with (value, nil) on
// resolution or (nil, err) on rejection. If the future has already settled,
// it is invoked synchronously.
func (f *Future) Then(fn func(v any, err error)) {
	if f.done {
		fn(f.value, nil)
		return
	}
	if f.rejected {
		fn(nil, f.err)
		return
	}
	f.onDone = append(f.onDone, fn)
}

func (f *Future) fire() {
	handlers := f.onDone
	f.onDone = nil
	for _, fn := range handlers {
		if f.rejected {
			fn(nil, f.err)
		} else {
			fn(f.value, nil)
		}
	}
}

// walk visits every *Cell and *Future reachable from v up to depth levels of
// nesting through []Input and map[string]Input. Beyond depth, contained
// cells/futures are left untouched (treated as opaque leaves) per §4.2.
func walk(v Input, depth int, onCell func(*Cell), onFuture func(*Future)) {
	if depth < 0 {
		return
	}
	switch x := v.(type) {
	case *Cell:
		onCell(x)
	case *Future:
		onFuture(x)
	case []Input:
		if depth == 0 {
			return
		}
		for _, el := range x {
			walk(el, depth-1, onCell, onFuture)
		}
	case map[string]Input:
		if depth == 0 {
			return
		}
		for _, el := range x {
			walk(el, depth-1, onCell, onFuture)
		}
	}
}

// resolve deep-copies the spine of v (aliasing leaf values) substituting
// each cell/future within depth by its resolved value. It returns
// ready=false as soon as any contained cell is not-ready or future is not
// yet settled; a rejected future also yields ready=false (callers treat a
// stuck input the same as a not-ready one, per §5's eventual-consistency
// model — there is no separate rejection channel at this layer).
func resolve(v Input, depth int) (resolved any, ready bool) {
	if depth < 0 {
		return v, true
	}
	switch x := v.(type) {
	case *Cell:
		if !x.Ready() {
			return nil, false
		}
		return x.Value(), true
	case *Future:
		if x.Rejected() || !x.Done() {
			return nil, false
		}
		return x.Value(), true
	case []Input:
		if depth == 0 {
			return v, true
		}
		out := make([]any, len(x))
		for i, el := range x {
			rv, rok := resolve(el, depth-1)
			if !rok {
				return nil, false
			}
			out[i] = rv
		}
		return out, true
	case map[string]Input:
		if depth == 0 {
			return v, true
		}
		out := make(map[string]any, len(x))
		for k, el := range x {
			rv, rok := resolve(el, depth-1)
			if !rok {
				return nil, false
			}
			out[k] = rv
		}
		return out, true
	default:
		return v, true
	}
}

// readyStructure reports the ready/not-ready status of v, for callers that
// only need the predicate; it builds the resolved copy and discards it.
func readyStructure(v Input, depth int) bool {
	_, ready := resolve(v, depth)
	return ready
}
