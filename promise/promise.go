// Package promise implements §4.8's Promise Bridge: given an ordered list
// of cell.Input items (plain values, futures, or cells), it produces a
// single future that resolves with the ordered list of resolved values, or
// rejects permanently the moment any contained future rejects.
package promise

import "github.com/reactive-cells/cellgraph/cell"

// Promise is a typed view over the underlying *cell.Future the bridge
// resolves. T is []any for New, and whatever MapAll's projection produces.
type Promise[T any] struct {
	future *cell.Future
	value  T
}

// Then registers a completion handler, invoked once with (value, nil) on
// resolution or the zero value and err on rejection.
func (p *Promise[T]) Then(fn func(T, error)) {
	p.future.Then(func(v any, err error) {
		if err != nil {
			var zero T
			fn(zero, err)
			return
		}
		fn(p.value, nil)
	})
}

// Done reports whether the promise has resolved.
func (p *Promise[T]) Done() bool { return p.future.Done() }

// Rejected reports whether the promise has permanently failed.
func (p *Promise[T]) Rejected() bool { return p.future.Rejected() }

// Value returns the resolved value; only meaningful once Done() is true.
func (p *Promise[T]) Value() T { return p.value }

// Err returns the rejection cause; only meaningful once Rejected() is true.
func (p *Promise[T]) Err() error { return p.future.Err() }

// New bridges items (each a plain value, a *cell.Future, or a *cell.Cell)
// into a single Promise that resolves with their values in order, exactly
// once every item has resolved, or rejects the moment any future among
// them rejects.
func New(items ...cell.Input) *Promise[[]any] {
	p := &Promise[[]any]{future: cell.NewFuture(), value: make([]any, len(items))}

	if len(items) == 0 {
		p.future.Resolve(p.value)
		return p
	}

	remaining := len(items)
	settled := false
	for i, item := range items {
		i := i
		observe(item, func(v any) {
			if settled {
				return
			}
			p.value[i] = v
			remaining--
			if remaining == 0 {
				settled = true
				p.future.Resolve(p.value)
			}
		}, func(err error) {
			if settled {
				return
			}
			settled = true
			p.future.Reject(err)
		})
	}
	return p
}

// MapAll is New followed by a projection T applied to the resolved list —
// the "mapAll(list, f)" surface named in §6.
func MapAll[T any](items []cell.Input, f func([]any) T) *Promise[T] {
	inner := New(items...)
	out := &Promise[T]{future: cell.NewFuture()}
	inner.Then(func(resolved []any, err error) {
		if err != nil {
			out.future.Reject(err)
			return
		}
		out.value = f(resolved)
		out.future.Resolve(out.value)
	})
	return out
}

// observe resolves a single bridge item, calling onValue exactly once with
// its resolved value, or onErr if item is a future that rejects. Futures
// nested inside other values are not inspected.
func observe(item cell.Input, onValue func(any), onErr func(error)) {
	switch v := item.(type) {
	case *cell.Future:
		v.Then(func(val any, err error) {
			if err != nil {
				onErr(err)
				return
			}
			onValue(val)
		})
	case *cell.Cell:
		// Then already accounts for the cell's own use()/drop() lifecycle
		// (§4.8: "Cells are observed via a one-shot then() and the cell's
		// own use()/drop() accounting").
		v.Then(onValue)
	default:
		onValue(v)
	}
}
