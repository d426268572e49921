package cell

import "sync/atomic"

// Token is the opaque registration handle returned by Tie/Notify and
// consumed by Untie/Unnotify.
type Token uint64

var tokenCounter uint64

func nextToken() Token {
	return Token(atomic.AddUint64(&tokenCounter, 1))
}

// registry is a small insertion-ordered map. golang-set (used for the
// cache's unordered subscriber sets, see cache/registration.go) does not
// preserve insertion order, but §4.1 requires observers to fire "in
// registration order" — so the change-subscriber / readiness-notifier /
// one-shot registries below are a small hand-rolled ordered map instead of
// mapset.Set.
type registry[T any] struct {
	order []Token
	byTok map[Token]T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{byTok: map[Token]T{}}
}

func (r *registry[T]) add(v T) Token {
	tok := nextToken()
	r.order = append(r.order, tok)
	r.byTok[tok] = v
	return tok
}

func (r *registry[T]) remove(tok Token) bool {
	if _, ok := r.byTok[tok]; !ok {
		return false
	}
	delete(r.byTok, tok)
	for i, t := range r.order {
		if t == tok {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *registry[T]) len() int { return len(r.order) }

// each invokes fn for every entry in registration order, over a snapshot of
// the order slice so that fn may safely add/remove entries mid-iteration
// (done() relies on this to untie itself from within its own callback).
func (r *registry[T]) each(fn func(tok Token, v T)) {
	snapshot := make([]Token, len(r.order))
	copy(snapshot, r.order)
	for _, tok := range snapshot {
		v, ok := r.byTok[tok]
		if !ok {
			continue
		}
		fn(tok, v)
	}
}
