package cell

import "github.com/reactive-cells/cellgraph/internal/wire"

// Changed proposes a new value (§4.1). It is ignored if v is the undefined
// sentinel; if v is nil and the cell disallows null it resets instead;
// otherwise it triggers only when not ready or when v is not canonically
// equal to the current value.
func (c *Cell) Changed(v any) {
	if isUndefined(v) {
		c.warn(TriggerOfUndefined, "changed() called with the undefined sentinel")
		return
	}
	if v == nil && !c.mayBeNull {
		c.Reset()
		return
	}
	if !c.ready || !wire.Equal(c.value, v) {
		c.Trigger(v)
	}
}

// Trigger forces a transition to v, bypassing the canonical-equality check
// Changed performs: readiness-notifiers always fire. Change-subscribers fire
// only when the cell was not ready or v is not canonically equal to the
// current value. It still guards against reentrancy and the undefined
// sentinel.
func (c *Cell) Trigger(v any) {
	if isUndefined(v) {
		c.warn(TriggerOfUndefined, "trigger() called with the undefined sentinel")
		return
	}
	if c.triggering {
		c.warn(ReentrantTrigger, "trigger() called reentrantly")
		return
	}
	c.triggering = true
	depth := pushCascade(c)
	defer func() {
		c.triggering = false
		popCascade(depth)
	}()

	same := c.ready && wire.Equal(c.value, v)
	c.ready = true
	c.value = v

	c.fireNotifiers()
	if !same {
		c.fireChangeSubs(v)
	}
	c.drainThens(v)

	if c.cacheIdentity != nil && c.cache != nil {
		c.cache.Changed(*c.cacheIdentity, v)
	}
}

// Reset returns the cell to not-ready, or to its configured default if one
// was set (§4.1: "Does not fire change-subscribers" for the not-ready path;
// the default path goes through Changed so canonical equality still applies
// and change-subscribers fire exactly when the value actually changes).
func (c *Cell) Reset() {
	if c.OnReset != nil {
		c.OnReset()
	}
	if c.hasDefault {
		c.Changed(c.defaultValue)
		return
	}
	if c.ready {
		c.ready = false
		c.value = nil
		c.fireNotifiers()
	}
}

// DefaultTo configures a default value that replaces any reset with that
// value, making the cell always-ready once configured. If the cell is
// currently not-ready, the default triggers immediately.
func (c *Cell) DefaultTo(v any) {
	c.hasDefault = true
	c.defaultValue = v
	if !c.ready {
		c.Trigger(v)
	}
}

func (c *Cell) fireNotifiers() {
	c.notifiers.each(func(_ Token, f func()) {
		c.safeInvoke(func() { f() })
	})
}

func (c *Cell) fireChangeSubs(v any) {
	c.changeSubs.each(func(_ Token, f func(any)) {
		c.safeInvoke(func() { f(v) })
	})
}

func (c *Cell) drainThens(v any) {
	if c.thens.len() == 0 {
		return
	}
	toDrop := make([]func(any), 0, c.thens.len())
	c.thens.each(func(tok Token, f func(any)) {
		c.thens.remove(tok)
		toDrop = append(toDrop, f)
		c.safeInvoke(func() { f(v) })
	})
	for range toDrop {
		c.Drop()
	}
}

// safeInvoke isolates a single observer callback: if it panics, the error is
// logged and the remaining observers still run (§7 propagation rule).
func (c *Cell) safeInvoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger().Printf("observer callback panicked on cell #%d: %v", c.id, r)
		}
	}()
	fn()
}
