package cell

// Tie registers a change-subscriber, invoked with the new value whenever the
// cell becomes ready or transitions to a new ready value. It performs an
// implicit Use() and, if the cell is already ready, invokes f synchronously
// with the current value before returning.
func (c *Cell) Tie(f func(v any)) Token {
	tok := c.changeSubs.add(f)
	c.Use()
	if c.ready {
		v := c.value
		c.safeInvoke(func() { f(v) })
	}
	return tok
}

// Untie is the inverse of Tie.
func (c *Cell) Untie(tok Token) {
	if !c.changeSubs.remove(tok) {
		c.warn(UnknownSubscriber, "untie() of an unknown token")
		return
	}
	c.Drop()
}

// Notify registers a readiness-notifier, invoked with no value on both
// becoming-ready and becoming-not-ready transitions. It also performs an
// implicit Use().
func (c *Cell) Notify(f func()) Token {
	tok := c.notifiers.add(f)
	c.Use()
	return tok
}

// Unnotify is the inverse of Notify.
func (c *Cell) Unnotify(tok Token) {
	if !c.notifiers.remove(tok) {
		c.warn(UnknownSubscriber, "unnotify() of an unknown token")
		return
	}
	c.Drop()
}

// Then adds a one-shot observer: it performs a Use(), runs immediately (and
// drops) if the cell is already ready, or otherwise queues until the next
// ready transition, at which point it fires once and the implicit Use() is
// balanced by a Drop().
func (c *Cell) Then(f func(v any)) {
	c.Use()
	if c.ready {
		v := c.value
		c.safeInvoke(func() { f(v) })
		c.Drop()
		return
	}
	c.thens.add(f)
}

// Done behaves like Tie, but automatically unties after the first
// invocation for which IsDoneFunc(value) returns true. The cell must set
// IsDoneFunc or this panics with the fatal DoneUnsupported kind.
func (c *Cell) Done(f func(v any)) Token {
	if c.IsDoneFunc == nil {
		c.warn(DoneUnsupported, "done() called on a cell with no IsDoneFunc")
		return 0 // unreachable: warn panics for fatal kinds
	}

	var tok Token
	wrapper := func(v any) {
		f(v)
		if c.IsDoneFunc(v) {
			c.Untie(tok)
		}
	}
	tok = c.changeSubs.add(wrapper)
	c.Use()
	if c.ready {
		v := c.value
		c.safeInvoke(func() { wrapper(v) })
	}
	return tok
}

// IsDone reports whether v satisfies this cell's done predicate; cells that
// never configured IsDoneFunc are never done.
func (c *Cell) IsDone(v any) bool {
	if c.IsDoneFunc == nil {
		return false
	}
	return c.IsDoneFunc(v)
}
