package cell

// Log registers a tie that prints every value this cell takes on, returning
// the token so the caller can Untie it later. Part of the presentation
// surface named in §6 ("presentation: ready(), notReady(), latched(),
// default(), log()").
func (c *Cell) Log(logger Logger) Token {
	if logger == nil {
		logger = c.logger()
	}
	return c.Tie(func(v any) {
		logger.Printf("cell #%d: %#v", c.id, v)
	})
}
