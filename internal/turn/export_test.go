package turn

// Exports for testing.

// WithIDs exposes withIDs for testing.
var WithIDs = withIDs

// MatchExit exposes exit phrase matching for testing.
func (c *Controller) MatchExit(folded string) (string, bool) {
	return c.matchExit(folded)
}
