package topics

// Stats counts canonicalization coverage so operators can judge how
// well the alias table covers real input.
type Stats struct {
	TokensSeen     int
	TokensResolved int
}

// Canonicalizer resolves raw topic tokens against an AliasIndex.
type Canonicalizer struct {
	index *AliasIndex
	stats Stats
}

// NewCanonicalizer wraps an AliasIndex for repeated canonicalization.
func NewCanonicalizer(index *AliasIndex) *Canonicalizer {
	return &Canonicalizer{index: index}
}

// Canonicalize resolves each raw token to its canonical topic.
// Unresolved tokens are dropped, not errors. The output is deduplicated
// and preserves first-seen order; empty input yields an empty set.
func (c *Canonicalizer) Canonicalize(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, token := range raw {
		if Normalize(token) == "" {
			continue
		}
		c.stats.TokensSeen++
		canonical, ok := c.index.Lookup(token)
		if !ok {
			continue
		}
		c.stats.TokensResolved++
		if !seen[canonical] {
			seen[canonical] = true
			out = append(out, canonical)
		}
	}
	return out
}

// Stats returns cumulative token counts across all Canonicalize calls.
func (c *Canonicalizer) Stats() Stats {
	return c.stats
}

// Conflicts returns the alias conflicts recorded while building the
// underlying index.
func (c *Canonicalizer) Conflicts() []ConflictError {
	return c.index.Conflicts()
}
