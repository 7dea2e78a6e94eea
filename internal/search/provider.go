// Package search defines the web-search provider contract and clients
// for the supported providers (Brave Search, Google Custom Search).
// The orchestrator is agnostic to which provider backs the interface.
package search

import (
	"context"

	"github.com/jonathan/profile-enricher/internal/types"
)

// DefaultMaxResults bounds how many candidates a single query returns.
const DefaultMaxResults = 10

// Provider performs a web search and returns an ordered, bounded list
// of candidates. Implementations must return a TransientError (via
// types.Transient) for rate limits and other retryable failures.
type Provider interface {
	Search(ctx context.Context, query string) ([]types.SearchCandidate, error)
}

// dedupeByURL removes candidates whose URL was already seen, keeping
// the first occurrence so provider ordering is preserved.
func dedupeByURL(candidates []types.SearchCandidate) []types.SearchCandidate {
	seen := make(map[string]bool, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	return out
}
