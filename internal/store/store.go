// Package store persists match records keyed by profile handle.
package store

import (
	"context"

	"github.com/jonathan/profile-enricher/internal/types"
)

// Store is the persistence surface for resolved match records. Merge is
// idempotent: re-merging a record for a handle already present only adds
// results whose URLs are not stored yet.
type Store interface {
	// Load reads all previously stored records.
	Load(ctx context.Context) (map[string]*types.MatchRecord, error)

	// Merge folds a record into the store, deduplicating by result URL.
	Merge(ctx context.Context, record *types.MatchRecord) error

	// Flush makes pending merges durable.
	Flush(ctx context.Context) error

	// Handles lists the handles that already have a stored record.
	Handles(ctx context.Context) ([]string, error)
}

// mergeResults appends the results from incoming whose URLs are not
// already present in existing, preserving order.
func mergeResults(existing, incoming []types.MatchedResult) []types.MatchedResult {
	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		seen[r.URL] = true
	}
	merged := existing
	for _, r := range incoming {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		merged = append(merged, r)
	}
	return merged
}
