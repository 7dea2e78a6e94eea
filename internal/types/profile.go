// Package types defines the shared data model for profile enrichment:
// input profiles, search candidates, and persisted match records.
package types

import "strings"

// Profile is a social profile to enrich. The enricher only reads it;
// handles are unique within an input set.
type Profile struct {
	Handle      string   `json:"handle"`
	DisplayName string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Followers   int      `json:"followers,omitempty"`
	Following   int      `json:"following,omitempty"`
	Rank        int      `json:"rank,omitempty"`
}

// Key returns the handle normalized for use as a unique key
// (leading @ stripped, lowercased).
func (p Profile) Key() string {
	return NormalizeHandle(p.Handle)
}

// NormalizeHandle strips a leading @ and lowercases a handle.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}
