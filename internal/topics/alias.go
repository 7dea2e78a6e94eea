// Package topics resolves free-text topic tokens to canonical topic
// labels using a closed, pre-enumerated multilingual alias table.
// Matching is exact after normalization; there is no fuzzy or partial
// matching because a wrong topic label is worse than a missing one.
package topics

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ConflictPolicy controls what happens when two alias entries map the
// same normalized alt-form to different canonical topics.
type ConflictPolicy string

const (
	// ConflictStrict aborts index construction on the first conflict.
	ConflictStrict ConflictPolicy = "strict"
	// ConflictLenient keeps the first-seen mapping and records the
	// conflict for operator review.
	ConflictLenient ConflictPolicy = "lenient"
)

// AliasEntry maps a set of alt-form strings to one canonical topic.
type AliasEntry struct {
	Canonical string   `json:"canonical"`
	AltForms  []string `json:"alt_forms"`
}

// ConflictError reports an alt-form claimed by two canonical topics.
type ConflictError struct {
	AltForm   string
	Existing  string
	Conflicts string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("alias conflict: %q maps to both %q and %q", e.AltForm, e.Existing, e.Conflicts)
}

// AliasIndex is an immutable alt-form to canonical-topic mapping, built
// once at startup and read-only for the process lifetime.
type AliasIndex struct {
	byAlt     map[string]string
	conflicts []ConflictError
}

// Normalize prepares a token for lookup: lowercase, trim, collapse
// internal whitespace to single spaces. No stemming, no transliteration;
// multilingual variants are enumerated in the table, not derived.
func Normalize(token string) string {
	return strings.Join(strings.Fields(strings.ToLower(token)), " ")
}

// BuildIndex constructs an AliasIndex from entries. Every canonical
// topic is implicitly its own alt-form. Under ConflictStrict the first
// duplicate alt-form mapping to a different canonical aborts the build.
func BuildIndex(entries []AliasEntry, policy ConflictPolicy, logger *zap.Logger) (*AliasIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	idx := &AliasIndex{byAlt: make(map[string]string)}

	for _, entry := range entries {
		canonical := Normalize(entry.Canonical)
		if canonical == "" {
			continue
		}
		forms := append([]string{entry.Canonical}, entry.AltForms...)
		for _, alt := range forms {
			norm := Normalize(alt)
			if norm == "" {
				continue
			}
			existing, ok := idx.byAlt[norm]
			if ok && existing != canonical {
				conflict := ConflictError{AltForm: norm, Existing: existing, Conflicts: canonical}
				if policy == ConflictStrict {
					return nil, &conflict
				}
				idx.conflicts = append(idx.conflicts, conflict)
				logger.Warn("alias conflict, keeping first-seen mapping",
					zap.String("alt_form", norm),
					zap.String("kept", existing),
					zap.String("rejected", canonical))
				continue
			}
			idx.byAlt[norm] = canonical
		}
	}

	return idx, nil
}

// Lookup resolves a token to its canonical topic. The token is
// normalized before the exact-match lookup; unresolved tokens return
// ok=false and are never guessed at.
func (idx *AliasIndex) Lookup(token string) (string, bool) {
	canonical, ok := idx.byAlt[Normalize(token)]
	return canonical, ok
}

// Conflicts returns the conflicts recorded under ConflictLenient.
func (idx *AliasIndex) Conflicts() []ConflictError {
	return idx.conflicts
}

// Len returns the number of alt-form mappings in the index.
func (idx *AliasIndex) Len() int {
	return len(idx.byAlt)
}
