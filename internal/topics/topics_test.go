package topics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goEntries() []AliasEntry {
	return []AliasEntry{
		{Canonical: "go programming language", AltForms: []string{"golang", "go lang"}},
		{Canonical: "machine learning", AltForms: []string{"ml", "apprentissage automatique", "maschinelles lernen"}},
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "go lang", Normalize("  Go   Lang "))
	assert.Equal(t, "golang", Normalize("GoLang"))
	assert.Equal(t, "", Normalize("   "))
}

func TestLookup_AltFormsResolve(t *testing.T) {
	idx, err := BuildIndex(goEntries(), ConflictStrict, nil)
	require.NoError(t, err)

	for _, alt := range []string{"golang", "GoLang", "go  lang", "Go Programming Language"} {
		canonical, ok := idx.Lookup(alt)
		require.True(t, ok, "expected %q to resolve", alt)
		assert.Equal(t, "go programming language", canonical)
	}
}

func TestLookup_CanonicalIsItsOwnAlias(t *testing.T) {
	idx, err := BuildIndex(goEntries(), ConflictStrict, nil)
	require.NoError(t, err)

	canonical, ok := idx.Lookup("machine learning")
	require.True(t, ok)
	assert.Equal(t, "machine learning", canonical)
}

func TestBuildIndex_StrictConflict(t *testing.T) {
	entries := []AliasEntry{
		{Canonical: "rust programming language", AltForms: []string{"rust"}},
		{Canonical: "rust video game", AltForms: []string{"rust"}},
	}

	_, err := BuildIndex(entries, ConflictStrict, nil)
	require.Error(t, err)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "rust", conflict.AltForm)
}

func TestBuildIndex_LenientKeepsFirstSeen(t *testing.T) {
	entries := []AliasEntry{
		{Canonical: "rust programming language", AltForms: []string{"rust"}},
		{Canonical: "rust video game", AltForms: []string{"rust"}},
	}

	idx, err := BuildIndex(entries, ConflictLenient, nil)
	require.NoError(t, err)

	canonical, ok := idx.Lookup("Rust")
	require.True(t, ok)
	assert.Equal(t, "rust programming language", canonical)
	require.Len(t, idx.Conflicts(), 1)
	assert.Equal(t, "rust", idx.Conflicts()[0].AltForm)
}

func TestCanonicalize_DropsUnknownAndDedupes(t *testing.T) {
	idx, err := BuildIndex(goEntries(), ConflictStrict, nil)
	require.NoError(t, err)
	c := NewCanonicalizer(idx)

	got := c.Canonicalize([]string{"GoLang", "unknown_topic", "go lang", "ML"})
	assert.Equal(t, []string{"go programming language", "machine learning"}, got)

	stats := c.Stats()
	assert.Equal(t, 4, stats.TokensSeen)
	assert.Equal(t, 3, stats.TokensResolved)
}

func TestCanonicalize_EmptyInput(t *testing.T) {
	idx, err := BuildIndex(goEntries(), ConflictStrict, nil)
	require.NoError(t, err)

	got := NewCanonicalizer(idx).Canonicalize(nil)
	assert.Empty(t, got)
}

func TestCanonicalize_Idempotent(t *testing.T) {
	idx, err := BuildIndex(goEntries(), ConflictStrict, nil)
	require.NoError(t, err)
	c := NewCanonicalizer(idx)

	once := c.Canonicalize([]string{"golang", "ml", "mystery"})
	twice := c.Canonicalize(once)
	assert.Equal(t, once, twice)
}

func TestParseEntries_SkipsMalformed(t *testing.T) {
	data := []byte(`[
		{"canonical": "go programming language", "alt_forms": ["golang"]},
		{"canonical": "", "alt_forms": ["nameless"]},
		{"canonical": 42, "alt_forms": []},
		{"canonical": "machine learning", "alt_forms": ["ml"]}
	]`)

	entries, err := ParseEntries(data, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "go programming language", entries[0].Canonical)
	assert.Equal(t, "machine learning", entries[1].Canonical)
}

func TestParseEntries_InvalidJSON(t *testing.T) {
	_, err := ParseEntries([]byte("{not json"), nil)
	require.Error(t, err)
}
