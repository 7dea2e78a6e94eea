package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/profile-enricher/internal/config"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProfiles(t *testing.T) {
	path := writeTempFile(t, "profiles.json", `[
		{"handle": "alice.bsky.social", "name": "Alice Chen", "description": "NLP researcher", "topics": ["nlp", "ml"]},
		{"handle": "@Bob.bsky.social", "name": "Bob"}
	]`)

	profiles, err := loadProfiles(path)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Alice Chen", profiles[0].DisplayName)
	assert.Equal(t, []string{"nlp", "ml"}, profiles[0].Topics)
	assert.Equal(t, "bob.bsky.social", profiles[1].Key())
}

func TestLoadProfiles_SchemaViolation(t *testing.T) {
	path := writeTempFile(t, "profiles.json", `[{"name": "no handle"}]`)
	_, err := loadProfiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profiles file is invalid")
}

func TestLoadProfiles_MissingFile(t *testing.T) {
	_, err := loadProfiles(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestBuildCanonicalizer(t *testing.T) {
	path := writeTempFile(t, "aliases.json", `[
		{"canonical": "go programming language", "alt_forms": ["golang", "go lang"]}
	]`)

	canon, err := buildCanonicalizer(config.Config{AliasTable: path}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"go programming language"}, canon.Canonicalize([]string{"GoLang", "unknown"}))
}

func TestBuildCanonicalizer_StrictConflictFails(t *testing.T) {
	path := writeTempFile(t, "aliases.json", `[
		{"canonical": "go programming language", "alt_forms": ["go"]},
		{"canonical": "board game go", "alt_forms": ["go"]}
	]`)

	_, err := buildCanonicalizer(config.Config{AliasTable: path, StrictAliases: true}, zap.NewNop())
	require.Error(t, err)

	canon, err := buildCanonicalizer(config.Config{AliasTable: path}, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, canon.Conflicts(), 1)
}

func TestBuildCanonicalizer_SkipsMalformedEntries(t *testing.T) {
	path := writeTempFile(t, "aliases.json", `[
		{"canonical": "go programming language", "alt_forms": ["golang"]},
		{"alt_forms": ["orphaned"]},
		{"canonical": ""}
	]`)

	canon, err := buildCanonicalizer(config.Config{AliasTable: path}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"go programming language"}, canon.Canonicalize([]string{"golang", "orphaned"}))
}

func TestBuildCanonicalizer_InvalidTable(t *testing.T) {
	path := writeTempFile(t, "aliases.json", `{"canonical": "not an array"}`)
	_, err := buildCanonicalizer(config.Config{AliasTable: path}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alias table is invalid")
}
