// Package synth turns a profile's display name and self-description
// into a single web search query via an LLM call.
package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/profile-enricher/internal/llm"
	"github.com/jonathan/profile-enricher/internal/prompts"
	"github.com/jonathan/profile-enricher/internal/types"
)

// MaxQueryLength caps synthesized queries at a length every search API
// accepts.
const MaxQueryLength = 400

// ErrNoQuery means the profile carries nothing a query could be built
// from. This is a terminal skip, not a retryable failure.
var ErrNoQuery = errors.New("profile has no display name or description to build a query from")

// Synthesizer produces search queries for profiles.
type Synthesizer struct {
	client llm.Client
	logger *zap.Logger
}

// New creates a Synthesizer.
func New(client llm.Client, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{client: client, logger: logger}
}

// Synthesize returns a non-empty query for the profile. An LLM call
// failure is reported as transient so the caller can retry; an empty or
// unusable LLM response falls back to the plain "name description"
// query rather than failing the profile.
func (s *Synthesizer) Synthesize(ctx context.Context, profile types.Profile) (string, error) {
	name := strings.TrimSpace(profile.DisplayName)
	description := strings.TrimSpace(profile.Description)
	if name == "" && description == "" {
		return "", ErrNoQuery
	}

	prompt := prompts.MustGet("enrichment.json", "query_synthesis_system") + "\n\n" +
		prompts.Format(prompts.MustGet("enrichment.json", "query_synthesis_user"), map[string]string{
			"DisplayName": name,
			"Description": description,
		})

	response, err := s.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		return "", types.Transient("query-synthesis", err)
	}

	query := cleanQuery(response)
	if query == "" {
		query = fallbackQuery(name, description)
		s.logger.Warn("empty synthesized query, using fallback",
			zap.String("handle", profile.Handle),
			zap.String("query", query))
	}

	return truncate(query, MaxQueryLength), nil
}

// WikipediaQuery returns the side query used to surface the profile's
// Wikipedia article, if any.
func WikipediaQuery(profile types.Profile) string {
	return truncate(fmt.Sprintf("%s wikipedia", strings.TrimSpace(profile.DisplayName)), MaxQueryLength)
}

// cleanQuery reduces an LLM response to a single-line query.
func cleanQuery(response string) string {
	query := strings.TrimSpace(response)
	if idx := strings.IndexByte(query, '\n'); idx >= 0 {
		query = query[:idx]
	}
	return strings.Trim(strings.TrimSpace(query), `"`)
}

func fallbackQuery(name, description string) string {
	return strings.TrimSpace(name + " " + description)
}

// truncate cuts s to at most n bytes without splitting a multibyte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.TrimSpace(s[:n])
}
