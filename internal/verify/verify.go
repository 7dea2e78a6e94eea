// Package verify decides whether a search candidate actually refers to
// the profile under enrichment. Each candidate is judged independently
// by an LLM call; a match is accepted only above a strict confidence
// bar because a false identity link is worse than a missed one.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/profile-enricher/internal/llm"
	"github.com/jonathan/profile-enricher/internal/prompts"
	"github.com/jonathan/profile-enricher/internal/types"
)

// ConfidenceThreshold is the precision bar for accepting a match.
// The comparison is strictly greater-than; this is a correctness
// constant, not a tunable.
const ConfidenceThreshold = 0.95

// Verdict is the verifier's decision for one (profile, candidate) pair.
type Verdict struct {
	IsMatch    bool    `json:"is_match"`
	Confidence float64 `json:"confidence"`
}

// Accept reports whether the verdict clears the confidence bar.
func (v Verdict) Accept() bool {
	return v.IsMatch && v.Confidence > ConfidenceThreshold
}

// Verifier judges candidates against profiles.
type Verifier struct {
	client llm.Client
	logger *zap.Logger
}

// New creates a Verifier.
func New(client llm.Client, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{client: client, logger: logger}
}

// Verify returns the verdict for one candidate. Wikipedia articles get
// a cheap title pre-check first: when the article title does not even
// contain the profile's name tokens, the candidate is rejected without
// spending an LLM call. LLM failures are transient; an unparseable
// verdict is reported as a malformed response.
func (v *Verifier) Verify(ctx context.Context, profile types.Profile, candidate types.SearchCandidate) (Verdict, error) {
	if strings.Contains(candidate.URL, "wikipedia.org/wiki/") &&
		!WikipediaTitleMatches(profile.DisplayName, candidate.URL) {
		v.logger.Debug("wikipedia title does not match profile name",
			zap.String("handle", profile.Handle),
			zap.String("url", candidate.URL))
		return Verdict{}, nil
	}

	prompt := prompts.MustGet("enrichment.json", "verify_system") + "\n\n" +
		prompts.Format(prompts.MustGet("enrichment.json", "verify_user"), map[string]string{
			"DisplayName":       profile.DisplayName,
			"Description":       profile.Description,
			"Title":             candidate.Title,
			"ResultDescription": candidate.Description,
			"URL":               candidate.URL,
		})

	response, err := v.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return Verdict{}, types.Transient("verification", err)
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(response)), &verdict); err != nil {
		return Verdict{}, fmt.Errorf("%w: verifier returned %q", types.ErrMalformedResponse, firstN(response, 120))
	}

	verdict.Confidence = clamp01(verdict.Confidence)
	return verdict, nil
}

// WikipediaTitleMatches checks that every token of the display name
// appears in the article title taken from the URL path.
func WikipediaTitleMatches(displayName, articleURL string) bool {
	title := articleURL
	if idx := strings.LastIndex(title, "/wiki/"); idx >= 0 {
		title = title[idx+len("/wiki/"):]
	}
	if idx := strings.IndexByte(title, '#'); idx >= 0 {
		title = title[:idx]
	}
	if decoded, err := url.PathUnescape(title); err == nil {
		title = decoded
	}
	title = strings.ToLower(strings.ReplaceAll(title, "_", " "))

	for _, part := range strings.Fields(strings.ToLower(displayName)) {
		if !strings.Contains(title, part) {
			return false
		}
	}
	return true
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
