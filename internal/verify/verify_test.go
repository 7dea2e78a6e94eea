package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-enricher/internal/llm"
	"github.com/jonathan/profile-enricher/internal/types"
)

type stubClient struct {
	response string
	err      error
	calls    int
}

func (s *stubClient) GenerateContent(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return s.GenerateContent(ctx, prompt, tier)
}

func (s *stubClient) Close() error { return nil }

func profile() types.Profile {
	return types.Profile{
		Handle:      "ada.example.social",
		DisplayName: "Ada Lovelace",
		Description: "Mathematician",
	}
}

func webCandidate() types.SearchCandidate {
	return types.SearchCandidate{
		Title:       "Ada Lovelace, pioneer of computing",
		Description: "Profile of the mathematician",
		URL:         "https://example.com/ada",
	}
}

func TestVerdictAccept_ThresholdIsStrict(t *testing.T) {
	tests := []struct {
		name    string
		verdict Verdict
		want    bool
	}{
		{"exactly at threshold rejected", Verdict{IsMatch: true, Confidence: 0.95}, false},
		{"just above threshold accepted", Verdict{IsMatch: true, Confidence: 0.951}, true},
		{"high confidence non-match rejected", Verdict{IsMatch: false, Confidence: 0.99}, false},
		{"certain match accepted", Verdict{IsMatch: true, Confidence: 1.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.verdict.Accept())
		})
	}
}

func TestVerify_ParsesVerdict(t *testing.T) {
	client := &stubClient{response: `{"is_match": true, "confidence": 0.97}`}
	v := New(client, nil)

	verdict, err := v.Verify(context.Background(), profile(), webCandidate())
	require.NoError(t, err)
	assert.True(t, verdict.Accept())
	assert.Equal(t, 1, client.calls)
}

func TestVerify_FencedJSONResponse(t *testing.T) {
	client := &stubClient{response: "```json\n{\"is_match\": true, \"confidence\": 0.98}\n```"}
	v := New(client, nil)

	verdict, err := v.Verify(context.Background(), profile(), webCandidate())
	require.NoError(t, err)
	assert.True(t, verdict.Accept())
}

func TestVerify_ClampsConfidence(t *testing.T) {
	client := &stubClient{response: `{"is_match": true, "confidence": 1.7}`}
	v := New(client, nil)

	verdict, err := v.Verify(context.Background(), profile(), webCandidate())
	require.NoError(t, err)
	assert.Equal(t, 1.0, verdict.Confidence)
}

func TestVerify_MalformedResponse(t *testing.T) {
	client := &stubClient{response: "YES"}
	v := New(client, nil)

	_, err := v.Verify(context.Background(), profile(), webCandidate())
	require.ErrorIs(t, err, types.ErrMalformedResponse)
}

func TestVerify_LLMErrorIsTransient(t *testing.T) {
	client := &stubClient{err: errors.New("deadline exceeded")}
	v := New(client, nil)

	_, err := v.Verify(context.Background(), profile(), webCandidate())
	require.Error(t, err)
	assert.True(t, types.IsTransient(err))
}

func TestVerify_WikipediaTitleMismatchSkipsLLM(t *testing.T) {
	client := &stubClient{response: `{"is_match": true, "confidence": 0.99}`}
	v := New(client, nil)

	verdict, err := v.Verify(context.Background(), profile(), types.SearchCandidate{
		Title: "Analytical engine",
		URL:   "https://en.wikipedia.org/wiki/Analytical_engine",
	})
	require.NoError(t, err)
	assert.False(t, verdict.Accept())
	assert.Equal(t, 0, client.calls)
}

func TestVerify_WikipediaTitleMatchProceedsToLLM(t *testing.T) {
	client := &stubClient{response: `{"is_match": true, "confidence": 0.99}`}
	v := New(client, nil)

	verdict, err := v.Verify(context.Background(), profile(), types.SearchCandidate{
		Title: "Ada Lovelace - Wikipedia",
		URL:   "https://en.wikipedia.org/wiki/Ada_Lovelace",
	})
	require.NoError(t, err)
	assert.True(t, verdict.Accept())
	assert.Equal(t, 1, client.calls)
}

func TestWikipediaTitleMatches(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"Ada Lovelace", "https://en.wikipedia.org/wiki/Ada_Lovelace", true},
		{"Ada Lovelace", "https://en.wikipedia.org/wiki/Ada_Lovelace#Early_life", true},
		{"Ada Lovelace", "https://en.wikipedia.org/wiki/Analytical_engine", false},
		{"Kurt Gödel", "https://en.wikipedia.org/wiki/Kurt_G%C3%B6del", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, WikipediaTitleMatches(tt.name, tt.url))
		})
	}
}
