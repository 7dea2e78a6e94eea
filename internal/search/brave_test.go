package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-enricher/internal/types"
)

const braveFixture = `{
	"web": {"results": [
		{"title": "Ada Lovelace - Wikipedia", "description": "English mathematician", "url": "https://en.wikipedia.org/wiki/Ada_Lovelace"},
		{"title": "Ada Lovelace Institute", "description": "Research institute", "url": "https://adalovelaceinstitute.org"}
	]},
	"mixed": {"results": [
		{"type": "web", "content": {"title": "Duplicate", "description": "same url", "url": "https://en.wikipedia.org/wiki/Ada_Lovelace"}},
		{"type": "video", "content": {"title": "ignored", "url": "https://video.example.com"}}
	]},
	"news": {"results": [
		{"title": "News piece", "description": "coverage", "url": "https://news.example.com/ada"}
	]},
	"discussions": {"results": [
		{"title": "Forum thread", "description": "discussion", "url": "https://forum.example.com/t/1"}
	]}
}`

func newTestBrave(t *testing.T, handler http.HandlerFunc, opts ...BraveOption) *BraveClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]BraveOption{WithBraveEndpoint(srv.URL)}, opts...)
	client, err := NewBraveClient("test-key", opts...)
	require.NoError(t, err)
	return client
}

func TestBraveSearch_MergesGroupsAndDedupes(t *testing.T) {
	client := newTestBrave(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "ada lovelace", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(braveFixture))
	})

	candidates, err := client.Search(context.Background(), "ada lovelace")
	require.NoError(t, err)

	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = c.URL
	}
	assert.Equal(t, []string{
		"https://en.wikipedia.org/wiki/Ada_Lovelace",
		"https://adalovelaceinstitute.org",
		"https://news.example.com/ada",
		"https://forum.example.com/t/1",
	}, urls)
}

func TestBraveSearch_CapsAtMaxResults(t *testing.T) {
	client := newTestBrave(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(braveFixture))
	}, WithBraveMaxResults(2))

	candidates, err := client.Search(context.Background(), "ada")
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestBraveSearch_RateLimitIsTransient(t *testing.T) {
	client := newTestBrave(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "ada")
	require.Error(t, err)
	assert.True(t, types.IsTransient(err))
}

func TestBraveSearch_ClientErrorIsPermanent(t *testing.T) {
	client := newTestBrave(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Search(context.Background(), "ada")
	require.Error(t, err)
	assert.False(t, types.IsTransient(err))
}

func TestBraveSearch_MalformedBody(t *testing.T) {
	client := newTestBrave(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})

	_, err := client.Search(context.Background(), "ada")
	require.ErrorIs(t, err, types.ErrMalformedResponse)
}

func TestBraveSearch_EmptyResultsIsValid(t *testing.T) {
	client := newTestBrave(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	candidates, err := client.Search(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
