package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/profile-enricher/internal/types"
)

// braveEndpoint is the Brave Search web API.
const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// BraveClient implements Provider against the Brave Search API.
type BraveClient struct {
	apiKey     string
	endpoint   string
	maxResults int
	httpClient *http.Client
	logger     *zap.Logger
}

// BraveOption customizes a BraveClient.
type BraveOption func(*BraveClient)

// WithBraveEndpoint overrides the API endpoint (tests).
func WithBraveEndpoint(endpoint string) BraveOption {
	return func(c *BraveClient) { c.endpoint = endpoint }
}

// WithBraveMaxResults bounds the number of results per query.
func WithBraveMaxResults(n int) BraveOption {
	return func(c *BraveClient) { c.maxResults = n }
}

// WithBraveLogger sets the client logger.
func WithBraveLogger(logger *zap.Logger) BraveOption {
	return func(c *BraveClient) { c.logger = logger }
}

// NewBraveClient creates a Brave Search client.
func NewBraveClient(apiKey string, opts ...BraveOption) (*BraveClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Brave Search API key is required")
	}
	c := &BraveClient{
		apiKey:     apiKey,
		endpoint:   braveEndpoint,
		maxResults: DefaultMaxResults,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// braveResponse mirrors the result groups the enricher consumes from
// the Brave API. Result items can appear under web, mixed, news, and
// discussions groups; all carry title/description/url.
type braveResponse struct {
	Web         braveResultGroup `json:"web"`
	News        braveResultGroup `json:"news"`
	Discussions braveResultGroup `json:"discussions"`
	Mixed       struct {
		Results []struct {
			Type    string     `json:"type"`
			Content braveEntry `json:"content"`
		} `json:"results"`
	} `json:"mixed"`
}

type braveResultGroup struct {
	Results []braveEntry `json:"results"`
}

type braveEntry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Search queries Brave and returns the merged, URL-deduplicated web
// results across all result groups, in the provider's order.
func (c *BraveClient) Search(ctx context.Context, query string) ([]types.SearchCandidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(c.maxResults))
	q.Set("extra_snippets", "true")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("X-Subscription-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, types.Transient("search", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.Transient("search", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, types.Transient("search", fmt.Errorf("HTTP status %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("search failed with HTTP status %d", resp.StatusCode)
	}

	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedResponse, err)
	}

	candidates := make([]types.SearchCandidate, 0, c.maxResults)
	appendEntry := func(e braveEntry) {
		candidates = append(candidates, types.SearchCandidate{
			Title:       e.Title,
			Description: e.Description,
			URL:         e.URL,
		})
	}

	for _, e := range parsed.Web.Results {
		appendEntry(e)
	}
	for _, item := range parsed.Mixed.Results {
		if item.Type == "web" && item.Content.URL != "" {
			appendEntry(item.Content)
		}
	}
	for _, e := range parsed.News.Results {
		appendEntry(e)
	}
	for _, e := range parsed.Discussions.Results {
		appendEntry(e)
	}

	candidates = dedupeByURL(candidates)
	if len(candidates) > c.maxResults {
		candidates = candidates[:c.maxResults]
	}

	c.logger.Debug("brave search complete",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)))
	return candidates, nil
}
