package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/jonathan/profile-enricher/internal/types"
)

// GoogleClient implements Provider against the Google Custom Search
// JSON API. It is the drop-in alternative to Brave for deployments
// already holding Google API credentials.
type GoogleClient struct {
	svc        *customsearch.Service
	cx         string
	maxResults int
}

// NewGoogleClient creates a Google Custom Search client. cx is the
// programmable search engine ID.
func NewGoogleClient(ctx context.Context, apiKey, cx string, maxResults int) (*GoogleClient, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("Google Search API key and CX are required")
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	if maxResults <= 0 || maxResults > DefaultMaxResults {
		maxResults = DefaultMaxResults
	}
	return &GoogleClient{svc: svc, cx: cx, maxResults: maxResults}, nil
}

// Search queries the programmable search engine and maps items to
// candidates in result order.
func (c *GoogleClient) Search(ctx context.Context, query string) ([]types.SearchCandidate, error) {
	resp, err := c.svc.Cse.List().Context(ctx).Cx(c.cx).Q(query).Num(int64(c.maxResults)).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
				return nil, types.Transient("search", err)
			}
			return nil, fmt.Errorf("search failed: %w", err)
		}
		return nil, types.Transient("search", err)
	}

	candidates := make([]types.SearchCandidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		candidates = append(candidates, types.SearchCandidate{
			Title:       item.Title,
			Description: item.Snippet,
			URL:         item.Link,
		})
	}
	return dedupeByURL(candidates), nil
}
