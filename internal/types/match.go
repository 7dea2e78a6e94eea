package types

import "strings"

// SearchCandidate is a single search-provider result under evaluation.
// Candidates are ephemeral; only verified ones are persisted.
type SearchCandidate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SourceType classifies where a matched result lives on the web.
type SourceType string

// Known source types, in rough order of usefulness for enrichment.
const (
	SourceWikipedia SourceType = "wikipedia"
	SourceLinkedIn  SourceType = "linkedin"
	SourceTwitter   SourceType = "twitter"
	SourceGitHub    SourceType = "github"
	SourceBlog      SourceType = "blog"
	SourceAcademic  SourceType = "academic"
	SourceNews      SourceType = "news"
	SourceOther     SourceType = "other"
)

// ClassifySource determines the source type of a URL by pattern.
func ClassifySource(url string) SourceType {
	switch {
	case strings.Contains(url, "wikipedia.org/wiki/"):
		return SourceWikipedia
	case strings.Contains(url, "linkedin.com"):
		return SourceLinkedIn
	case strings.Contains(url, "twitter.com"), strings.Contains(url, "x.com"):
		return SourceTwitter
	case strings.Contains(url, "github.com"):
		return SourceGitHub
	case strings.Contains(url, "medium.com"), strings.Contains(url, "substack.com"), strings.Contains(url, "blog"):
		return SourceBlog
	case strings.Contains(url, ".edu"):
		return SourceAcademic
	case strings.Contains(url, "news"), strings.Contains(url, "nytimes.com"),
		strings.Contains(url, "washingtonpost.com"), strings.Contains(url, "cnn.com"):
		return SourceNews
	default:
		return SourceOther
	}
}

// WikipediaData holds the expertise extraction for a verified Wikipedia match.
type WikipediaData struct {
	ExpertiseSummary string `json:"expertise_summary"`
	ExpertiseRaw     string `json:"expertise_data_raw"`
	BiographicalRaw  string `json:"biographical_data_raw"`
	SourceURL        string `json:"source_url"`
}

// MatchedResult is a search candidate that passed identity verification.
type MatchedResult struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	URL         string         `json:"url"`
	SourceType  SourceType     `json:"source_type"`
	Wikipedia   *WikipediaData `json:"wikipedia_data,omitempty"`
}

// MatchRecord is the persisted outcome for one profile with at least one
// verified match. Records are merged, never overwritten: a later run may
// append additional results for the same handle, deduplicated by URL.
type MatchRecord struct {
	Handle         string          `json:"-"`
	MatchedResults []MatchedResult `json:"matched_results"`
}

// HasURL reports whether the record already holds a result for url.
func (r *MatchRecord) HasURL(url string) bool {
	for _, m := range r.MatchedResults {
		if m.URL == url {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record.
func (r *MatchRecord) Clone() *MatchRecord {
	out := &MatchRecord{Handle: r.Handle}
	out.MatchedResults = make([]MatchedResult, len(r.MatchedResults))
	copy(out.MatchedResults, r.MatchedResults)
	for i, m := range r.MatchedResults {
		if m.Wikipedia != nil {
			wd := *m.Wikipedia
			out.MatchedResults[i].Wikipedia = &wd
		}
	}
	return out
}
