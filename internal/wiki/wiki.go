// Package wiki extracts expertise and biographical data from the
// Wikipedia article of a verified match. Extraction failures degrade
// the match to a plain result; they never fail the profile.
package wiki

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/profile-enricher/internal/fetch"
	"github.com/jonathan/profile-enricher/internal/llm"
	"github.com/jonathan/profile-enricher/internal/prompts"
	"github.com/jonathan/profile-enricher/internal/types"
)

// maxContentChars bounds how much page text is handed to the LLM.
const maxContentChars = 40000

// minSummaryParagraph filters out stub paragraphs when picking the
// article's lead paragraph.
const minSummaryParagraph = 50

var citationPattern = regexp.MustCompile(`\[\d+\]`)

// PageSummary is the structured content parsed from an article page.
type PageSummary struct {
	Title      string
	Summary    string
	Infobox    map[string]string
	Categories []string
	BodyText   string
}

// Extractor fetches and summarizes Wikipedia articles.
type Extractor struct {
	client     llm.Client
	fetchOpts  *fetch.Options
	useBrowser bool
	logger     *zap.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithBrowserFallback enables headless-browser rendering when the
// plain HTTP fetch returns too little content.
func WithBrowserFallback() Option {
	return func(e *Extractor) { e.useBrowser = true }
}

// WithFetchOptions overrides HTTP fetch options (tests).
func WithFetchOptions(opts *fetch.Options) Option {
	return func(e *Extractor) { e.fetchOpts = opts }
}

// NewExtractor creates an Extractor.
func NewExtractor(client llm.Client, logger *zap.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extractor{client: client, fetchOpts: fetch.DefaultOptions(), logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches the article and runs the three extraction passes:
// a long-form expertise summary, structured expertise data, and basic
// biographical facts.
func (e *Extractor) Extract(ctx context.Context, articleURL, name string) (*types.WikipediaData, error) {
	page, err := e.fetchPage(ctx, articleURL)
	if err != nil {
		return nil, err
	}

	content := page.ContentBlob()

	expertise, err := e.generate(ctx, "wiki_expertise", name, content, llm.TierAdvanced)
	if err != nil {
		return nil, fmt.Errorf("expertise summary failed: %w", err)
	}

	structured, err := e.generate(ctx, "wiki_structured", name, content, llm.TierLite)
	if err != nil {
		e.logger.Warn("structured expertise extraction failed", zap.String("url", articleURL), zap.Error(err))
	}

	bio, err := e.generate(ctx, "wiki_bio", name, content, llm.TierLite)
	if err != nil {
		e.logger.Warn("biographical extraction failed", zap.String("url", articleURL), zap.Error(err))
	}

	return &types.WikipediaData{
		ExpertiseSummary: expertise,
		ExpertiseRaw:     structured,
		BiographicalRaw:  bio,
		SourceURL:        articleURL,
	}, nil
}

func (e *Extractor) fetchPage(ctx context.Context, articleURL string) (*PageSummary, error) {
	var html string
	result, err := fetch.URL(ctx, articleURL, e.fetchOpts)
	switch {
	case err == nil:
		html = result.HTML
	case e.useBrowser:
		// fall through to the browser attempt below
	default:
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}

	page, parseErr := ParsePage(html)
	if e.useBrowser && (parseErr != nil || fetch.ShouldUseBrowser(page.BodyText)) {
		rendered, browserErr := fetch.WithBrowser(ctx, articleURL, e.fetchOpts.Timeout)
		if browserErr == nil {
			html = rendered
			page, parseErr = ParsePage(html)
		} else {
			e.logger.Warn("browser fallback failed", zap.String("url", articleURL), zap.Error(browserErr))
		}
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return page, nil
}

func (e *Extractor) generate(ctx context.Context, promptKey, name, content string, tier llm.ModelTier) (string, error) {
	prompt := prompts.MustGet("enrichment.json", promptKey+"_system") + "\n\n" +
		prompts.Format(prompts.MustGet("enrichment.json", promptKey+"_user"), map[string]string{
			"Name":    name,
			"Content": content,
		})

	text, err := e.client.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", types.Transient("wikipedia-extraction", err)
	}
	return strings.TrimSpace(text), nil
}

// ParsePage extracts the title, lead paragraph, infobox, and category
// list from article HTML.
func ParsePage(html string) (*PageSummary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article HTML: %w", err)
	}

	page := &PageSummary{Infobox: make(map[string]string)}
	page.Title = strings.TrimSpace(doc.Find("#firstHeading").Text())

	doc.Find("#mw-content-text p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.TrimSpace(p.Text())
		if len(text) > minSummaryParagraph {
			page.Summary = citationPattern.ReplaceAllString(text, "")
			return false
		}
		return true
	})

	doc.Find("table.infobox tr").Each(func(_ int, row *goquery.Selection) {
		header := strings.TrimSpace(row.Find("th").First().Text())
		value := strings.TrimSpace(row.Find("td").First().Text())
		if header != "" && value != "" {
			page.Infobox[header] = citationPattern.ReplaceAllString(value, "")
		}
	})

	doc.Find("#mw-normal-catlinks ul li a").Each(func(_ int, link *goquery.Selection) {
		if cat := strings.TrimSpace(link.Text()); cat != "" {
			page.Categories = append(page.Categories, cat)
		}
	})

	body, err := fetch.ExtractMainText(html, fetch.ArticleSelectors())
	if err != nil {
		return nil, err
	}
	page.BodyText = body

	return page, nil
}

// ContentBlob renders the parsed page as the bounded text handed to
// the LLM extraction prompts.
func (p *PageSummary) ContentBlob() string {
	var sb strings.Builder
	sb.WriteString("Title: " + p.Title + "\n\n")
	if p.Summary != "" {
		sb.WriteString(p.Summary + "\n\n")
	}
	for key, value := range p.Infobox {
		sb.WriteString(key + ": " + value + "\n")
	}
	if len(p.Categories) > 0 {
		sb.WriteString("\nCategories: " + strings.Join(p.Categories, "; ") + "\n")
	}
	sb.WriteString("\n" + p.BodyText)

	blob := sb.String()
	if len(blob) > maxContentChars {
		cut := maxContentChars
		for cut > 0 && !utf8.RuneStart(blob[cut]) {
			cut--
		}
		blob = blob[:cut]
	}
	return blob
}
