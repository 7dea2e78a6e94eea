package wiki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-enricher/internal/llm"
)

const articleHTML = `<html><body>
<h1 id="firstHeading">Ada Lovelace</h1>
<div id="mw-content-text">
	<p></p>
	<p>short.</p>
	<p>Augusta Ada King, Countess of Lovelace, was an English mathematician and writer.[1][2]</p>
	<table class="infobox">
		<tr><th>Born</th><td>10 December 1815[3]</td></tr>
		<tr><th>Fields</th><td>Mathematics, computing</td></tr>
	</table>
</div>
<div id="mw-normal-catlinks"><ul>
	<li><a>English mathematicians</a></li>
	<li><a>Women computer scientists</a></li>
</ul></div>
</body></html>`

type stubClient struct {
	prompts []string
}

func (s *stubClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return "generated text", nil
}

func (s *stubClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return s.GenerateContent(ctx, prompt, tier)
}

func (s *stubClient) Close() error { return nil }

func TestParsePage(t *testing.T) {
	page, err := ParsePage(articleHTML)
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", page.Title)
	assert.Equal(t, "Augusta Ada King, Countess of Lovelace, was an English mathematician and writer.", page.Summary)
	assert.Equal(t, "10 December 1815", page.Infobox["Born"])
	assert.Equal(t, "Mathematics, computing", page.Infobox["Fields"])
	assert.Equal(t, []string{"English mathematicians", "Women computer scientists"}, page.Categories)
	assert.Contains(t, page.BodyText, "English mathematician")
}

func TestContentBlob(t *testing.T) {
	page, err := ParsePage(articleHTML)
	require.NoError(t, err)

	blob := page.ContentBlob()
	assert.Contains(t, blob, "Title: Ada Lovelace")
	assert.Contains(t, blob, "Countess of Lovelace")
	assert.Contains(t, blob, "Categories: English mathematicians; Women computer scientists")
}

func TestContentBlob_Bounded(t *testing.T) {
	page := &PageSummary{Title: "Big", BodyText: strings.Repeat("x", maxContentChars*2)}
	assert.Len(t, page.ContentBlob(), maxContentChars)
}

func TestContentBlob_BoundedOnRuneBoundary(t *testing.T) {
	page := &PageSummary{Title: "Big", BodyText: strings.Repeat("語", maxContentChars)}

	blob := page.ContentBlob()
	assert.LessOrEqual(t, len(blob), maxContentChars)
	assert.True(t, utf8.ValidString(blob))
}

func TestExtract_RunsAllThreePasses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	client := &stubClient{}
	e := NewExtractor(client, nil)

	data, err := e.Extract(context.Background(), srv.URL, "Ada Lovelace")
	require.NoError(t, err)

	assert.Equal(t, "generated text", data.ExpertiseSummary)
	assert.Equal(t, "generated text", data.ExpertiseRaw)
	assert.Equal(t, "generated text", data.BiographicalRaw)
	assert.Equal(t, srv.URL, data.SourceURL)

	require.Len(t, client.prompts, 3)
	assert.Contains(t, client.prompts[0], "expertise")
	assert.Contains(t, client.prompts[0], "Ada Lovelace")
}

func TestExtract_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := NewExtractor(&stubClient{}, nil)
	_, err := e.Extract(context.Background(), srv.URL, "Ada Lovelace")
	require.Error(t, err)
}
