package browser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Example Domain</title>
  <style>body { color: red; }</style>
  <script>console.log("ignored");</script>
</head>
<body>
  <h1>Example Domain</h1>
  <h2>Subsection</h2>
  <p>This domain is for use in illustrative examples.</p>
  <a href="/about">About us</a>
  <a href="https://other.example.org/page">External</a>
  <a href="#fragment">Skip me</a>
  <a href="javascript:void(0)">Skip me too</a>
  <noscript>JS disabled</noscript>
</body>
</html>`

func TestParsePageSummary(t *testing.T) {
	t.Parallel()

	summary, err := ParsePageSummary(samplePage, "https://example.com/start")
	require.NoError(t, err)

	assert.Equal(t, "Example Domain", summary.Title)
	assert.Equal(t, []string{"Example Domain", "Subsection"}, summary.Headings)

	wantLinks := []Link{
		{Text: "About us", URL: "https://example.com/about"},
		{Text: "External", URL: "https://other.example.org/page"},
	}
	if diff := cmp.Diff(wantLinks, summary.Links); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}

	assert.Contains(t, summary.Text, "illustrative examples")
	assert.NotContains(t, summary.Text, "console.log", "script content is excluded")
	assert.NotContains(t, summary.Text, "color: red", "style content is excluded")
	assert.NotContains(t, summary.Text, "JS disabled", "noscript content is excluded")
}

func TestParsePageSummaryTruncatesText(t *testing.T) {
	t.Parallel()

	page := "<html><body><p>" + strings.Repeat("word ", 4000) + "</p></body></html>"
	summary, err := ParsePageSummary(page, "https://example.com")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(summary.Text), maxSummaryText)
}

func TestParsePageSummaryTolerantOfBrokenHTML(t *testing.T) {
	t.Parallel()

	// html.Parse repairs rather than rejects malformed markup.
	summary, err := ParsePageSummary("<h1>Unclosed<h2>Also unclosed", "https://example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, summary.Headings)
}
