package browser

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// PageSummary is a compact, text-oriented view of a rendered page.
type PageSummary struct {
	Title    string   `json:"title,omitempty"`
	Headings []string `json:"headings,omitempty"`
	Links    []Link   `json:"links,omitempty"`
	Text     string   `json:"text,omitempty"`
}

// Link is one anchor extracted from a page, href resolved against the
// page URL.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// maxSummaryText caps the visible-text extraction.
const maxSummaryText = 4096

// ParsePageSummary reduces raw page HTML into a PageSummary.
func ParsePageSummary(rawHTML, pageURL string) (*PageSummary, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, _ := url.Parse(pageURL)
	summary := &PageSummary{}
	var text strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			case "title":
				if summary.Title == "" {
					summary.Title = strings.TrimSpace(nodeText(n))
				}
				return
			case "h1", "h2", "h3":
				if h := strings.TrimSpace(nodeText(n)); h != "" {
					summary.Headings = append(summary.Headings, h)
				}
			case "a":
				if link, ok := anchorLink(n, base); ok {
					summary.Links = append(summary.Links, link)
				}
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" && text.Len() < maxSummaryText {
				if text.Len() > 0 {
					text.WriteByte(' ')
				}
				text.WriteString(t)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	summary.Text = text.String()
	if len(summary.Text) > maxSummaryText {
		summary.Text = summary.Text[:maxSummaryText]
	}
	return summary, nil
}

// nodeText concatenates all text below a node.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// anchorLink extracts a resolved link from an <a> element.
func anchorLink(n *html.Node, base *url.URL) (Link, bool) {
	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
			break
		}
	}
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return Link{}, false
	}

	resolved := href
	if base != nil {
		if u, err := url.Parse(href); err == nil {
			resolved = base.ResolveReference(u).String()
		}
	}
	return Link{
		Text: strings.TrimSpace(nodeText(n)),
		URL:  resolved,
	}, true
}
