package usecase

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var lineBreakReplacer = strings.NewReplacer(
	"<br>", " ",
	"</br>", " ",
	"<br />", " ",
	"<br/>", " ",
)

// ContentExtractor turns a mention's HTML body into the plain question text.
//
// Two renderings of the leading mention are supported without configuration:
// an h-card <span> wrapping the mention link (Mastodon), or a bare <a>
// (Misskey, Pleroma). Either way the question is the text of the node that
// follows the mention.
type ContentExtractor struct{}

// NewContentExtractor creates a new content extractor
func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// Extract returns the question text, or "" when the body has no mention or
// nothing follows it
func (e *ContentExtractor) Extract(rawBody string) string {
	doc, err := parseBody(rawBody)
	if err != nil {
		return ""
	}

	mention := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && (n.DataAtom == atom.Span || n.DataAtom == atom.A)
	})
	if mention == nil || mention.NextSibling == nil {
		return ""
	}

	return strings.TrimSpace(nodeText(mention.NextSibling))
}

// CountLinks returns the number of <a> elements in an HTML body
func CountLinks(rawBody string) int {
	doc, err := parseBody(rawBody)
	if err != nil {
		return 0
	}

	count := 0
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			count++
		}
		return false
	})
	return count
}

func parseBody(rawBody string) (*html.Node, error) {
	return html.Parse(strings.NewReader(lineBreakReplacer.Replace(rawBody)))
}

// walk visits nodes in document order until visit returns true
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if visit(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walk(c, visit) {
			return true
		}
	}
	return false
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if match(n) {
			found = n
			return true
		}
		return false
	})
	return found
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return false
	})
	return sb.String()
}
