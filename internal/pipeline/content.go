package pipeline

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/citecheck/citecheck/internal/util"
)

const (
	// maxTextLen bounds cleaned source text so downstream model input stays
	// within budget.
	maxTextLen = 10000
	// minTextLen is the floor below which a page is reported as thin rather
	// than treated as evidence.
	minTextLen = 50
)

// skipElements are markup containers that never hold article content.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"svg":      true,
	"form":     true,
}

// extractReadable pulls the readable text and title out of an HTML document.
// Content inside article/main/role="main" is preferred over the whole body;
// whitespace is collapsed and the result truncated to maxTextLen.
func extractReadable(htmlContent string) (text, title string) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", ""
	}

	title = documentTitle(doc)

	if main := findMainNode(doc); main != nil {
		text = collapseWhitespace(visibleText(main))
	}
	if len(text) < minTextLen {
		if body := findElement(doc, "body"); body != nil {
			text = collapseWhitespace(visibleText(body))
		} else {
			text = collapseWhitespace(visibleText(doc))
		}
	}

	if len(text) > maxTextLen {
		text = util.Truncate(text, maxTextLen) + "..."
	}
	return text, title
}

// findMainNode locates the primary content container: <article>, <main>, or
// any element with role="main".
func findMainNode(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		if n.Data == "article" || n.Data == "main" {
			return n
		}
		for _, attr := range n.Attr {
			if attr.Key == "role" && attr.Val == "main" {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findMainNode(c); found != nil {
			return found
		}
	}
	return nil
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

// visibleText concatenates text nodes, skipping non-content containers.
func visibleText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	if n.Type == html.ElementNode && skipElements[n.Data] {
		return ""
	}

	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(visibleText(c))
		sb.WriteString(" ")
	}
	return sb.String()
}

func documentTitle(doc *html.Node) string {
	if node := findElement(doc, "title"); node != nil && node.FirstChild != nil {
		if t := strings.TrimSpace(node.FirstChild.Data); t != "" {
			return t
		}
	}
	if h1 := findElement(doc, "h1"); h1 != nil {
		return collapseWhitespace(visibleText(h1))
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
