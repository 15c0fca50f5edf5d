package pipeline

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const filler = "This sentence pads the container past the readable-content floor so extraction accepts it as article text."

func TestExtractReadable_PrefersArticle(t *testing.T) {
	doc := `<html><head><title>Budget Vote</title></head><body>
		<nav>Home News Sport</nav>
		<div>Sidebar teaser text that should not win over the article body at all.</div>
		<article><p>The parliament approved the budget on Tuesday. ` + filler + `</p></article>
		<footer>Terms of use</footer>
	</body></html>`

	text, title := extractReadable(doc)
	if title != "Budget Vote" {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(text, "approved the budget") {
		t.Errorf("article text missing: %q", text)
	}
	if strings.Contains(text, "Sidebar teaser") {
		t.Errorf("non-article text leaked: %q", text)
	}
}

func TestExtractReadable_RoleMain(t *testing.T) {
	doc := `<html><body>
		<div role="main"><p>Researchers measured the effect in twelve trials. ` + filler + `</p></div>
		<footer>ignored</footer>
	</body></html>`

	text, _ := extractReadable(doc)
	if !strings.Contains(text, "twelve trials") {
		t.Errorf("role=main content missing: %q", text)
	}
}

func TestExtractReadable_SkipsScriptAndNav(t *testing.T) {
	doc := `<html><body>
		<script>var tracking = "SENTINEL_SCRIPT";</script>
		<style>.x { color: red } /* SENTINEL_STYLE */</style>
		<nav>SENTINEL_NAV</nav>
		<p>Visible paragraph content for the reader. ` + filler + `</p>
	</body></html>`

	text, _ := extractReadable(doc)
	for _, sentinel := range []string{"SENTINEL_SCRIPT", "SENTINEL_STYLE", "SENTINEL_NAV"} {
		if strings.Contains(text, sentinel) {
			t.Errorf("%s leaked into extracted text", sentinel)
		}
	}
	if !strings.Contains(text, "Visible paragraph content") {
		t.Errorf("visible text missing: %q", text)
	}
}

func TestExtractReadable_FallsBackToBodyWhenArticleThin(t *testing.T) {
	doc := `<html><body>
		<article>Tiny.</article>
		<p>The body carries the real report even though an article tag exists. ` + filler + `</p>
	</body></html>`

	text, _ := extractReadable(doc)
	if !strings.Contains(text, "real report") {
		t.Errorf("expected body fallback, got %q", text)
	}
}

func TestExtractReadable_CollapsesWhitespace(t *testing.T) {
	doc := "<html><body><article>Spaced \n\n   out \t words here. " + filler + "</article></body></html>"
	text, _ := extractReadable(doc)
	if strings.Contains(text, "  ") {
		t.Errorf("whitespace not collapsed: %q", text)
	}
}

func TestExtractReadable_Truncates(t *testing.T) {
	long := strings.Repeat("evidence ", 3000)
	text, _ := extractReadable("<html><body><article>" + long + "</article></body></html>")
	if len(text) != maxTextLen+3 {
		t.Errorf("len(text) = %d, want %d", len(text), maxTextLen+3)
	}
	if !strings.HasSuffix(text, "...") {
		t.Error("truncated text missing ellipsis")
	}
}

func TestExtractReadable_TruncationKeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("récit détaillé ", 800)
	text, _ := extractReadable("<html><body><article>" + long + "</article></body></html>")
	if len(text) > maxTextLen+3 {
		t.Errorf("len(text) = %d", len(text))
	}
	if !utf8.ValidString(text) {
		t.Error("truncated text is not valid UTF-8")
	}
}

func TestDocumentTitle_H1Fallback(t *testing.T) {
	doc := `<html><body><h1>  Headline   Here </h1><p>` + filler + `</p></body></html>`
	_, title := extractReadable(doc)
	if title != "Headline Here" {
		t.Errorf("title = %q", title)
	}
}
