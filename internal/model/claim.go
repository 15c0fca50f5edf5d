package model

// ExtractedClaim pairs a factual assertion with the URL the text cites for it.
// Claims without a syntactically valid http(s) source are discarded during
// extraction and never reach the pipeline.
type ExtractedClaim struct {
	Claim     string `json:"claim"`
	SourceURL string `json:"sourceUrl"`
}

// ScrapedContent is the outcome of fetching one cited source. Exactly one of
// Text or Error is meaningful: a successful fetch carries cleaned text and an
// empty Error, a failed one carries an empty Text and the failure reason.
type ScrapedContent struct {
	URL   string `json:"url"`
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
	Error string `json:"error,omitempty"`
}

// OK reports whether the fetch produced usable evidence.
func (c ScrapedContent) OK() bool {
	return c.Error == "" && c.Text != ""
}
