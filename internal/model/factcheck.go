package model

import "strings"

// FactCheckResult is one review found on a fact-checking index or site.
type FactCheckResult struct {
	Source        string `json:"source"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Rating        string `json:"rating,omitempty"`
	Date          string `json:"date,omitempty"`
	ClaimReviewed string `json:"claimReviewed,omitempty"`
}

// NormalizeResultURL produces the deduplication key for fact-check results:
// trailing slashes stripped, lower-cased. Two results differing only in
// trailing slash or case collapse to one entry.
func NormalizeResultURL(rawURL string) string {
	return strings.ToLower(strings.TrimRight(rawURL, "/"))
}
