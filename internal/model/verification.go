package model

// VerificationStatus is the tri-state judgment of a claim against its source.
type VerificationStatus string

const (
	StatusVerified VerificationStatus = "verified" // source directly supports the claim
	StatusPartial  VerificationStatus = "partial"  // related information with differences
	StatusFailed   VerificationStatus = "failed"   // contradicted, absent, or unfetchable
)

// Valid reports whether s is one of the three known statuses.
func (s VerificationStatus) Valid() bool {
	switch s {
	case StatusVerified, StatusPartial, StatusFailed:
		return true
	}
	return false
}

// SourceSuggestion points the user at an authoritative place to strengthen or
// correct a claim.
type SourceSuggestion struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
	SearchQuery string `json:"searchQuery,omitempty"`
}

// SearchLink is a prebuilt "search this claim on site X" deep link, used as a
// fallback when live fact-check lookup yields nothing.
type SearchLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ClaimVerification is the per-claim verdict. It is created once by the
// verifier and enriched exactly once by the orchestrator; no other writer
// exists.
type ClaimVerification struct {
	Claim            string             `json:"claim"`
	SourceURL        string             `json:"sourceUrl"`
	Status           VerificationStatus `json:"status"`
	Confidence       int                `json:"confidence"`
	Explanation      string             `json:"explanation"`
	SourceExcerpt    string             `json:"sourceExcerpt,omitempty"`
	SuggestedSources []SourceSuggestion `json:"suggestedSources,omitempty"`
	FactChecks       []FactCheckResult  `json:"factChecks,omitempty"`
	SearchLinks      []SearchLink       `json:"searchLinks,omitempty"`
}

// VerificationSummary partitions the verdicts by status.
type VerificationSummary struct {
	TotalClaims int `json:"totalClaims"`
	Verified    int `json:"verified"`
	Partial     int `json:"partial"`
	Failed      int `json:"failed"`
}

// VerificationResponse is the full result of one verification request.
type VerificationResponse struct {
	Verifications []ClaimVerification `json:"verifications"`
	Summary       VerificationSummary `json:"summary"`
}

// Summarize builds a response whose summary counts are derived from the
// verdicts themselves, so TotalClaims always equals len(verifications) and
// the three counts partition it.
func Summarize(verifications []ClaimVerification) *VerificationResponse {
	if verifications == nil {
		verifications = []ClaimVerification{}
	}
	summary := VerificationSummary{TotalClaims: len(verifications)}
	for _, v := range verifications {
		switch v.Status {
		case StatusVerified:
			summary.Verified++
		case StatusPartial:
			summary.Partial++
		default:
			summary.Failed++
		}
	}
	return &VerificationResponse{
		Verifications: verifications,
		Summary:       summary,
	}
}

// ClampConfidence forces a raw model-supplied confidence into [0, 100].
func ClampConfidence(raw int) int {
	if raw < 0 {
		return 0
	}
	if raw > 100 {
		return 100
	}
	return raw
}
