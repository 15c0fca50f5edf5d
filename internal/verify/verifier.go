// Package verify judges a single claim against its fetched source.
package verify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/citecheck/citecheck/internal/llm"
	"github.com/citecheck/citecheck/internal/model"
)

const verifyPromptFormat = `You are a fact-checking assistant. Verify whether the following claim is supported by the source content.

CLAIM:
%q

SOURCE CONTENT:
%s

Analyze whether the claim is:
1. VERIFIED: The source directly supports the claim with matching information
2. PARTIAL: The source has related information but with differences (different numbers, qualifications, or partial support)
3. FAILED: The claim is contradicted or not found in the source

Provide:
- status: one of "verified", "partial", or "failed"
- confidence: a number from 0-100 indicating how confident you are in this assessment
- explanation: a clear explanation of your reasoning (2-3 sentences)
- sourceExcerpt: the relevant excerpt from the source (if found, otherwise empty string)

Return your response as a JSON object:
{
  "status": "verified|partial|failed",
  "confidence": 85,
  "explanation": "Your explanation here",
  "sourceExcerpt": "Relevant text from source"
}`

// defaultConfidence is used when the model omits the confidence field.
const defaultConfidence = 50

// Verifier judges claims with the model capability.
type Verifier struct {
	client llm.Client
}

// NewVerifier creates a verifier on the given capability client.
func NewVerifier(client llm.Client) *Verifier {
	return &Verifier{client: client}
}

// Verify returns the verdict for one claim against one fetched source.
// Failures are local: an unfetchable source or a failed model call yields a
// failed verification, never an error.
func (v *Verifier) Verify(ctx context.Context, claim string, source model.ScrapedContent) model.ClaimVerification {
	// Nothing to judge against; skip the model call entirely.
	if !source.OK() {
		reason := source.Error
		if reason == "" {
			reason = "no content available"
		}
		return model.ClaimVerification{
			Claim:       claim,
			SourceURL:   source.URL,
			Status:      model.StatusFailed,
			Confidence:  10,
			Explanation: fmt.Sprintf("Unable to fetch source content: %s", reason),
		}
	}

	response, err := v.client.Complete(ctx, llm.CompletionRequest{
		Prompt:   fmt.Sprintf(verifyPromptFormat, claim, source.Text),
		JSONMode: true,
	})
	if err != nil {
		return failedVerification(claim, source.URL)
	}

	var parsed struct {
		Status        string `json:"status"`
		Confidence    *int   `json:"confidence"`
		Explanation   string `json:"explanation"`
		SourceExcerpt string `json:"sourceExcerpt"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return failedVerification(claim, source.URL)
	}

	status := model.VerificationStatus(parsed.Status)
	if !status.Valid() {
		return failedVerification(claim, source.URL)
	}

	explanation := parsed.Explanation
	if explanation == "" {
		explanation = "No explanation provided"
	}

	// A verdict without a confidence gets a neutral midpoint rather than
	// a spuriously certain zero.
	confidence := defaultConfidence
	if parsed.Confidence != nil {
		confidence = model.ClampConfidence(*parsed.Confidence)
	}

	return model.ClaimVerification{
		Claim:         claim,
		SourceURL:     source.URL,
		Status:        status,
		Confidence:    confidence,
		Explanation:   explanation,
		SourceExcerpt: parsed.SourceExcerpt,
	}
}

func failedVerification(claim, sourceURL string) model.ClaimVerification {
	return model.ClaimVerification{
		Claim:       claim,
		SourceURL:   sourceURL,
		Status:      model.StatusFailed,
		Confidence:  0,
		Explanation: "Error occurred during verification process",
	}
}
