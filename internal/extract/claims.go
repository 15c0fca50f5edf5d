// Package extract turns free-form text into claim/source pairs via the model
// capability. Claims without a valid http(s) citation are discarded here so
// the pipeline only ever sees verifiable input.
package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/citecheck/citecheck/internal/llm"
	"github.com/citecheck/citecheck/internal/model"
)

const extractPrompt = `You are a claim extraction assistant. Analyze the following text and extract all factual claims along with their cited sources.

For each claim:
1. Identify factual statements (not opinions or questions)
2. Find the associated source URL citation (if any)
3. Extract the claim text clearly

Return your response as a JSON object with this structure:
{
  "claims": [
    {
      "claim": "The exact factual claim text",
      "sourceUrl": "The cited URL or empty string if no source"
    }
  ]
}

Only include claims that have source URLs. Ignore claims without sources.

Text to analyze:
`

// Extractor extracts claim/source pairs from text.
type Extractor struct {
	client llm.Client
}

// NewExtractor creates a claim extractor on the given capability client.
func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{client: client}
}

// Extract returns the ordered claims found in text. Model or parse failures
// are contained: the result is simply empty.
func (e *Extractor) Extract(ctx context.Context, text string) []model.ExtractedClaim {
	response, err := e.client.Complete(ctx, llm.CompletionRequest{
		Prompt:   extractPrompt + text,
		JSONMode: true,
	})
	if err != nil {
		return nil
	}

	var parsed struct {
		Claims []model.ExtractedClaim `json:"claims"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil
	}

	var claims []model.ExtractedClaim
	for _, c := range parsed.Claims {
		c.SourceURL = strings.TrimSpace(c.SourceURL)
		if c.Claim == "" || !hasHTTPScheme(c.SourceURL) {
			continue
		}
		claims = append(claims, c)
	}
	return claims
}

func hasHTTPScheme(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
