// Package suggest proposes authoritative alternative sources for claims that
// need strengthening or correction.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/citecheck/citecheck/internal/llm"
	"github.com/citecheck/citecheck/internal/model"
)

const suggestSystemPrompt = `You are a research assistant that helps users find authoritative sources for fact-checking.
Your task is to suggest specific, authoritative sources where users can find reliable information to either:
- Strengthen a claim (if verified but needs more evidence)
- Correct or clarify a claim (if not verified or partially verified)

Suggest 3-5 high-quality sources. Focus on:
- Government agencies and official databases
- Academic institutions and peer-reviewed journals
- Reputable international organizations
- Industry-standard references

Return your response as a JSON object with a "sources" array of objects with this structure:
{
  "sources": [
    {
      "name": "Source name (e.g., 'NASA Climate Data Portal')",
      "url": "Direct URL if applicable (optional)",
      "description": "Brief explanation of why this source is relevant",
      "searchQuery": "Specific search query to use (optional)"
    }
  ]
}

Be specific and actionable. If you provide a URL, make sure it's a real, authoritative source.`

// Suggester generates source suggestions with the model capability.
type Suggester struct {
	client llm.Client
}

// NewSuggester creates a suggester on the given capability client.
func NewSuggester(client llm.Client) *Suggester {
	return &Suggester{client: client}
}

// Suggest returns alternative sources for a claim given its verdict.
// Best-effort: any model or parse failure yields an empty slice.
func (s *Suggester) Suggest(ctx context.Context, claim string, status model.VerificationStatus, confidence int) []model.SourceSuggestion {
	response, err := s.client.Complete(ctx, llm.CompletionRequest{
		System:      suggestSystemPrompt,
		Prompt:      buildPrompt(claim, status, confidence),
		JSONMode:    true,
		Temperature: 0.7,
		HasTemp:     true,
	})
	if err != nil {
		return nil
	}

	var parsed struct {
		Sources     []model.SourceSuggestion `json:"sources"`
		Suggestions []model.SourceSuggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil
	}

	raw := parsed.Sources
	if len(raw) == 0 {
		raw = parsed.Suggestions
	}

	var suggestions []model.SourceSuggestion
	for _, sg := range raw {
		if sg.Name == "" {
			sg.Name = "Unknown Source"
		}
		suggestions = append(suggestions, sg)
	}
	return suggestions
}

func buildPrompt(claim string, status model.VerificationStatus, confidence int) string {
	var statusContext string
	switch status {
	case model.StatusVerified:
		statusContext = fmt.Sprintf("This claim was VERIFIED with %d%% confidence. Suggest authoritative sources where users can find additional supporting evidence to strengthen this claim.", confidence)
	case model.StatusPartial:
		statusContext = fmt.Sprintf("This claim was PARTIALLY VERIFIED with %d%% confidence. Suggest authoritative sources where users can find more complete or clarifying information.", confidence)
	default:
		statusContext = fmt.Sprintf("This claim FAILED VERIFICATION with only %d%% confidence. Suggest authoritative sources where users can find accurate information to correct or clarify this claim.", confidence)
	}

	return fmt.Sprintf("Claim: %q\n\nStatus: %s\n\nPlease suggest 3-5 specific, authoritative sources where this information can be verified or corrected.", claim, statusContext)
}
