package factcheck

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/citecheck/citecheck/internal/model"
)

// claimsSearchURL is the Google Fact Check Tools claims-search endpoint.
// Overridden in tests.
var claimsSearchURL = "https://factchecktools.googleapis.com/v1alpha1/claims:search"

type claimsSearchResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			ReviewDate    string `json:"reviewDate"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// searchClaimsAPI queries the claims-search index for reviews of the query.
// Best-effort: any failure returns an empty slice.
func (a *Aggregator) searchClaimsAPI(ctx context.Context, query string) []model.FactCheckResult {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", a.apiKey)
	params.Set("languageCode", "en")
	params.Set("pageSize", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, claimsSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logf("claims-search API: %v", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		a.logf("claims-search API: status %d", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}

	var parsed claimsSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}

	var results []model.FactCheckResult
	for _, claim := range parsed.Claims {
		for _, review := range claim.ClaimReview {
			if review.URL == "" {
				continue
			}
			source := review.Publisher.Name
			if source == "" {
				source = "Unknown"
			}
			title := review.Title
			if title == "" {
				title = claim.Text
			}
			if title == "" {
				title = "Fact Check"
			}
			results = append(results, model.FactCheckResult{
				Source:        source,
				Title:         title,
				URL:           review.URL,
				Rating:        review.TextualRating,
				Date:          formatReviewDate(review.ReviewDate),
				ClaimReviewed: claim.Text,
			})
			if len(results) >= 8 {
				return results
			}
		}
	}
	return results
}

func formatReviewDate(raw string) string {
	if raw == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format("2006-01-02")
	}
	return raw
}

func (a *Aggregator) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Sugar().Debugf(format, args...)
	}
}
