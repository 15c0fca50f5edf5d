// Package pipeline coordinates the verification stages: extract claims,
// fetch cited sources, judge each claim, enrich verdicts with independent
// evidence, and assemble the response. Stages run strictly in order; within a
// stage, work fans out under that stage's concurrency cap.
package pipeline

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/citecheck/citecheck/internal/factcheck"
	"github.com/citecheck/citecheck/internal/model"
	"github.com/citecheck/citecheck/internal/worker"
)

// ClaimExtractor yields claim/source pairs for the input text.
type ClaimExtractor interface {
	Extract(ctx context.Context, text string) []model.ExtractedClaim
}

// SourceFetcher retrieves cited sources under a concurrency cap.
type SourceFetcher interface {
	FetchMany(ctx context.Context, urls []string) []model.ScrapedContent
}

// ClaimVerifier judges one claim against one fetched source.
type ClaimVerifier interface {
	Verify(ctx context.Context, claim string, source model.ScrapedContent) model.ClaimVerification
}

// FactCheckLookup finds independent fact-check coverage for a claim.
type FactCheckLookup interface {
	Lookup(ctx context.Context, claim string) []model.FactCheckResult
}

// SourceSuggester proposes alternative sources for a verdict.
type SourceSuggester interface {
	Suggest(ctx context.Context, claim string, status model.VerificationStatus, confidence int) []model.SourceSuggestion
}

// suggestionConfidenceFloor: verified claims below this confidence still get
// alternative-source suggestions.
const suggestionConfidenceFloor = 90

// Pipeline is the per-request orchestrator. It holds no state across
// requests; a single instance is safe for concurrent use because each Run
// owns its data.
type Pipeline struct {
	extractor ClaimExtractor
	fetcher   SourceFetcher
	verifier  ClaimVerifier
	factcheck FactCheckLookup
	suggester SourceSuggester
	cfg       model.ConcurrencyConfig
	logger    *zap.Logger
}

// NewPipeline wires the orchestrator from its stage implementations.
func NewPipeline(
	extractor ClaimExtractor,
	fetcher SourceFetcher,
	verifier ClaimVerifier,
	lookup FactCheckLookup,
	suggester SourceSuggester,
	cfg model.ConcurrencyConfig,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		extractor: extractor,
		fetcher:   fetcher,
		verifier:  verifier,
		factcheck: lookup,
		suggester: suggester,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run verifies every sourced claim in text and returns the assembled
// response. Per-claim and per-source failures are contained as failed
// verifications; Run itself fails only on context cancellation between
// stages.
func (p *Pipeline) Run(ctx context.Context, text string) (*model.VerificationResponse, error) {
	// Stage 1: extract.
	claims := p.extractor.Extract(ctx, text)
	if len(claims) == 0 {
		p.logger.Info("no citable claims found")
		return model.Summarize(nil), nil
	}
	p.logger.Info("extracted claims", zap.Int("count", len(claims)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: deduplicate cited URLs, preserving first-occurrence order.
	uniqueURLs := dedupeURLs(claims)

	// Stage 3: fetch all distinct sources.
	sources := p.fetcher.FetchMany(ctx, uniqueURLs)
	sourceByURL := make(map[string]model.ScrapedContent, len(sources))
	for _, s := range sources {
		sourceByURL[s.URL] = s
	}
	p.logger.Info("fetched sources", zap.Int("count", len(sources)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: verify each claim against its source.
	verifications := p.verifyAll(ctx, claims, sourceByURL)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 5: enrich with fact-checks and source suggestions.
	p.enrichAll(ctx, verifications)

	// Stage 6: summarize.
	response := model.Summarize(verifications)
	p.logger.Info("verification complete",
		zap.Int("verified", response.Summary.Verified),
		zap.Int("partial", response.Summary.Partial),
		zap.Int("failed", response.Summary.Failed),
	)
	return response, nil
}

// verifyAll runs the verifier under its own cap, tighter than the fetch cap
// because model calls are the costlier resource. Results are index-aligned
// with claims.
func (p *Pipeline) verifyAll(ctx context.Context, claims []model.ExtractedClaim, sourceByURL map[string]model.ScrapedContent) []model.ClaimVerification {
	verifications := make([]model.ClaimVerification, len(claims))
	sem := worker.NewSemaphore(p.cfg.VerifyWorkers)
	var wg sync.WaitGroup

	for i, claim := range claims {
		wg.Add(1)
		go func(idx int, c model.ExtractedClaim) {
			defer wg.Done()
			if err := sem.Acquire(ctx); err != nil {
				verifications[idx] = missingSourceVerification(c)
				return
			}
			defer sem.Release()

			source, ok := sourceByURL[c.SourceURL]
			if !ok {
				// No fetch entry at all; fail without a model call.
				verifications[idx] = missingSourceVerification(c)
				return
			}
			verifications[idx] = p.verifier.Verify(ctx, c.Claim, source)
		}(i, claim)
	}

	wg.Wait()
	return verifications
}

// enrichAll attaches fact-check results (always) and alternative-source
// suggestions (when the claim needs strengthening or correction) to each
// verdict. The two concerns run as independent bounded pools.
func (p *Pipeline) enrichAll(ctx context.Context, verifications []model.ClaimVerification) {
	factSem := worker.NewSemaphore(p.cfg.EnrichWorkers)
	suggestSem := worker.NewSemaphore(p.cfg.EnrichWorkers)
	var wg sync.WaitGroup

	for i := range verifications {
		wg.Add(1)
		go func(v *model.ClaimVerification) {
			defer wg.Done()
			if err := factSem.Acquire(ctx); err != nil {
				return
			}
			defer factSem.Release()

			if results := p.factcheck.Lookup(ctx, v.Claim); len(results) > 0 {
				v.FactChecks = results
			} else {
				// Live lookup found nothing; hand the user direct search
				// links instead.
				v.SearchLinks = factcheck.SearchLinks(compactQuery(v.Claim))
			}
		}(&verifications[i])

		if !needsSuggestions(verifications[i]) {
			continue
		}
		wg.Add(1)
		go func(v *model.ClaimVerification) {
			defer wg.Done()
			if err := suggestSem.Acquire(ctx); err != nil {
				return
			}
			defer suggestSem.Release()

			if suggestions := p.suggester.Suggest(ctx, v.Claim, v.Status, v.Confidence); len(suggestions) > 0 {
				v.SuggestedSources = suggestions
			}
		}(&verifications[i])
	}

	wg.Wait()
}

// needsSuggestions reports whether a verdict warrants alternative sources.
func needsSuggestions(v model.ClaimVerification) bool {
	if v.Status == model.StatusVerified {
		return v.Confidence < suggestionConfidenceFloor
	}
	return true
}

func missingSourceVerification(c model.ExtractedClaim) model.ClaimVerification {
	return model.ClaimVerification{
		Claim:       c.Claim,
		SourceURL:   c.SourceURL,
		Status:      model.StatusFailed,
		Confidence:  0,
		Explanation: "Source content not found",
	}
}

// dedupeURLs builds the distinct set of cited URLs in first-occurrence order.
func dedupeURLs(claims []model.ExtractedClaim) []string {
	seen := make(map[string]bool, len(claims))
	var urls []string
	for _, c := range claims {
		if !seen[c.SourceURL] {
			seen[c.SourceURL] = true
			urls = append(urls, c.SourceURL)
		}
	}
	return urls
}

// compactQuery trims a claim to a short search string for deep links.
func compactQuery(claim string) string {
	words := strings.Fields(claim)
	if len(words) > 8 {
		words = words[:8]
	}
	return strings.Join(words, " ")
}
