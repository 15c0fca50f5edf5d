// Package llm wraps the language-model dependency behind a single capability
// interface so every consumer (extractor, verifier, aggregator, suggester)
// depends on Complete rather than on a concrete client.
package llm

import (
	"context"
	"errors"
	"strings"
)

// Client is the opaque model capability: given a prompt and an optional
// structured-output mode, return text or fail.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest describes one model call.
type CompletionRequest struct {
	System      string  // optional system message
	Prompt      string  // user message
	JSONMode    bool    // constrain the response to a JSON object
	Temperature float32 // meaningful only when HasTemp is set
	HasTemp     bool
	MaxTokens   int    // zero falls back to the configured cap
	Model       string // zero falls back to the configured model
}

// ErrRateLimited marks a call that failed because of rate or quota limits
// after the retry budget was exhausted.
var ErrRateLimited = errors.New("llm: rate limited")

// IsRateLimitError classifies provider errors that warrant a retry. Quota and
// rate-limit failures are transient; anything else aborts immediately.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "ratelimit") ||
		strings.Contains(msg, "quota")
}
