// Package extract turns free-text offer summaries into structured
// discount terms.
//
// Two strategies are supported, selected by configuration: a
// deterministic regex pass with no external dependency, and a
// text-understanding pass backed by an LLM. Both satisfy the same
// contract: extraction never fails — any internal error resolves to the
// zero-valued term set, which callers treat as a valid degraded result.
package extract

import (
	"context"

	"payment-offers-api/internal/models"
)

// Extractor converts one offer summary into structured discount terms.
type Extractor interface {
	Extract(ctx context.Context, summary string) models.DiscountTerms
}

// Strategy names accepted by configuration.
const (
	StrategyRegex = "regex"
	StrategyLLM   = "llm"
)
