package extract

import (
	"context"
	"regexp"
	"strconv"

	"payment-offers-api/internal/models"
)

var percentPattern = regexp.MustCompile(`(\d+)%`)

// RegexExtractor is the deterministic extraction strategy. It recognizes
// a percentage token and a currency-amount token in the summary. It
// cannot distinguish a flat discount from a cap or a minimum order value,
// so when both tokens match it keeps only the larger raw candidate as a
// single flat-or-percent value; it never populates MaxCap or
// MinOrderValue.
type RegexExtractor struct {
	flatPattern *regexp.Regexp
}

// NewRegexExtractor builds a deterministic extractor for the given
// currency symbol (e.g. "₹").
func NewRegexExtractor(currencySymbol string) *RegexExtractor {
	return &RegexExtractor{
		flatPattern: regexp.MustCompile(regexp.QuoteMeta(currencySymbol) + `\s?(\d+)`),
	}
}

// Extract pattern-matches the summary. A summary with no recognizable
// token yields all-zero terms.
func (e *RegexExtractor) Extract(_ context.Context, summary string) models.DiscountTerms {
	var terms models.DiscountTerms

	var percent, flat float64
	if m := percentPattern.FindStringSubmatch(summary); m != nil {
		percent, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := e.flatPattern.FindStringSubmatch(summary); m != nil {
		flat, _ = strconv.ParseFloat(m[1], 64)
	}

	switch {
	case percent > 0 && flat > 0:
		// Ambiguous: keep the larger raw candidate only.
		if flat >= percent {
			terms.FlatDiscount = flat
		} else {
			terms.PercentDiscount = percent
		}
	case percent > 0:
		terms.PercentDiscount = percent
	case flat > 0:
		terms.FlatDiscount = flat
	}

	return terms
}
