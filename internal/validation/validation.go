package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"payment-offers-api/internal/models"
)

// maxAmount bounds the purchase amount to keep resolution arithmetic sane.
const maxAmount = 100_000_000

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ValidateDiscountQuery checks the purchase context for a discount
// resolution. A missing instrument is valid (wildcard); a missing amount
// or bank name is an input error, distinct from "no offers found".
func ValidateDiscountQuery(q models.DiscountQuery) error {
	// Inverted comparison so NaN fails the check too.
	if !(q.Amount > 0) {
		return &ValidationError{
			Field:   "amountToPay",
			Message: "must be a positive number",
		}
	}

	if q.Amount > maxAmount {
		return &ValidationError{
			Field:   "amountToPay",
			Message: "exceeds maximum allowed amount",
		}
	}

	if strings.TrimSpace(q.BankName) == "" {
		return &ValidationError{
			Field:   "bankName",
			Message: "is required",
		}
	}

	return nil
}

// ParseAmount parses a query-string amount. An empty or non-numeric value
// is an input error.
func ParseAmount(raw string) (float64, error) {
	if raw == "" {
		return 0, &ValidationError{
			Field:   "amountToPay",
			Message: "is required",
		}
	}

	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, &ValidationError{
			Field:   "amountToPay",
			Message: "must be a number",
		}
	}

	return amount, nil
}

// SanitizeRawEntry trims and de-controls the string fields of one raw
// offer entry before it enters the pipeline.
func SanitizeRawEntry(entry *models.RawOfferEntry) {
	entry.AdjustmentID = SanitizeString(entry.AdjustmentID)
	entry.Summary = SanitizeString(entry.Summary)
	entry.Image = SanitizeString(entry.Image)
	entry.AdjustmentType = SanitizeString(entry.AdjustmentType)
	for i := range entry.Contributors.Banks {
		entry.Contributors.Banks[i] = SanitizeString(entry.Contributors.Banks[i])
	}
	for i := range entry.Contributors.PaymentInstrument {
		entry.Contributors.PaymentInstrument[i] = SanitizeString(entry.Contributors.PaymentInstrument[i])
	}
}

func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}
