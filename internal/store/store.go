package store

import (
	"context"
	"errors"

	"payment-offers-api/internal/models"
)

var (
	// ErrNotFound is returned when no offer exists for a lookup key.
	ErrNotFound = errors.New("store: offer not found")
	// ErrDuplicate is returned when an insert violates the adjustment_id
	// uniqueness constraint. Callers treat it as "already exists".
	ErrDuplicate = errors.New("store: duplicate adjustment_id")
)

// OfferStore is the persistence contract for normalized offers. Offers
// are insert-only; there is no update or delete path.
type OfferStore interface {
	// FindByAdjustmentID returns the offer with the given external
	// identifier, or ErrNotFound.
	FindByAdjustmentID(ctx context.Context, adjustmentID string) (*models.Offer, error)

	// FindEligible returns all offers whose bank set contains bank, whose
	// instrument set contains instrument (skipped when instrument is
	// empty), and whose minimum order value does not exceed amount. Bank
	// and instrument are expected upper-cased by the caller.
	FindEligible(ctx context.Context, bank, instrument string, amount float64) ([]models.Offer, error)

	// Insert stores a new offer. Returns ErrDuplicate when an offer with
	// the same adjustment_id already exists.
	Insert(ctx context.Context, offer models.Offer) error

	// Count returns the total number of stored offers.
	Count(ctx context.Context) (int64, error)

	Close() error
}
