package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"payment-offers-api/internal/cache"
	"payment-offers-api/internal/events"
	"payment-offers-api/internal/extract"
	"payment-offers-api/internal/features"
	"payment-offers-api/internal/models"
	"payment-offers-api/internal/store"
	"payment-offers-api/internal/tracing"
	"payment-offers-api/internal/validation"
)

const defaultCacheTTL = 60 * time.Second

// Service provides the offer ingestion pipeline and the discount
// resolver.
type Service struct {
	store     store.OfferStore
	extractor extract.Extractor
	cache     cache.Cache
	cacheTTL  time.Duration
	events    *events.Manager
	features  *features.Manager
}

// Options holds the optional collaborators of a service.
type Options struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Events   *events.Manager
	Features *features.Manager
}

// NewService creates a service with no cache, events, or feature flags.
func NewService(st store.OfferStore, ex extract.Extractor) *Service {
	return NewServiceWithOptions(st, ex, Options{})
}

// NewServiceWithOptions creates a service with the given collaborators.
// The extractor is injected; its lifecycle is owned by the bootstrap.
func NewServiceWithOptions(st store.OfferStore, ex extract.Extractor, opts Options) *Service {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{
		store:     st,
		extractor: ex,
		cache:     opts.Cache,
		cacheTTL:  ttl,
		events:    opts.Events,
		features:  opts.Features,
	}
}

// IngestOffers consumes a batch of raw offer entries, deduplicates them
// against the store by adjustment_id, extracts discount terms for unseen
// entries, and inserts the normalized records. Re-ingesting the same
// batch is idempotent: every entry is identified again, none is created.
func (s *Service) IngestOffers(ctx context.Context, entries []models.RawOfferEntry) (models.IngestResult, error) {
	ctx, span := tracing.GetTracer().StartSpan(ctx, "service.IngestOffers")
	defer span.End()

	result := models.IngestResult{NoOfOffersIdentified: len(entries)}

	for i := range entries {
		entry := entries[i]
		validation.SanitizeRawEntry(&entry)

		// Entries without a dedup key cannot be stored.
		if entry.AdjustmentID == "" {
			log.Printf("ingest: skipping entry %d: missing adjustment_id", i)
			continue
		}

		_, err := s.store.FindByAdjustmentID(ctx, entry.AdjustmentID)
		if err == nil {
			continue // already known
		}
		if !errors.Is(err, store.ErrNotFound) {
			return result, fmt.Errorf("failed to look up offer %s: %w", entry.AdjustmentID, err)
		}

		offer := s.normalize(ctx, entry)

		if err := s.store.Insert(ctx, offer); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				// Lost a race with a concurrent ingestion; the offer
				// exists, which is all the pipeline needs.
				continue
			}
			log.Printf("ingest: failed to insert offer %s: %v", entry.AdjustmentID, err)
			continue
		}

		result.NoOfNewOffersCreated++
	}

	span.SetAttributes(
		attribute.Int("offers.identified", result.NoOfOffersIdentified),
		attribute.Int("offers.created", result.NoOfNewOffersCreated),
	)

	if result.NoOfNewOffersCreated > 0 && s.cacheEnabled() {
		if err := s.cache.Clear(ctx); err != nil {
			log.Printf("ingest: failed to flush discount cache: %v", err)
		}
	}

	if s.events != nil {
		s.events.PublishOffersIngested(ctx, result)
	}

	return result, nil
}

// normalize builds a NormalizedOffer from one raw entry, merging the raw
// eligibility metadata with the extracted discount terms. Extraction
// never fails; an all-zero term set is a valid degraded outcome.
func (s *Service) normalize(ctx context.Context, entry models.RawOfferEntry) models.Offer {
	terms := s.extractor.Extract(ctx, entry.Summary)

	return models.Offer{
		AdjustmentID:       entry.AdjustmentID,
		Summary:            entry.Summary,
		Banks:              upperSet(entry.Contributors.Banks),
		PaymentInstruments: upperSet(entry.Contributors.PaymentInstrument),
		Image:              entry.Image,
		Type:               entry.AdjustmentType,
		FlatDiscount:       terms.FlatDiscount,
		PercentDiscount:    terms.PercentDiscount,
		MaxCap:             terms.MaxCap,
		MinOrderValue:      terms.MinOrderValue,
		CreatedAt:          time.Now().UTC(),
	}
}

// HighestDiscount resolves the maximum discount claimable for the given
// purchase context. An empty match set resolves to 0, which is a valid
// answer, not an error.
func (s *Service) HighestDiscount(ctx context.Context, q models.DiscountQuery) (models.DiscountResult, error) {
	ctx, span := tracing.GetTracer().StartSpan(ctx, "service.HighestDiscount")
	defer span.End()

	if err := validation.ValidateDiscountQuery(q); err != nil {
		return models.DiscountResult{}, err
	}

	bank := strings.ToUpper(validation.SanitizeString(q.BankName))
	// An omitted instrument means no instrument constraint.
	instrument := strings.ToUpper(validation.SanitizeString(q.PaymentInstrument))

	key := cache.DiscountKey(bank, instrument, q.Amount)
	if s.cacheEnabled() {
		var cached models.DiscountResult
		if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
			return cached, nil
		}
	}

	offers, err := s.store.FindEligible(ctx, bank, instrument, q.Amount)
	if err != nil {
		return models.DiscountResult{}, fmt.Errorf("failed to query eligible offers: %w", err)
	}

	var highest float64
	for _, offer := range offers {
		if claimable := claimableAmount(offer, q.Amount); claimable > highest {
			highest = claimable
		}
	}

	result := models.DiscountResult{
		HighestDiscountAmount: int64(math.Round(highest)),
	}

	span.SetAttributes(
		attribute.Int("offers.matched", len(offers)),
		attribute.Int64("discount.amount", result.HighestDiscountAmount),
	)

	if s.cacheEnabled() {
		if err := cache.SetJSON(ctx, s.cache, key, result, s.cacheTTL); err != nil {
			log.Printf("resolve: failed to cache discount result: %v", err)
		}
	}

	if s.events != nil {
		s.events.PublishDiscountResolved(ctx, q, result)
	}

	return result, nil
}

// claimableAmount computes what a single offer is worth for the given
// amount. A flat discount takes precedence over a percent discount; a
// percent discount is clamped to its cap when one is set.
func claimableAmount(offer models.Offer, amount float64) float64 {
	if offer.FlatDiscount > 0 {
		return offer.FlatDiscount
	}

	if offer.PercentDiscount > 0 {
		discount := amount * offer.PercentDiscount / 100
		if offer.MaxCap > 0 && discount > offer.MaxCap {
			discount = offer.MaxCap
		}
		return discount
	}

	return 0
}

func (s *Service) cacheEnabled() bool {
	if s.cache == nil {
		return false
	}
	if s.features != nil && !s.features.IsEnabled(features.FeatureCacheEnabled) {
		return false
	}
	return true
}

// upperSet upper-cases and deduplicates a string set, dropping empties.
func upperSet(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}
