package models

import "time"

// RawOfferEntry is one offer as it arrives in the partner feed. It is
// consumed once during ingestion and never persisted as-is.
type RawOfferEntry struct {
	AdjustmentID   string       `json:"adjustment_id"`
	Summary        string       `json:"summary"`
	Contributors   Contributors `json:"contributors"`
	Image          string       `json:"image,omitempty"`
	AdjustmentType string       `json:"adjustment_type,omitempty"`
}

// Contributors holds the eligibility metadata attached to a raw offer.
type Contributors struct {
	Banks             []string `json:"banks"`
	PaymentInstrument []string `json:"payment_instrument"`
}

// Offer is a normalized promotional offer. Created once by ingestion,
// read many times by discount resolution, never mutated.
type Offer struct {
	AdjustmentID       string    `json:"adjustment_id" bson:"adjustmentId"`
	Summary            string    `json:"summary" bson:"summary"`
	Banks              []string  `json:"banks" bson:"banks"`                            // upper-cased
	PaymentInstruments []string  `json:"payment_instruments" bson:"paymentInstruments"` // upper-cased
	Image              string    `json:"image" bson:"image"`
	Type               string    `json:"type" bson:"type"`
	FlatDiscount       float64   `json:"flat_discount" bson:"flatDiscount"`
	PercentDiscount    float64   `json:"percent_discount" bson:"percentDiscount"`
	MaxCap             float64   `json:"max_cap" bson:"maxCap"`
	MinOrderValue      float64   `json:"min_order_value" bson:"minOrderValue"`
	CreatedAt          time.Time `json:"created_at" bson:"createdAt"`
}

// DiscountTerms are the structured numeric terms extracted from an offer
// summary. A zero value means "not applicable" (for MaxCap: uncapped, for
// MinOrderValue: no minimum).
type DiscountTerms struct {
	FlatDiscount    float64 `json:"flat_discount"`
	PercentDiscount float64 `json:"percent_discount"`
	MaxCap          float64 `json:"max_cap"`
	MinOrderValue   float64 `json:"min_order_value"`
}

// IsZero reports whether no term was extracted at all. This is a defined
// degraded outcome, not a failure.
func (t DiscountTerms) IsZero() bool {
	return t.FlatDiscount == 0 && t.PercentDiscount == 0 && t.MaxCap == 0 && t.MinOrderValue == 0
}

// IngestRequest mirrors the partner API response envelope. A missing
// nested path is treated as an empty batch.
type IngestRequest struct {
	FlipkartOfferAPIResponse struct {
		OfferSections struct {
			PBO struct {
				Offers []RawOfferEntry `json:"offers"`
			} `json:"PBO"`
		} `json:"offer_sections"`
	} `json:"flipkartOfferApiResponse"`
}

// Entries returns the raw offer batch, or nil when the envelope path is
// structurally absent.
func (r IngestRequest) Entries() []RawOfferEntry {
	return r.FlipkartOfferAPIResponse.OfferSections.PBO.Offers
}

// IngestResult reports the outcome of one ingestion run.
type IngestResult struct {
	NoOfOffersIdentified int `json:"noOfOffersIdentified"`
	NoOfNewOffersCreated int `json:"noOfNewOffersCreated"`
}

// DiscountQuery is the purchase context a discount resolution is
// evaluated against. PaymentInstrument is optional; empty means no
// instrument constraint.
type DiscountQuery struct {
	Amount            float64
	BankName          string
	PaymentInstrument string
}

// DiscountResult is the response payload for a discount resolution.
type DiscountResult struct {
	HighestDiscountAmount int64 `json:"highestDiscountAmount"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
