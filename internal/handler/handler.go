package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"payment-offers-api/internal/models"
	"payment-offers-api/internal/service"
	"payment-offers-api/internal/validation"
)

// Handler provides HTTP handlers for the API.
type Handler struct {
	service     *service.Service
	maxBodySize int64
}

// NewHandlerOptions holds options for creating a handler.
type NewHandlerOptions struct {
	MaxBodySize int64
}

// DefaultHandlerOptions returns default handler options.
func DefaultHandlerOptions() NewHandlerOptions {
	return NewHandlerOptions{
		MaxBodySize: 10 << 20, // 10MB default
	}
}

// NewHandler creates a new handler instance.
func NewHandler(svc *service.Service) *Handler {
	return NewHandlerWithOptions(svc, DefaultHandlerOptions())
}

// NewHandlerWithOptions creates a new handler instance with custom options.
func NewHandlerWithOptions(svc *service.Service, opts NewHandlerOptions) *Handler {
	return &Handler{
		service:     svc,
		maxBodySize: opts.MaxBodySize,
	}
}

// SaveOffers handles POST /offer. The body is the partner API response
// envelope; a structurally absent offer list is an empty batch, not an
// error.
func (h *Handler) SaveOffers(w http.ResponseWriter, r *http.Request) {
	// Limit request body size to prevent abuse
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "request body is required")
			return
		}
		h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	result, err := h.service.IngestOffers(r.Context(), req.Entries())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetHighestDiscount handles GET /highest-discount. Zero matching offers
// is a valid answer (200 with amount 0); a missing amount or bank name is
// an input error (400).
func (h *Handler) GetHighestDiscount(w http.ResponseWriter, r *http.Request) {
	amountParam := validation.SanitizeString(r.URL.Query().Get("amountToPay"))
	amount, err := validation.ParseAmount(amountParam)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	query := models.DiscountQuery{
		Amount:            amount,
		BankName:          validation.SanitizeString(r.URL.Query().Get("bankName")),
		PaymentInstrument: validation.SanitizeString(r.URL.Query().Get("paymentInstrument")),
	}

	result, err := h.service.HighestDiscount(r.Context(), query)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// respondServiceError maps input errors to 400 and everything else to a
// generic 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		h.respondError(w, http.StatusBadRequest, verr.Error())
		return
	}
	h.respondError(w, http.StatusInternalServerError, "internal server error")
}

// respondJSON sends a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response with the given status code and message.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
