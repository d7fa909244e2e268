package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"payment-offers-api/internal/extract"
	"payment-offers-api/internal/models"
	"payment-offers-api/internal/service"
	"payment-offers-api/internal/store"
)

func setupTestHandler(t *testing.T) (*Handler, func()) {
	dbPath := "./test_handler_" + time.Now().Format("20060102150405.000000000") + ".db"
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	svc := service.NewService(st, extract.NewRegexExtractor("₹"))
	h := NewHandler(svc)

	cleanup := func() {
		st.Close()
		os.Remove(dbPath)
	}

	return h, cleanup
}

func setupRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/offer", h.SaveOffers)
	r.Get("/highest-discount", h.GetHighestDiscount)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return r
}

func ingestBody(entries ...models.RawOfferEntry) []byte {
	var req models.IngestRequest
	req.FlipkartOfferAPIResponse.OfferSections.PBO.Offers = entries
	body, _ := json.Marshal(req)
	return body
}

func postOffers(t *testing.T, r *chi.Mux, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/offer", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	r := setupRouter(h)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	if rr.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", rr.Body.String())
	}
}

func TestSaveOffers_Success(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	r := setupRouter(h)

	body := ingestBody(
		models.RawOfferEntry{
			AdjustmentID: uuid.New().String(),
			Summary:      "10% instant discount on HDFC credit cards",
			Contributors: models.Contributors{
				Banks:             []string{"HDFC"},
				PaymentInstrument: []string{"CREDIT"},
			},
		},
		models.RawOfferEntry{
			AdjustmentID: uuid.New().String(),
			Summary:      "Flat ₹250 off on ICICI debit cards",
			Contributors: models.Contributors{
				Banks:             []string{"ICICI"},
				PaymentInstrument: []string{"DEBIT"},
			},
		},
	)

	rr := postOffers(t, r, body)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var result models.IngestResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if result.NoOfOffersIdentified != 2 || result.NoOfNewOffersCreated != 2 {
		t.Errorf("Expected 2 identified / 2 created, got %+v", result)
	}

	// Re-posting the same payload creates nothing.
	rr = postOffers(t, r, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on re-post, got %d", rr.Code)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if result.NoOfOffersIdentified != 2 || result.NoOfNewOffersCreated != 0 {
		t.Errorf("Expected 2 identified / 0 created on re-post, got %+v", result)
	}
}

func TestSaveOffers_MissingEnvelopeIsEmptyBatch(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	r := setupRouter(h)

	rr := postOffers(t, r, []byte(`{}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for absent batch, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var result models.IngestResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if result.NoOfOffersIdentified != 0 || result.NoOfNewOffersCreated != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}

func TestSaveOffers_InvalidJSON(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	r := setupRouter(h)

	rr := postOffers(t, r, []byte("invalid json"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestSaveOffers_EmptyBody(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	r := setupRouter(h)

	rr := postOffers(t, r, nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestGetHighestDiscount_Success(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	r := setupRouter(h)

	body := ingestBody(models.RawOfferEntry{
		AdjustmentID: uuid.New().String(),
		Summary:      "10% instant discount on HDFC credit cards",
		Contributors: models.Contributors{
			Banks:             []string{"HDFC"},
			PaymentInstrument: []string{"CREDIT"},
		},
	})
	if rr := postOffers(t, r, body); rr.Code != http.StatusOK {
		t.Fatalf("Failed to seed offer: %d", rr.Code)
	}

	req := httptest.NewRequest("GET", "/highest-discount?amountToPay=5000&bankName=hdfc&paymentInstrument=credit", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var result models.DiscountResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if result.HighestDiscountAmount != 500 {
		t.Errorf("Expected discount 500, got %d", result.HighestDiscountAmount)
	}
}

func TestGetHighestDiscount_NoMatchesReturnsZero(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	r := setupRouter(h)

	req := httptest.NewRequest("GET", "/highest-discount?amountToPay=5000&bankName=AXIS", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for zero matches, got %d", rr.Code)
	}

	var result models.DiscountResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if result.HighestDiscountAmount != 0 {
		t.Errorf("Expected discount 0, got %d", result.HighestDiscountAmount)
	}
}

func TestGetHighestDiscount_InputErrors(t *testing.T) {
	h, cleanup := setupTestHandler(t)
	defer cleanup()

	r := setupRouter(h)

	cases := []struct {
		name  string
		query string
	}{
		{"missing amount", "bankName=HDFC"},
		{"non-numeric amount", "amountToPay=abc&bankName=HDFC"},
		{"NaN amount", "amountToPay=NaN&bankName=HDFC"},
		{"non-positive amount", "amountToPay=0&bankName=HDFC"},
		{"missing bank name", "amountToPay=5000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", fmt.Sprintf("/highest-discount?%s", tc.query), nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d. Body: %s", rr.Code, rr.Body.String())
			}
		})
	}
}
