package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-storefront/internal/checkout"
	"ms-storefront/internal/config"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/receipts"
	"ms-storefront/internal/slugcache"
	"ms-storefront/internal/sse"
	"ms-storefront/internal/storefront/api"
	"ms-storefront/internal/ticketapi"
)

type scriptedLauncher struct {
	outcome checkout.Outcome
}

func (s *scriptedLauncher) Purchase(ctx context.Context, req models.PurchaseRequest) checkout.Outcome {
	return s.outcome
}

type fixture struct {
	router   chi.Router
	sessions *checkout.SessionManager
	store    *receipts.Store
	slugs    *slugcache.Cache
}

func newFixture(t *testing.T, outcome checkout.Outcome) *fixture {
	t.Helper()

	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	store := receipts.NewStore(bun.NewDB(sqldb, sqlitedialect.New()))
	require.NoError(t, store.Migrate(context.Background()))

	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })

	emitter := sse.NewCheckoutStateEmitter()
	sessions := checkout.NewSessionManager(&scriptedLauncher{outcome: outcome}, emitter)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	slugs := slugcache.NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	apiClient := ticketapi.NewClient(config.TicketAPIConfig{BaseURL: "http://127.0.0.1:0"}, &http.Client{Timeout: time.Second}, log)
	handler := api.NewHandler(sessions, apiClient, store, receipts.NewQRGenerator("test-secret"), slugs, emitter, log)

	r := chi.NewRouter()
	r.Post("/api/v1/pricing", handler.PricingPreview)
	r.Post("/api/v1/checkouts", handler.OpenCheckout)
	r.Get("/api/v1/checkouts/{checkoutId}", handler.GetCheckout)
	r.Post("/api/v1/checkouts/{checkoutId}/submit", handler.SubmitCheckout)
	r.Post("/api/v1/checkouts/{checkoutId}/retry", handler.RetryCheckout)
	r.Delete("/api/v1/checkouts/{checkoutId}", handler.CloseCheckout)
	r.Get("/api/v1/buyers/{email}/last-event", handler.LastEventSlug)
	r.Get("/api/v1/receipts/{reference}", handler.GetReceipt)
	r.Get("/api/v1/receipts/{reference}/qr", handler.GetReceiptQR)

	return &fixture{router: r, sessions: sessions, store: store, slugs: slugs}
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func openCheckout(t *testing.T, f *fixture) checkout.StateSnapshot {
	t.Helper()
	rec := f.do(http.MethodPost, "/api/v1/checkouts", map[string]interface{}{
		"event_slug": "summer-fest",
		"lines": []models.LineItem{
			{TicketType: models.TicketType{ID: "tt-ga", Name: "GA", Price: decimal.NewFromInt(50)}, Quantity: 2},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var snap checkout.StateSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.NotEmpty(t, snap.CheckoutID)
	return snap
}

func validSubmitBody() map[string]interface{} {
	return map[string]interface{}{
		"customer": map[string]string{
			"first_name": "Ada",
			"last_name":  "Lovelace",
			"email":      "ada@example.com",
		},
	}
}

func TestOpenCheckoutRequiresEventSlug(t *testing.T) {
	f := newFixture(t, checkout.ImmediateSuccess{})

	rec := f.do(http.MethodPost, "/api/v1/checkouts", map[string]interface{}{"lines": []models.LineItem{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t, checkout.ImmediateSuccess{
		TicketKind:       models.TicketKindFree,
		PaymentReference: "pay-1",
	})

	snap := openCheckout(t, f)
	assert.Equal(t, checkout.StepDetails, snap.Step)

	rec := f.do(http.MethodPost, "/api/v1/checkouts/"+snap.CheckoutID+"/submit", validSubmitBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var after checkout.StateSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Equal(t, checkout.StepSuccess, after.Step)
	assert.Equal(t, "pay-1", after.PaymentReference)

	// Terminal sessions reject further submissions.
	rec = f.do(http.MethodPost, "/api/v1/checkouts/"+snap.CheckoutID+"/submit", validSubmitBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitFailureThenRetry(t *testing.T) {
	f := newFixture(t, checkout.Failure{
		Err: checkout.NewFailure(checkout.KindInventory, "Sold out", ""),
	})

	snap := openCheckout(t, f)

	rec := f.do(http.MethodPost, "/api/v1/checkouts/"+snap.CheckoutID+"/submit", validSubmitBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var after checkout.StateSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Equal(t, checkout.StepError, after.Step)
	require.NotNil(t, after.Error)
	assert.Equal(t, checkout.KindInventory, after.Error.Kind)
	assert.Len(t, after.Error.Suggestions, 3)

	rec = f.do(http.MethodPost, "/api/v1/checkouts/"+snap.CheckoutID+"/retry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Equal(t, checkout.StepDetails, after.Step)
}

func TestRetryOnFreshSessionIsRejected(t *testing.T) {
	f := newFixture(t, checkout.ImmediateSuccess{})

	snap := openCheckout(t, f)
	rec := f.do(http.MethodPost, "/api/v1/checkouts/"+snap.CheckoutID+"/retry", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCloseCheckout(t *testing.T) {
	f := newFixture(t, checkout.ImmediateSuccess{})

	snap := openCheckout(t, f)
	rec := f.do(http.MethodDelete, "/api/v1/checkouts/"+snap.CheckoutID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/checkouts/"+snap.CheckoutID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUnknownCheckout(t *testing.T) {
	f := newFixture(t, checkout.ImmediateSuccess{})

	rec := f.do(http.MethodGet, "/api/v1/checkouts/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPricingPreview(t *testing.T) {
	f := newFixture(t, checkout.ImmediateSuccess{})

	rec := f.do(http.MethodPost, "/api/v1/pricing", map[string]interface{}{
		"lines": []models.LineItem{
			{TicketType: models.TicketType{ID: "tt-ga", Name: "GA", Price: decimal.NewFromInt(50)}, Quantity: 2},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		Subtotal decimal.Decimal `json:"subtotal"`
		Total    decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(100)))
	assert.True(t, summary.Total.Equal(summary.Subtotal))
}

func TestLastEventSlug(t *testing.T) {
	f := newFixture(t, checkout.ImmediateSuccess{})

	rec := f.do(http.MethodGet, "/api/v1/buyers/ada@example.com/last-event", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, f.slugs.Put(context.Background(), "ada@example.com", "summer-fest"))

	rec = f.do(http.MethodGet, "/api/v1/buyers/ada@example.com/last-event", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "summer-fest", body["event_slug"])
}

func TestReceiptEndpoints(t *testing.T) {
	f := newFixture(t, checkout.ImmediateSuccess{})

	require.NoError(t, f.store.SaveReceipt(context.Background(), models.PurchaseRecord{
		Reference:  "ref-1",
		EventSlug:  "summer-fest",
		Email:      "ada@example.com",
		TicketKind: models.TicketKindPaid,
	}))

	rec := f.do(http.MethodGet, "/api/v1/receipts/ref-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var receipt receipts.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, "summer-fest", receipt.EventSlug)

	rec = f.do(http.MethodGet, "/api/v1/receipts/ref-1/qr", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = f.do(http.MethodGet, "/api/v1/receipts/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
