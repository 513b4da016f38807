package checkout

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/metrics"
	"ms-storefront/internal/models"
)

// MaxTicketsPerPurchase is the hard cap enforced before any network call.
const MaxTicketsPerPurchase = 10

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type PurchaseAPI interface {
	SubmitPurchase(ctx context.Context, req models.PurchaseRequest) (*models.PurchaseResponse, error)
}

type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) error
}

// SlugCache remembers the most recently purchased event slug per buyer so a
// post-redirect landing page can correlate the purchase with its event.
type SlugCache interface {
	Put(ctx context.Context, owner, slug string) error
}

type ReceiptStore interface {
	SaveReceipt(ctx context.Context, rec models.PurchaseRecord) error
}

type TelemetryPublisher interface {
	PublishCheckoutCompleted(rec models.PurchaseRecord) error
	PublishCheckoutFailed(eventSlug string, kind, message string) error
}

// Orchestrator turns a purchase request into exactly one Outcome. It never
// lets an error escape as a panic or a raw error: every path ends in one of
// the three variants.
type Orchestrator struct {
	API       PurchaseAPI
	Verifier  PaymentVerifier
	Slugs     SlugCache
	Receipts  ReceiptStore
	Telemetry TelemetryPublisher
	Logger    *logger.Logger
}

func NewOrchestrator(api PurchaseAPI, verifier PaymentVerifier, slugs SlugCache, receipts ReceiptStore, telemetry TelemetryPublisher, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		API:       api,
		Verifier:  verifier,
		Slugs:     slugs,
		Receipts:  receipts,
		Telemetry: telemetry,
		Logger:    log,
	}
}

// Purchase validates locally, submits to the remote purchase endpoint and
// interprets the reply. Local validation failures never reach the network.
func (o *Orchestrator) Purchase(ctx context.Context, req models.PurchaseRequest) Outcome {
	start := time.Now()
	defer metrics.ObservePurchase(start)

	// Step 1: drop zero-quantity lines before the request is built.
	lines := make([]models.PurchaseLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.Quantity > 0 {
			lines = append(lines, line)
		}
	}
	req.Lines = lines

	if failure := o.validate(req); failure != nil {
		return o.fail(req.EventSlug, failure)
	}

	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}

	// Step 2: submit to the remote purchase endpoint.
	o.Logger.LogPurchase("SUBMIT", req.Reference, fmt.Sprintf("submitting %d line(s) for %s", len(req.Lines), req.EventSlug))
	resp, err := o.API.SubmitPurchase(ctx, req)
	if err != nil {
		return o.fail(req.EventSlug, Classify(err))
	}

	// Step 3: a present authorization URL means the provider finishes the
	// payment; hand control to full-page navigation.
	if resp.AuthorizationURL != "" {
		o.Logger.LogPurchase("REDIRECT", resp.PaymentReference, "provider checkout required")
		outcome := RedirectRequired{
			AuthorizationURL: resp.AuthorizationURL,
			PaymentReference: resp.PaymentReference,
		}
		o.recordSuccess(ctx, req, resp.TicketKind, resp.PaymentReference, true)
		metrics.RecordOutcome("redirect_required", "")
		return outcome
	}

	// Step 4: free or balance-settled; confirm the transaction reached
	// COMPLETED before declaring success.
	if err := o.Verifier.Verify(ctx, resp.PaymentReference); err != nil {
		return o.fail(req.EventSlug, NewFailure(KindPayment, "Payment could not be confirmed", err.Error()))
	}

	kind := resp.TicketKind
	if kind == "" {
		kind = models.TicketKindFree
	}
	o.Logger.LogPurchase("COMPLETED", resp.PaymentReference, fmt.Sprintf("ticket kind %s", kind))
	o.recordSuccess(ctx, req, kind, resp.PaymentReference, false)
	metrics.RecordOutcome("immediate_success", "")
	return ImmediateSuccess{TicketKind: kind, PaymentReference: resp.PaymentReference}
}

func (o *Orchestrator) validate(req models.PurchaseRequest) *ClassifiedError {
	if req.FirstName == "" || req.LastName == "" {
		return NewFailure(KindValidation, "First and last name are required", "")
	}
	if req.Email == "" || !emailPattern.MatchString(req.Email) {
		return NewFailure(KindValidation, "A valid email address is required", "")
	}
	if len(req.Lines) == 0 {
		return NewFailure(KindValidation, "Select at least one ticket", "")
	}
	if total := req.TotalQuantity(); total > MaxTicketsPerPurchase {
		return NewFailure(KindValidation,
			fmt.Sprintf("A purchase is limited to %d tickets", MaxTicketsPerPurchase),
			fmt.Sprintf("requested %d", total))
	}
	return nil
}

func (o *Orchestrator) fail(eventSlug string, failure *ClassifiedError) Outcome {
	o.Logger.Warn("CHECKOUT", fmt.Sprintf("Purchase failed (%s): %s", failure.Kind, failure.Message))
	metrics.RecordOutcome("failure", string(failure.Kind))
	if o.Telemetry != nil {
		if err := o.Telemetry.PublishCheckoutFailed(eventSlug, string(failure.Kind), failure.Message); err != nil {
			o.Logger.Error("TELEMETRY", fmt.Sprintf("Failed to publish checkout failure: %v", err))
		}
	}
	return Failure{Err: failure}
}

// recordSuccess runs the best-effort side effects of a successful outcome:
// slug cache, local receipt, telemetry. None of them may change the outcome.
func (o *Orchestrator) recordSuccess(ctx context.Context, req models.PurchaseRequest, kind models.TicketKind, reference string, redirected bool) {
	rec := models.PurchaseRecord{
		Reference:  reference,
		EventSlug:  req.EventSlug,
		Email:      req.Email,
		TicketKind: kind,
		Redirected: redirected,
		CreatedAt:  time.Now(),
	}

	if o.Slugs != nil {
		if err := o.Slugs.Put(ctx, req.Email, req.EventSlug); err != nil {
			o.Logger.Error("CHECKOUT", fmt.Sprintf("Failed to cache event slug %s: %v", req.EventSlug, err))
		}
	}

	if o.Receipts != nil {
		if err := o.Receipts.SaveReceipt(ctx, rec); err != nil {
			o.Logger.Error("CHECKOUT", fmt.Sprintf("Failed to save receipt %s: %v", reference, err))
		}
	}

	if o.Telemetry != nil {
		if err := o.Telemetry.PublishCheckoutCompleted(rec); err != nil {
			o.Logger.Error("TELEMETRY", fmt.Sprintf("Failed to publish checkout completion: %v", err))
		}
	}
}
