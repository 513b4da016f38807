package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"ms-storefront/internal/models"
)

// Step is the checkout dialog's current position. Redirect, Success and
// Error are terminal for a submission; only Retry moves Error back to
// Details.
type Step string

const (
	StepDetails    Step = "details"
	StepProcessing Step = "processing"
	StepRedirect   Step = "redirect"
	StepSuccess    Step = "success"
	StepError      Step = "error"
)

func (s Step) Terminal() bool {
	return s == StepSuccess || s == StepError || s == StepRedirect
}

var (
	ErrCheckoutClosed   = errors.New("checkout is closed")
	ErrSubmitNotAllowed = errors.New("submit is only allowed from the details step")
	ErrRetryNotAllowed  = errors.New("retry is only allowed from the error step")
)

// SubmitRequest is what the details form hands over on submit.
type SubmitRequest struct {
	Customer     models.CustomerDetails `json:"customer"`
	DiscountCode string                 `json:"discount_code,omitempty"`
	Provider     string                 `json:"provider,omitempty"`
}

// StateSnapshot is the render-ready view of a checkout session.
type StateSnapshot struct {
	CheckoutID       string            `json:"checkout_id"`
	EventSlug        string            `json:"event_slug"`
	Step             Step              `json:"step"`
	Error            *ClassifiedError  `json:"error,omitempty"`
	TicketKind       models.TicketKind `json:"ticket_kind,omitempty"`
	PaymentReference string            `json:"payment_reference,omitempty"`
	AuthorizationURL string            `json:"authorization_url,omitempty"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type StateEmitter interface {
	EmitStateChange(snapshot StateSnapshot)
}

type PurchaseLauncher interface {
	Purchase(ctx context.Context, req models.PurchaseRequest) Outcome
}

// StateMachine sequences one checkout surface: details -> processing ->
// {success | error | redirect}. One submission is in flight at a time, and a
// result arriving after Close is dropped rather than applied to a dismissed
// surface.
type StateMachine struct {
	ID        string
	EventSlug string

	orch    PurchaseLauncher
	emitter StateEmitter

	mu      sync.Mutex
	step    Step
	closed  bool
	gen     int
	lastErr *ClassifiedError
	kind    models.TicketKind
	ref     string
	authURL string
	lines   []models.LineItem
	updated time.Time
}

func NewStateMachine(id, eventSlug string, lines []models.LineItem, orch PurchaseLauncher, emitter StateEmitter) *StateMachine {
	return &StateMachine{
		ID:        id,
		EventSlug: eventSlug,
		orch:      orch,
		emitter:   emitter,
		step:      StepDetails,
		lines:     lines,
		updated:   time.Now(),
	}
}

// Submit drives the machine through processing to a terminal step. The call
// is synchronous: the purchase submission and the at-most-one verification
// read are awaited sequentially, never concurrently.
func (m *StateMachine) Submit(ctx context.Context, req SubmitRequest) (StateSnapshot, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return StateSnapshot{}, ErrCheckoutClosed
	}
	if m.step != StepDetails {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrSubmitNotAllowed
	}

	m.setStepLocked(StepProcessing)
	gen := m.gen
	purchase := m.buildRequestLocked(req)
	m.mu.Unlock()

	outcome := m.orch.Purchase(ctx, purchase)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Last-writer-loses-to-closed: the surface was dismissed (or reset)
	// while the call was in flight, so the result is ignored.
	if m.closed || m.gen != gen {
		return m.snapshotLocked(), ErrCheckoutClosed
	}

	switch v := outcome.(type) {
	case ImmediateSuccess:
		m.kind = v.TicketKind
		m.ref = v.PaymentReference
		m.setStepLocked(StepSuccess)
	case RedirectRequired:
		m.ref = v.PaymentReference
		m.authURL = v.AuthorizationURL
		m.setStepLocked(StepRedirect)
	case Failure:
		m.lastErr = v.Err
		m.setStepLocked(StepError)
	}

	return m.snapshotLocked(), nil
}

// Retry is the only transition out of the error step, back to details.
func (m *StateMachine) Retry() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrCheckoutClosed
	}
	if m.step != StepError {
		return ErrRetryNotAllowed
	}

	m.lastErr = nil
	m.gen++
	m.setStepLocked(StepDetails)
	return nil
}

// Close discards in-flight state. Idempotent.
func (m *StateMachine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.gen++
}

func (m *StateMachine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *StateMachine) Snapshot() StateSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Lines returns the cart the session was opened with.
func (m *StateMachine) Lines() []models.LineItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.LineItem, len(m.lines))
	copy(out, m.lines)
	return out
}

func (m *StateMachine) buildRequestLocked(req SubmitRequest) models.PurchaseRequest {
	purchase := models.PurchaseRequest{
		EventSlug:    m.EventSlug,
		FirstName:    req.Customer.FirstName,
		LastName:     req.Customer.LastName,
		Email:        req.Customer.Email,
		DiscountCode: req.DiscountCode,
		Provider:     req.Provider,
	}
	for _, item := range m.lines {
		purchase.Lines = append(purchase.Lines, models.PurchaseLine{
			TicketTypeID: item.TicketType.ID,
			Quantity:     item.Quantity,
		})
	}
	return purchase
}

func (m *StateMachine) setStepLocked(step Step) {
	m.step = step
	m.updated = time.Now()
	if m.emitter != nil {
		m.emitter.EmitStateChange(m.snapshotLocked())
	}
}

func (m *StateMachine) snapshotLocked() StateSnapshot {
	return StateSnapshot{
		CheckoutID:       m.ID,
		EventSlug:        m.EventSlug,
		Step:             m.step,
		Error:            m.lastErr,
		TicketKind:       m.kind,
		PaymentReference: m.ref,
		AuthorizationURL: m.authURL,
		UpdatedAt:        m.updated,
	}
}
