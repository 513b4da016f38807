package models

import "time"

type TicketKind string

const (
	TicketKindFree        TicketKind = "free"
	TicketKindBalanceOnly TicketKind = "balance_only"
	TicketKindPaid        TicketKind = "paid"
)

// CustomerDetails is the identity collected on the checkout details step.
type CustomerDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// LineItem is a cart-scoped selection. It is never persisted; quantity 0
// means the line is excluded from submission.
type LineItem struct {
	TicketType TicketType `json:"ticket_type"`
	Quantity   int        `json:"quantity"`
}

type PurchaseLine struct {
	TicketTypeID string `json:"ticket_type_id"`
	Quantity     int    `json:"quantity"`
}

// PurchaseRequest is the payload submitted to the remote purchase endpoint.
type PurchaseRequest struct {
	Reference    string         `json:"reference"`
	EventSlug    string         `json:"event_slug"`
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	Email        string         `json:"email"`
	DiscountCode string         `json:"discount_code,omitempty"`
	Provider     string         `json:"provider"`
	Lines        []PurchaseLine `json:"lines"`
}

// TotalQuantity sums the requested tickets across all lines.
func (r PurchaseRequest) TotalQuantity() int {
	total := 0
	for _, line := range r.Lines {
		total += line.Quantity
	}
	return total
}

// PurchaseResponse is the collaborator's reply to a purchase submission.
// An empty AuthorizationURL means the purchase was free or fully covered
// by account balance.
type PurchaseResponse struct {
	Success          bool       `json:"success"`
	TicketKind       TicketKind `json:"ticket_kind"`
	RedirectType     string     `json:"redirect_type,omitempty"`
	AuthorizationURL string     `json:"authorization_url,omitempty"`
	PaymentReference string     `json:"payment_reference"`
	Message          string     `json:"message"`
	Detail           string     `json:"detail,omitempty"`
}

// PurchaseRecord is the locally persisted trace of a successful purchase,
// written best-effort after the orchestrator resolves an outcome.
type PurchaseRecord struct {
	Reference  string     `json:"reference"`
	EventSlug  string     `json:"event_slug"`
	Email      string     `json:"email"`
	TicketKind TicketKind `json:"ticket_kind"`
	Redirected bool       `json:"redirected"`
	CreatedAt  time.Time  `json:"created_at"`
}
