package checkout

import "ms-storefront/internal/models"

// Outcome is the tagged union returned by a purchase orchestration: exactly
// one of ImmediateSuccess, RedirectRequired or Failure. Call sites type-switch
// over the three variants instead of shape-sniffing a response struct.
type Outcome interface {
	outcome()
}

// ImmediateSuccess means the purchase settled without a provider redirect:
// the tickets were free or fully covered by account balance, and the payment
// transaction was verified COMPLETED.
type ImmediateSuccess struct {
	TicketKind       models.TicketKind
	PaymentReference string
}

// RedirectRequired means the buyer must finish payment at the provider's
// hosted checkout. The outcome of that payment is observed on a separate
// callback route, outside this core.
type RedirectRequired struct {
	AuthorizationURL string
	PaymentReference string
}

// Failure carries the classified error for kind-specific rendering.
type Failure struct {
	Err *ClassifiedError
}

func (ImmediateSuccess) outcome() {}
func (RedirectRequired) outcome() {}
func (Failure) outcome()          {}
