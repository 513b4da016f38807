package checkout

import (
	"errors"

	"ms-storefront/internal/ticketapi"
)

// ErrorKind is the closed failure taxonomy. Every failure path resolves to
// exactly one kind; KindGeneral is the only catch-all.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindTicketType    ErrorKind = "ticket_type"
	KindPurchaseLimit ErrorKind = "purchase_limit"
	KindSalePeriod    ErrorKind = "sale_period"
	KindInventory     ErrorKind = "inventory"
	KindPayment       ErrorKind = "payment"
	KindDiscount      ErrorKind = "discount"
	KindBalance       ErrorKind = "balance"
	KindPaymentConfig ErrorKind = "payment_config"
	KindGeneral       ErrorKind = "general"
)

// remedy is the static UI contract for one kind: a fixed title, exactly three
// ordered suggestions, and whether a plain retry can help. One table keeps the
// pieces from drifting apart.
type remedy struct {
	Title       string
	Suggestions [3]string
	Retryable   bool
}

var remedies = map[ErrorKind]remedy{
	KindValidation: {
		Title: "Check your details",
		Suggestions: [3]string{
			"Make sure your name and email address are filled in",
			"Check the email address for typos",
			"Select at least one ticket before submitting",
		},
	},
	KindTicketType: {
		Title: "Ticket no longer available",
		Suggestions: [3]string{
			"Refresh the event page to see current ticket types",
			"Pick a different ticket type",
			"Contact the organizer if the ticket should still be on sale",
		},
	},
	KindPurchaseLimit: {
		Title: "Too many tickets",
		Suggestions: [3]string{
			"Reduce the quantity to 10 tickets or fewer",
			"Split large orders into separate purchases",
			"Contact the organizer for group bookings",
		},
	},
	KindSalePeriod: {
		Title: "Sale not open",
		Suggestions: [3]string{
			"Check the sale start and end dates on the event page",
			"Come back once the sale window opens",
			"Contact the organizer about late sales",
		},
	},
	KindInventory: {
		Title: "Sold out",
		Suggestions: [3]string{
			"Lower the requested quantity",
			"Try a different ticket type",
			"Check back later in case tickets are released",
		},
	},
	KindPayment: {
		Title: "Payment failed",
		Suggestions: [3]string{
			"Try the payment again",
			"Use a different payment method",
			"Contact support if the problem persists",
		},
		Retryable: true,
	},
	KindDiscount: {
		Title: "Discount code problem",
		Suggestions: [3]string{
			"Check the code for typos",
			"Make sure the code has not expired",
			"Remove the code and purchase at full price",
		},
	},
	KindBalance: {
		Title: "Insufficient balance",
		Suggestions: [3]string{
			"Top up your account balance",
			"Choose a payment provider instead of balance",
			"Reduce the ticket quantity",
		},
	},
	KindPaymentConfig: {
		Title: "Payment unavailable",
		Suggestions: [3]string{
			"Try again in a few minutes",
			"Choose a different payment provider",
			"Contact the organizer - payments are misconfigured for this event",
		},
		Retryable: true,
	},
	KindGeneral: {
		Title: "Something went wrong",
		Suggestions: [3]string{
			"Try again",
			"Check your internet connection",
			"Contact support if the problem persists",
		},
		Retryable: true,
	},
}

// discriminatorKinds maps the collaborator's error codes onto the taxonomy.
// Classification never inspects free-text messages.
var discriminatorKinds = map[string]ErrorKind{
	"VALIDATION_ERROR":        KindValidation,
	"TICKET_TYPE_NOT_FOUND":   KindTicketType,
	"TICKET_TYPE_INACTIVE":    KindTicketType,
	"PURCHASE_LIMIT_EXCEEDED": KindPurchaseLimit,
	"SALE_NOT_STARTED":        KindSalePeriod,
	"SALE_ENDED":              KindSalePeriod,
	"FLASH_SALE_EXPIRED":      KindSalePeriod,
	"INSUFFICIENT_INVENTORY":  KindInventory,
	"PAYMENT_FAILED":          KindPayment,
	"PAYMENT_DECLINED":        KindPayment,
	"INVALID_DISCOUNT":        KindDiscount,
	"DISCOUNT_EXPIRED":        KindDiscount,
	"INSUFFICIENT_BALANCE":    KindBalance,
	"PROVIDER_NOT_CONFIGURED": KindPaymentConfig,
	"PAYMENT_CONFIG_ERROR":    KindPaymentConfig,
}

// ClassifiedError is a failure bound to its UI remediation contract.
type ClassifiedError struct {
	Kind        ErrorKind `json:"kind"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Detail      string    `json:"detail,omitempty"`
	Suggestions []string  `json:"suggestions"`
	Retryable   bool      `json:"retryable"`
}

func (e *ClassifiedError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// NewFailure builds a ClassifiedError of the given kind with its static
// title, suggestions and retryability filled in from the table.
func NewFailure(kind ErrorKind, message, detail string) *ClassifiedError {
	r, ok := remedies[kind]
	if !ok {
		kind = KindGeneral
		r = remedies[KindGeneral]
	}
	return &ClassifiedError{
		Kind:        kind,
		Title:       r.Title,
		Message:     message,
		Detail:      detail,
		Suggestions: r.Suggestions[:],
		Retryable:   r.Retryable,
	}
}

// Classify maps an error from the ticket API into the taxonomy. Structured
// API errors are classified by their discriminator code; an absent or
// unrecognized code, and any transport-level error, resolves to general.
func Classify(err error) *ClassifiedError {
	var apiErr *ticketapi.APIError
	if errors.As(err, &apiErr) {
		if kind, ok := discriminatorKinds[apiErr.Code]; ok {
			return NewFailure(kind, apiErr.Message, apiErr.Detail)
		}
		return NewFailure(KindGeneral, apiErr.Message, apiErr.Detail)
	}
	return NewFailure(KindGeneral, "The purchase could not be completed", err.Error())
}
