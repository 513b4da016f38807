package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TxPending    TransactionStatus = "PENDING"
	TxProcessing TransactionStatus = "PROCESSING"
	TxCompleted  TransactionStatus = "COMPLETED"
	TxFailed     TransactionStatus = "FAILED"
	TxCancelled  TransactionStatus = "CANCELLED"
	TxRefunded   TransactionStatus = "REFUNDED"
)

// Terminal reports whether the status can no longer change server-side.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case TxCompleted, TxFailed, TxCancelled, TxRefunded:
		return true
	}
	return false
}

// PaymentTransaction is created server-side on purchase submission; the
// storefront only reads it.
type PaymentTransaction struct {
	ID                string            `json:"id"`
	Status            TransactionStatus `json:"status"`
	Reference         string            `json:"reference"`
	Amount            decimal.Decimal   `json:"amount"`
	Currency          string            `json:"currency"`
	Provider          string            `json:"provider"`
	ProviderReference string            `json:"provider_reference,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	Attempts          int               `json:"attempts"`
	RequiresAction    bool              `json:"requires_action"`
}
