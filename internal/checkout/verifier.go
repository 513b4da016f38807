package checkout

import (
	"context"
	"fmt"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
)

type TransactionFetcher interface {
	FetchTransaction(ctx context.Context, reference string) (*models.PaymentTransaction, error)
}

// Verifier confirms that a transaction reached COMPLETED before the UI may
// declare success. The purchase call is synchronous and the server settles
// balance-only payments before replying, so a single authoritative read is
// the contract; a non-terminal status is a verification failure, not a
// reason to poll.
type Verifier struct {
	API    TransactionFetcher
	Logger *logger.Logger
}

func NewVerifier(api TransactionFetcher, log *logger.Logger) *Verifier {
	return &Verifier{API: api, Logger: log}
}

func (v *Verifier) Verify(ctx context.Context, reference string) error {
	tx, err := v.API.FetchTransaction(ctx, reference)
	if err != nil {
		v.Logger.Error("VERIFY", fmt.Sprintf("Failed to fetch transaction %s: %v", reference, err))
		return fmt.Errorf("could not confirm payment %s: %w", reference, err)
	}

	switch tx.Status {
	case models.TxCompleted:
		v.Logger.LogPurchase("VERIFIED", reference, "transaction completed")
		return nil
	case models.TxFailed, models.TxCancelled, models.TxRefunded:
		v.Logger.Warn("VERIFY", fmt.Sprintf("Transaction %s ended as %s", reference, tx.Status))
		return fmt.Errorf("payment %s ended as %s", reference, tx.Status)
	default:
		// PENDING/PROCESSING: settlement should already have happened.
		v.Logger.Warn("VERIFY", fmt.Sprintf("Transaction %s still %s after purchase returned", reference, tx.Status))
		return fmt.Errorf("payment %s is still %s", reference, tx.Status)
	}
}
