package receipts

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"

	"ms-storefront/internal/models"
)

type Store struct {
	Bun *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{Bun: db}
}

// Migrate creates the receipts table.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Bun.NewCreateTable().
		Model((*Receipt)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// SaveReceipt inserts the record; a duplicate reference is replaced, which
// makes the best-effort write safe to repeat.
func (s *Store) SaveReceipt(ctx context.Context, rec models.PurchaseRecord) error {
	receipt := Receipt{
		Reference:  rec.Reference,
		EventSlug:  rec.EventSlug,
		Email:      rec.Email,
		TicketKind: string(rec.TicketKind),
		Redirected: rec.Redirected,
		CreatedAt:  rec.CreatedAt,
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now()
	}

	_, err := s.Bun.NewInsert().
		Model(&receipt).
		On("CONFLICT (reference) DO UPDATE").
		Set("event_slug = EXCLUDED.event_slug").
		Set("ticket_kind = EXCLUDED.ticket_kind").
		Set("redirected = EXCLUDED.redirected").
		Exec(ctx)
	return err
}

// GetByReference fetches one receipt; sql.ErrNoRows when absent.
func (s *Store) GetByReference(ctx context.Context, reference string) (*Receipt, error) {
	var receipt Receipt
	err := s.Bun.NewSelect().
		Model(&receipt).
		Where("reference = ?", reference).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListByEmail returns a buyer's receipts, newest first.
func (s *Store) ListByEmail(ctx context.Context, email string, limit int) ([]Receipt, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Receipt
	err := s.Bun.NewSelect().
		Model(&out).
		Where("email = ?", email).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return out, nil
}
