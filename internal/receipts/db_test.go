package receipts_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-storefront/internal/models"
	"ms-storefront/internal/receipts"
)

func setupTestStore(t *testing.T) *receipts.Store {
	t.Helper()

	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	store := receipts.NewStore(bun.NewDB(sqldb, sqlitedialect.New()))
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSaveAndGetReceipt(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec := models.PurchaseRecord{
		Reference:  "ref-1",
		EventSlug:  "summer-fest",
		Email:      "ada@example.com",
		TicketKind: models.TicketKindFree,
		Redirected: false,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, store.SaveReceipt(ctx, rec))

	got, err := store.GetByReference(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "summer-fest", got.EventSlug)
	assert.Equal(t, "free", got.TicketKind)
	assert.False(t, got.Redirected)
}

func TestSaveReceiptIsIdempotentPerReference(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec := models.PurchaseRecord{
		Reference:  "ref-2",
		EventSlug:  "summer-fest",
		Email:      "ada@example.com",
		TicketKind: models.TicketKindPaid,
		Redirected: true,
	}
	require.NoError(t, store.SaveReceipt(ctx, rec))
	require.NoError(t, store.SaveReceipt(ctx, rec))

	got, err := store.GetByReference(ctx, "ref-2")
	require.NoError(t, err)
	assert.True(t, got.Redirected)
}

func TestGetMissingReceipt(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetByReference(context.Background(), "nope")
	assert.Error(t, err)
}

func TestListByEmailNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, ref := range []string{"ref-a", "ref-b", "ref-c"} {
		require.NoError(t, store.SaveReceipt(ctx, models.PurchaseRecord{
			Reference:  ref,
			EventSlug:  "summer-fest",
			Email:      "ada@example.com",
			TicketKind: models.TicketKindFree,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := store.ListByEmail(ctx, "ada@example.com", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ref-c", list[0].Reference)
	assert.Equal(t, "ref-b", list[1].Reference)
}
