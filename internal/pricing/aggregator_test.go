package pricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-storefront/internal/models"
	"ms-storefront/internal/pricing"
)

func TestSummarizeSkipsZeroQuantityLines(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []models.LineItem{
		{TicketType: models.TicketType{ID: "tt-ga", Name: "GA", Price: decimal.NewFromInt(40)}, Quantity: 2},
		{TicketType: models.TicketType{ID: "tt-vip", Name: "VIP", Price: decimal.NewFromInt(120)}, Quantity: 0},
	}

	summary := pricing.Summarize(items, now)

	require.Len(t, summary.Lines, 1)
	assert.Equal(t, "tt-ga", summary.Lines[0].TicketTypeID)
	assert.Equal(t, 2, summary.TotalQuantity)
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(80)))
	assert.True(t, summary.Total.Equal(summary.Subtotal))
}

func TestSummarizeMixedFlashAndBaseLines(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	flash := models.TicketType{
		ID:    "tt-early",
		Name:  "Early Bird",
		Price: decimal.NewFromInt(100),
		FlashSale: &models.FlashSale{
			ID:           "fs-1",
			DiscountKind: models.DiscountPercentage,
			Amount:       decimal.NewFromInt(25),
			StartsAt:     now.Add(-time.Hour),
			EndsAt:       now.Add(time.Hour),
			Remaining:    50,
		},
	}
	base := models.TicketType{ID: "tt-std", Name: "Standard", Price: decimal.NewFromInt(60)}

	summary := pricing.Summarize([]models.LineItem{
		{TicketType: flash, Quantity: 2},
		{TicketType: base, Quantity: 1},
	}, now)

	require.Len(t, summary.Lines, 2)
	assert.True(t, summary.Lines[0].FlashActive)
	assert.True(t, summary.Lines[0].UnitPrice.Equal(decimal.NewFromInt(75)))
	assert.False(t, summary.Lines[1].FlashActive)

	// 2*75 + 1*60 = 210, savings 2*25 = 50
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(210)))
	assert.True(t, summary.Savings.Equal(decimal.NewFromInt(50)))
	assert.True(t, summary.Total.Equal(decimal.NewFromInt(210)))
	assert.True(t, summary.FlashActive)
	assert.Equal(t, 3, summary.TotalQuantity)
}

func TestSummarizeDoesNotRejectSoldOutLines(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	soldOut := models.TicketType{
		ID:        "tt-sold",
		Name:      "Sold Out",
		Price:     decimal.NewFromInt(30),
		Remaining: 0,
		SaleStart: now.Add(-48 * time.Hour),
		SaleEnd:   now.Add(-24 * time.Hour),
	}

	summary := pricing.Summarize([]models.LineItem{{TicketType: soldOut, Quantity: 1}}, now)

	// Pricing still resolves; rejection is the server's call after submit.
	require.Len(t, summary.Lines, 1)
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(30)))
}

func TestSummarizeComplementaryBonus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	withPolicy := models.TicketType{
		ID:            "tt-group",
		Name:          "Group",
		Price:         decimal.NewFromInt(20),
		Complementary: &models.ComplementaryPolicy{PaidPerFree: 3, MaxFreePerPurchase: 2},
	}

	summary := pricing.Summarize([]models.LineItem{{TicketType: withPolicy, Quantity: 9}}, now)

	// 9/3 = 3 free, capped at 2.
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, 2, summary.Lines[0].BonusQuantity)
	assert.Equal(t, 2, summary.BonusQuantity)
}

func TestSummarizeEmptyCart(t *testing.T) {
	summary := pricing.Summarize(nil, time.Now())

	assert.Empty(t, summary.Lines)
	assert.True(t, summary.Subtotal.IsZero())
	assert.True(t, summary.Total.IsZero())
	assert.Equal(t, 0, summary.TotalQuantity)
}
