package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"ms-storefront/internal/models"
)

// LineBreakdown is the priced view of a single cart line.
type LineBreakdown struct {
	TicketTypeID  string          `json:"ticket_type_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Savings       decimal.Decimal `json:"savings"`
	FlashActive   bool            `json:"flash_active"`
	BonusQuantity int             `json:"bonus_quantity"`
}

// Summary aggregates a cart at a given instant. Total equals Subtotal:
// discount codes are applied server-side and never reflected here before
// confirmation.
type Summary struct {
	Lines         []LineBreakdown `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Savings       decimal.Decimal `json:"savings"`
	Total         decimal.Decimal `json:"total"`
	TotalQuantity int             `json:"total_quantity"`
	BonusQuantity int             `json:"bonus_quantity"`
	FlashActive   bool            `json:"flash_active"`
}

// Summarize prices the cart for display. Zero-quantity lines are skipped.
// Sold-out or sale-ended ticket types are still priced: inventory is a race
// the client cannot adjudicate, so rejection belongs to the server response
// after submission.
func Summarize(items []models.LineItem, now time.Time) Summary {
	summary := Summary{
		Lines:    make([]LineBreakdown, 0, len(items)),
		Subtotal: decimal.Zero,
		Savings:  decimal.Zero,
		Total:    decimal.Zero,
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}

		quote := EvaluateFlashSale(item.TicketType, now)
		qty := decimal.NewFromInt(int64(item.Quantity))

		line := LineBreakdown{
			TicketTypeID:  item.TicketType.ID,
			Name:          item.TicketType.Name,
			Quantity:      item.Quantity,
			UnitPrice:     quote.UnitPrice,
			Subtotal:      quote.UnitPrice.Mul(qty),
			Savings:       quote.SavingsPerUnit.Mul(qty),
			FlashActive:   quote.Active,
			BonusQuantity: bonusQuantity(item.TicketType.Complementary, item.Quantity),
		}

		summary.Lines = append(summary.Lines, line)
		summary.Subtotal = summary.Subtotal.Add(line.Subtotal)
		summary.Savings = summary.Savings.Add(line.Savings)
		summary.TotalQuantity += line.Quantity
		summary.BonusQuantity += line.BonusQuantity
		if line.FlashActive {
			summary.FlashActive = true
		}
	}

	summary.Total = summary.Subtotal
	return summary
}

// bonusQuantity computes the complementary tickets earned by a line:
// one free ticket per PaidPerFree paid, capped by MaxFreePerPurchase.
func bonusQuantity(policy *models.ComplementaryPolicy, quantity int) int {
	if policy == nil || policy.PaidPerFree <= 0 {
		return 0
	}
	free := quantity / policy.PaidPerFree
	if policy.MaxFreePerPurchase > 0 && free > policy.MaxFreePerPurchase {
		free = policy.MaxFreePerPurchase
	}
	return free
}
