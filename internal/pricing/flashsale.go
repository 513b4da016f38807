package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"ms-storefront/internal/models"
)

// Quote is the resolved unit price of a ticket type at a given instant.
type Quote struct {
	Active         bool            `json:"active"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	SavingsPerUnit decimal.Decimal `json:"savings_per_unit"`
}

var hundred = decimal.NewFromInt(100)

// EvaluateFlashSale resolves the unit price of a ticket type at the given
// instant. It is pure: callers re-evaluate on every tick, because a sale can
// expire mid-session. An inactive, expired or depleted flash sale falls back
// to the base price with zero savings.
func EvaluateFlashSale(t models.TicketType, now time.Time) Quote {
	base := t.Price

	if !t.FlashSale.ValidAt(now) {
		return Quote{Active: false, UnitPrice: base, SavingsPerUnit: decimal.Zero}
	}

	var discounted decimal.Decimal
	switch t.FlashSale.DiscountKind {
	case models.DiscountPercentage:
		discounted = base.Mul(hundred.Sub(t.FlashSale.Amount)).Div(hundred)
	case models.DiscountFixed:
		discounted = base.Sub(t.FlashSale.Amount)
	default:
		return Quote{Active: false, UnitPrice: base, SavingsPerUnit: decimal.Zero}
	}

	// A FIXED discount larger than the base price clamps to zero.
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}

	return Quote{
		Active:         true,
		UnitPrice:      discounted,
		SavingsPerUnit: base.Sub(discounted),
	}
}
