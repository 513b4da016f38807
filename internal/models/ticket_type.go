package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "PERCENTAGE"
	DiscountFixed      DiscountKind = "FIXED"
)

// FlashSale is a time- and inventory-bounded discount override for a ticket type.
type FlashSale struct {
	ID              string          `json:"id"`
	DiscountKind    DiscountKind    `json:"discount_kind"`
	Amount          decimal.Decimal `json:"amount"`
	StartsAt        time.Time       `json:"starts_at"`
	EndsAt          time.Time       `json:"ends_at"`
	Remaining       int             `json:"remaining"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

// ValidAt reports whether the flash sale applies at the given instant.
// An expired or depleted sale is treated as absent, never as an error.
func (f *FlashSale) ValidAt(now time.Time) bool {
	if f == nil {
		return false
	}
	if now.Before(f.StartsAt) || now.After(f.EndsAt) {
		return false
	}
	return f.Remaining > 0
}

// ComplementaryPolicy grants one free ticket per PaidPerFree paid tickets.
// MaxFreePerPurchase of 0 means uncapped.
type ComplementaryPolicy struct {
	PaidPerFree        int `json:"paid_per_free"`
	MaxFreePerPurchase int `json:"max_free_per_purchase"`
}

type TicketType struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Price         decimal.Decimal      `json:"price"`
	Remaining     int                  `json:"remaining"`
	Total         int                  `json:"total"`
	SaleStart     time.Time            `json:"sale_start"`
	SaleEnd       time.Time            `json:"sale_end"`
	FlashSale     *FlashSale           `json:"flash_sale,omitempty"`
	Complementary *ComplementaryPolicy `json:"complementary,omitempty"`
}

// PurchasableAt reports whether the ticket type can be bought at the given
// instant: the sale window must contain it and inventory must remain.
func (t *TicketType) PurchasableAt(now time.Time) bool {
	if now.Before(t.SaleStart) || now.After(t.SaleEnd) {
		return false
	}
	return t.Remaining > 0
}
