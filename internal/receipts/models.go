package receipts

import (
	"time"

	"github.com/uptrace/bun"
)

// Receipt is the locally persisted trace of a successful purchase.
type Receipt struct {
	bun.BaseModel `bun:"table:receipts"`

	Reference  string    `bun:"reference,pk" json:"reference"`
	EventSlug  string    `bun:"event_slug,notnull" json:"event_slug"`
	Email      string    `bun:"email,notnull" json:"email"`
	TicketKind string    `bun:"ticket_kind,notnull" json:"ticket_kind"`
	Redirected bool      `bun:"redirected" json:"redirected"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
