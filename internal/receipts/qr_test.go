package receipts_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-storefront/internal/receipts"
)

func TestGenerateEncryptedQR(t *testing.T) {
	gen := receipts.NewQRGenerator("test-secret-key")

	receipt := receipts.Receipt{
		Reference:  "ref-qr-1",
		EventSlug:  "summer-fest",
		Email:      "ada@example.com",
		TicketKind: "paid",
		CreatedAt:  time.Now(),
	}

	png, err := gen.GenerateEncryptedQR(receipt)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestQRDiffersPerReceipt(t *testing.T) {
	gen := receipts.NewQRGenerator("test-secret-key")

	a, err := gen.GenerateEncryptedQR(receipts.Receipt{Reference: "ref-a", EventSlug: "summer-fest", Email: "ada@example.com", TicketKind: "free"})
	require.NoError(t, err)
	b, err := gen.GenerateEncryptedQR(receipts.Receipt{Reference: "ref-b", EventSlug: "summer-fest", Email: "ada@example.com", TicketKind: "free"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
