package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invopay/internal/canonical"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/invopay/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureInvoice() (invoicedomain.Invoice, []invoicedomain.LineItem, []paymentdomain.Payment) {
	issued := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	due := issued.AddDate(0, 0, 14)

	invoice := invoicedomain.Invoice{
		ID:            snowflake.ID(1001),
		OrgID:         snowflake.ID(7),
		InvoiceNumber: "INV-000042",
		Status:        invoicedomain.InvoiceStatusPaid,
		Currency:      "GHS",
		IssuerName:    "Kente Studio",
		IssuerEmail:   "billing@kente.example",
		IssuerPhone:   "+233200000111",
		CustomerName:  "Ama Mensah",
		CustomerEmail: "ama@example.com",
		CustomerPhone: "+233201234567",

		SubtotalAmount: 10000,
		ItemTaxAmount:  500,
		TotalAmount:    10500,
		AmountPaid:     10500,
		IssuedAt:       &issued,
		DueAt:          &due,
	}
	lines := []invoicedomain.LineItem{
		{
			Label:       "Consulting",
			Quantity:    decimal.NewFromInt(2),
			UnitAmount:  5000,
			TaxAmount:   500,
			TotalAmount: 10500,
		},
	}
	payments := []paymentdomain.Payment{
		{
			ID:        snowflake.ID(2001),
			Amount:    10500,
			Method:    string(paymentdomain.MethodMobileMoney),
			Reference: "ref-1",
			PaidAt:    issued.AddDate(0, 0, 2),
		},
	}
	return invoice, lines, payments
}

func TestBuildSnapshotFreezesLedgerFacts(t *testing.T) {
	invoice, lines, payments := fixtureInvoice()
	now := time.Date(2026, 3, 12, 15, 30, 0, 0, time.UTC)

	snapshot := BuildSnapshot(invoice, lines, payments, now)

	assert.Equal(t, SnapshotVersionV1, snapshot.SnapshotVersion)
	assert.Equal(t, "1001", snapshot.InvoiceID)
	assert.Equal(t, "INV-000042", snapshot.InvoiceNumber)
	require.Len(t, snapshot.LineItems, 1)
	assert.Equal(t, "2", snapshot.LineItems[0].Quantity)
	assert.Equal(t, int64(10500), snapshot.Totals.TotalMinor)
	require.Len(t, snapshot.Payments, 1)
	assert.Equal(t, "MOBILE_MONEY", snapshot.Payments[0].Method)
	assert.Equal(t, "Ama Mensah", snapshot.Customer.Name)
	assert.Equal(t, "+233201234567", snapshot.Customer.Phone)
	assert.Equal(t, now, snapshot.CreatedAt)
}

func TestBuildSnapshotIsDeterministic(t *testing.T) {
	invoice, lines, payments := fixtureInvoice()
	now := time.Date(2026, 3, 12, 15, 30, 0, 0, time.UTC)

	fpA, formA, err := canonical.Compute(BuildSnapshot(invoice, lines, payments, now))
	require.NoError(t, err)
	fpB, formB, err := canonical.Compute(BuildSnapshot(invoice, lines, payments, now))
	require.NoError(t, err)

	assert.Equal(t, formA, formB)
	assert.Equal(t, fpA.Hash, fpB.Hash)

	// Any ledger fact change must change the hash.
	invoice.TotalAmount++
	fpC, _, err := canonical.Compute(BuildSnapshot(invoice, lines, payments, now))
	require.NoError(t, err)
	assert.NotEqual(t, fpA.Hash, fpC.Hash)
}

func TestDecodeSnapshotRoundTrip(t *testing.T) {
	invoice, lines, payments := fixtureInvoice()
	snapshot := BuildSnapshot(invoice, lines, payments, time.Now().UTC())

	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, snapshot, decoded)
}

func TestDecodeSnapshotRejectsUnknownVersion(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"snapshot_version": 99}`))
	assert.ErrorIs(t, err, ErrUnknownSnapshotVersion)
}

func TestDecodeSnapshotRejectsMalformedInput(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedSnapshot)
}
