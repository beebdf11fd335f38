package domain

import (
	"encoding/json"
	"fmt"
	"time"

	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/invopay/internal/payment/domain"
)

// BuildSnapshot assembles the point-in-time canonical structure for a
// payment event. Pure: it reads already-materialized ledger facts and
// produces the versioned record that gets canonicalized and hashed.
func BuildSnapshot(
	invoice invoicedomain.Invoice,
	lineItems []invoicedomain.LineItem,
	payments []paymentdomain.Payment,
	now time.Time,
) SnapshotData {
	items := make([]SnapshotLineItem, 0, len(lineItems))
	for _, line := range lineItems {
		items = append(items, SnapshotLineItem{
			Label:           line.Label,
			Quantity:        line.Quantity.String(),
			UnitAmountMinor: line.UnitAmount,
			TotalMinor:      line.TotalAmount,
		})
	}

	applied := make([]SnapshotPayment, 0, len(payments))
	for _, p := range payments {
		applied = append(applied, SnapshotPayment{
			AmountMinor: p.Amount,
			Method:      p.Method,
			Reference:   p.Reference,
			PaidAt:      p.PaidAt.UTC(),
		})
	}

	return SnapshotData{
		SnapshotVersion: SnapshotVersionV1,
		InvoiceID:       invoice.ID.String(),
		InvoiceNumber:   invoice.InvoiceNumber,
		Currency:        invoice.Currency,
		IssuedAt:        invoice.IssuedAt,
		DueAt:           invoice.DueAt,
		LineItems:       items,
		Totals: SnapshotTotals{
			SubtotalMinor:        invoice.SubtotalAmount,
			ItemTaxMinor:         invoice.ItemTaxAmount,
			ItemDiscountMinor:    invoice.ItemDiscountAmount,
			InvoiceDiscountMinor: invoice.InvoiceDiscountAmount,
			InvoiceTaxMinor:      invoice.InvoiceTaxAmount,
			TotalMinor:           invoice.TotalAmount,
		},
		Payments: applied,
		Issuer: SnapshotParty{
			Name:  invoice.IssuerName,
			Email: invoice.IssuerEmail,
			Phone: invoice.IssuerPhone,
		},
		Customer: SnapshotParty{
			Name:  invoice.CustomerName,
			Email: invoice.CustomerEmail,
			Phone: invoice.CustomerPhone,
		},

		CreatedAt: now.UTC(),
	}
}

// DecodeSnapshot parses a stored canonical form back into its typed
// shape, matching exhaustively over known versions. Unknown versions are
// an explicit error, never best-effort field access.
func DecodeSnapshot(raw []byte) (SnapshotData, error) {
	var probe struct {
		SnapshotVersion int `json:"snapshot_version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return SnapshotData{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	switch probe.SnapshotVersion {
	case SnapshotVersionV1:
		var data SnapshotData
		if err := json.Unmarshal(raw, &data); err != nil {
			return SnapshotData{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}
		return data, nil
	default:
		return SnapshotData{}, fmt.Errorf("%w: %d", ErrUnknownSnapshotVersion, probe.SnapshotVersion)
	}
}
