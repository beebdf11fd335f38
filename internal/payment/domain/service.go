package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// RecordPaymentRequest records one payment against an invoice.
type RecordPaymentRequest struct {
	InvoiceID string     `json:"invoice_id" binding:"required"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	Method    Method     `json:"method" binding:"required"`
	Reference string     `json:"reference"`
	PaidAt    *time.Time `json:"paid_at"`
}

// RecordPaymentResult is the payment together with the receipt produced
// by the same transaction.
type RecordPaymentResult struct {
	Payment       Payment      `json:"payment"`
	ReceiptID     snowflake.ID `json:"receipt_id"`
	ReceiptNumber string       `json:"receipt_number"`
	ReceiptHash   string       `json:"receipt_hash"`
	BalanceDue    int64        `json:"balance_due"`
	InvoiceStatus string       `json:"invoice_status"`
}

// Service records payments and freezes receipt snapshots.
type Service interface {
	Record(ctx context.Context, orgID snowflake.ID, req RecordPaymentRequest) (RecordPaymentResult, error)
}
