package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// LineItemRequest is one line of a create request. Monetary fields are
// integer minor units; the tax rate is basis points (0-10000).
type LineItemRequest struct {
	Label          string          `json:"label" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	UnitAmount     int64           `json:"unit_amount"`
	TaxRateBps     int64           `json:"tax_rate_bps"`
	DiscountAmount int64           `json:"discount_amount"`
}

// CreateInvoiceRequest creates a draft invoice with computed totals.
type CreateInvoiceRequest struct {
	Currency              string            `json:"currency"`
	IssuerName            string            `json:"issuer_name" binding:"required"`
	IssuerEmail           string            `json:"issuer_email" binding:"required,email"`
	IssuerPhone           string            `json:"issuer_phone"`
	CustomerName          string            `json:"customer_name" binding:"required"`
	CustomerEmail         string            `json:"customer_email" binding:"required,email"`
	CustomerPhone         string            `json:"customer_phone"`
	LineItems             []LineItemRequest `json:"line_items" binding:"required"`
	InvoiceDiscountAmount int64             `json:"invoice_discount_amount"`
	InvoiceTaxRateBps     int64             `json:"invoice_tax_rate_bps"`
	DueAt                 *time.Time        `json:"due_at"`
	Metadata              map[string]any    `json:"metadata"`
}

// ListInvoiceRequest filters the invoice listing.
type ListInvoiceRequest struct {
	Status      *InvoiceStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	DueFrom     *time.Time
	DueTo       *time.Time
	Limit       int
}

// ListInvoiceResponse carries the matching invoices.
type ListInvoiceResponse struct {
	Invoices []Invoice `json:"invoices"`
}

// Service manages invoice lifecycle and total computation.
type Service interface {
	Create(ctx context.Context, orgID snowflake.ID, req CreateInvoiceRequest) (Invoice, error)
	Finalize(ctx context.Context, orgID snowflake.ID, invoiceID string) (Invoice, error)
	GetByID(ctx context.Context, orgID snowflake.ID, invoiceID string) (Invoice, error)
	List(ctx context.Context, orgID snowflake.ID, req ListInvoiceRequest) (ListInvoiceResponse, error)
}
