// Package domain contains persistence models and contracts for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusSent    InvoiceStatus = "SENT"
	InvoiceStatusPartial InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusVoid    InvoiceStatus = "VOID"
)

// Invoice is a ledger invoice. All monetary columns are integer minor
// units in one currency; totals are frozen once the invoice is sent.
type Invoice struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	OrgID         snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_invoice_number,priority:1"`
	InvoiceNumber string        `gorm:"type:text;not null;uniqueIndex:ux_invoice_number,priority:2"`
	Status        InvoiceStatus `gorm:"type:text;not null;default:'DRAFT'"`
	Currency      string        `gorm:"type:text;not null"`

	IssuerName    string `gorm:"type:text;not null"`
	IssuerEmail   string `gorm:"type:text;not null"`
	IssuerPhone   string `gorm:"type:text;not null;default:''"`
	CustomerName  string `gorm:"type:text;not null"`
	CustomerEmail string `gorm:"type:text;not null"`
	CustomerPhone string `gorm:"type:text;not null;default:''"`

	SubtotalAmount        int64 `gorm:"not null;default:0"`
	ItemTaxAmount         int64 `gorm:"not null;default:0"`
	ItemDiscountAmount    int64 `gorm:"not null;default:0"`
	InvoiceDiscountAmount int64 `gorm:"not null;default:0"`
	InvoiceTaxRateBps     int64 `gorm:"not null;default:0"`
	InvoiceTaxAmount      int64 `gorm:"not null;default:0"`
	TotalAmount           int64 `gorm:"not null;default:0"`
	AmountPaid            int64 `gorm:"not null;default:0"`

	IssuedAt *time.Time `gorm:""`
	DueAt    *time.Time `gorm:""`
	PaidAt   *time.Time `gorm:""`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`

	LineItems []LineItem `gorm:"foreignKey:InvoiceID"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// BalanceDue is the unpaid remainder, never negative.
func (i Invoice) BalanceDue() int64 {
	balance := i.TotalAmount - i.AmountPaid
	if balance < 0 {
		return 0
	}
	return balance
}

// LineItem is one line on an invoice. Quantity is a decimal because
// hourly billing produces fractional counts; the derived subtotal, tax
// and total columns are computed once at write time.
type LineItem struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"not null;index"`
	InvoiceID snowflake.ID `gorm:"not null;index"`

	Label          string          `gorm:"type:text;not null"`
	Quantity       decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	UnitAmount     int64           `gorm:"not null"`
	TaxRateBps     int64           `gorm:"not null;default:0"`
	DiscountAmount int64           `gorm:"not null;default:0"`

	SubtotalAmount int64 `gorm:"not null"`
	TaxAmount      int64 `gorm:"not null"`
	TotalAmount    int64 `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LineItem) TableName() string { return "invoice_line_items" }
