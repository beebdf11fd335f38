// Package domain contains the receipt snapshot record and its versioned
// canonical data shape.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SnapshotVersionV1 is the only snapshot format in production today.
// Any change to the canonical shape requires a new version constant, a
// new typed struct and a new DecodeSnapshot branch.
const SnapshotVersionV1 = 1

// Receipt stores the frozen snapshot of a payment event together with
// its verification fingerprint. The canonical form, hash and tail are
// written in the same transaction as the snapshot; a row with one but
// not the other indicates a persistence bug upstream.
type Receipt struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	OrgID         snowflake.ID `gorm:"not null;index"`
	InvoiceID     snowflake.ID `gorm:"not null;index"`
	PaymentID     snowflake.ID `gorm:"not null;uniqueIndex:ux_receipt_payment"`
	ReceiptNumber string       `gorm:"type:text;not null;uniqueIndex:ux_receipt_number"`

	SnapshotVersion int            `gorm:"not null;default:1"`
	Snapshot        datatypes.JSON `gorm:"type:jsonb;not null"`

	Algo     string `gorm:"type:text"`
	Hash     string `gorm:"type:text;index"`
	HashTail string `gorm:"type:text;index"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// TableName sets the database table name.
func (Receipt) TableName() string { return "receipts" }

// HasStoredHash reports whether the fingerprint was persisted at write
// time. Legacy rows created before hash-at-write-time lack it and are
// verified by recomputation.
func (r Receipt) HasStoredHash() bool {
	return r.Hash != ""
}

// SnapshotLineItem is one invoice line frozen into a snapshot.
type SnapshotLineItem struct {
	Label           string `json:"label"`
	Quantity        string `json:"quantity"`
	UnitAmountMinor int64  `json:"unit_amount_minor"`
	TotalMinor      int64  `json:"total_minor"`
}

// SnapshotTotals is the invoice total breakdown frozen into a snapshot.
type SnapshotTotals struct {
	SubtotalMinor        int64 `json:"subtotal_minor"`
	ItemTaxMinor         int64 `json:"item_tax_minor"`
	ItemDiscountMinor    int64 `json:"item_discount_minor"`
	InvoiceDiscountMinor int64 `json:"invoice_discount_minor"`
	InvoiceTaxMinor      int64 `json:"invoice_tax_minor"`
	TotalMinor           int64 `json:"total_minor"`
}

// SnapshotPayment is one payment applied to the invoice at snapshot time.
type SnapshotPayment struct {
	AmountMinor int64     `json:"amount_minor"`
	Method      string    `json:"method"`
	Reference   string    `json:"reference"`
	PaidAt      time.Time `json:"paid_at"`
}

// SnapshotParty identifies the issuer or the customer. These are the
// real, unmasked ledger facts; masking applies only on display paths.
type SnapshotParty struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SnapshotData is the v1 canonical receipt structure. It is assembled
// exactly once when a payment is recorded and never mutated; corrections
// require a new snapshot under a new version, not an edit.
type SnapshotData struct {
	SnapshotVersion int    `json:"snapshot_version"`
	InvoiceID       string `json:"invoice_id"`
	InvoiceNumber   string `json:"invoice_number"`
	Currency        string `json:"currency"`

	IssuedAt *time.Time `json:"issued_at"`
	DueAt    *time.Time `json:"due_at"`

	LineItems []SnapshotLineItem `json:"line_items"`
	Totals    SnapshotTotals     `json:"totals"`
	Payments  []SnapshotPayment  `json:"payments"`

	Issuer   SnapshotParty `json:"issuer"`
	Customer SnapshotParty `json:"customer"`

	CreatedAt time.Time `json:"created_at"`
}
