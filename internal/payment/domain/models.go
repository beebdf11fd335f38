// Package domain contains payment persistence models and contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Method is the payment rail a payment arrived on.
type Method string

const (
	MethodMobileMoney  Method = "MOBILE_MONEY"
	MethodCard         Method = "CARD"
	MethodBankTransfer Method = "BANK_TRANSFER"
	MethodCash         Method = "CASH"
)

// Payment is one amount allocated against an invoice. Amount is integer
// minor units in the invoice currency.
type Payment struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"not null;index"`
	InvoiceID snowflake.ID `gorm:"not null;index"`

	Amount    int64  `gorm:"not null"`
	Currency  string `gorm:"type:text;not null"`
	Method    string `gorm:"type:text;not null"`
	Reference string `gorm:"type:text;not null;uniqueIndex:ux_payment_reference"`

	PaidAt    time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// ValidMethod reports whether m names a supported payment rail.
func ValidMethod(m Method) bool {
	switch m {
	case MethodMobileMoney, MethodCard, MethodBankTransfer, MethodCash:
		return true
	default:
		return false
	}
}
