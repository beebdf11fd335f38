package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// DefaultPeriodDays is the lookback window for DSO and sales volume.
const DefaultPeriodDays = 30

// DefaultOnTimeThresholdDays is how quickly a paid invoice must settle
// after issue to count as on time.
const DefaultOnTimeThresholdDays = 3

// DefaultDueSoonDays is the horizon for the due-soon counter.
const DefaultDueSoonDays = 7

// BucketSummary aggregates the unpaid invoices in one aging bucket.
type BucketSummary struct {
	Bucket  Bucket `json:"bucket"`
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Balance int64  `json:"balance_minor"`
}

// InvoiceAging is the bucket classification of one unpaid invoice.
type InvoiceAging struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	Bucket        Bucket `json:"bucket"`
	DaysOverdue   int    `json:"days_overdue"`
	Balance       int64  `json:"balance_minor"`
}

// Overview is the receivables health report for one organization.
type Overview struct {
	Currency string `json:"currency"`

	OutstandingBalance int64 `json:"outstanding_balance_minor"`
	OverdueBalance     int64 `json:"overdue_balance_minor"`
	OverdueCount       int   `json:"overdue_count"`
	DueSoonCount       int   `json:"due_soon_count"`

	Buckets []BucketSummary `json:"buckets"`
	Aging   []InvoiceAging  `json:"aging"`

	DSO            decimal.Decimal `json:"dso"`
	OnTimeRate     int             `json:"on_time_rate_pct"`
	CollectionRate int             `json:"collection_rate_pct"`
}

// Service computes receivables analytics from the invoice ledger.
type Service interface {
	Overview(ctx context.Context, orgID snowflake.ID) (Overview, error)
}
