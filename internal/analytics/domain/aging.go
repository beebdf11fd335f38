// Package domain computes receivables aging and collection metrics. All
// functions are pure over already-materialized ledger facts.
package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
)

// Bucket classifies an unpaid invoice by days past due. Buckets are
// derived at query time against a reference date, never stored.
type Bucket string

const (
	BucketCurrent    Bucket = "current"
	BucketAttention  Bucket = "attention"
	BucketConcerning Bucket = "concerning"
	BucketCritical   Bucket = "critical"
)

// Label is a short human description of the bucket's day range.
func (b Bucket) Label() string {
	switch b {
	case BucketAttention:
		return "31-60 days overdue"
	case BucketConcerning:
		return "61-90 days overdue"
	case BucketCritical:
		return "over 90 days overdue"
	default:
		return "0-30 days"
	}
}

// DaysBetween is the signed calendar-day difference from a to b, using
// only the date components. Time of day and timezone offsets within a
// day never shift the result.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// BucketFor classifies dueAt against the reference date. daysOverdue is
// signed and may be negative for invoices not yet due, which still land
// in the current bucket.
func BucketFor(dueAt, reference time.Time) (Bucket, int) {
	days := DaysBetween(dueAt, reference)
	switch {
	case days <= 30:
		return BucketCurrent, days
	case days <= 60:
		return BucketAttention, days
	case days <= 90:
		return BucketConcerning, days
	default:
		return BucketCritical, days
	}
}

// IsOverdue reports whether an unpaid balance is past due. An invoice
// due today is not yet overdue.
func IsOverdue(dueAt time.Time, balanceMinor int64, reference time.Time) bool {
	return balanceMinor > 0 && DaysBetween(dueAt, reference) > 0
}

// IsDueSoon reports whether dueAt falls strictly between today and
// today+withinDays. Due today or already overdue does not count.
func IsDueSoon(dueAt time.Time, withinDays int, reference time.Time) bool {
	until := DaysBetween(reference, dueAt)
	return until > 0 && until < withinDays
}

// DSO is days sales outstanding over a period, rounded to one decimal
// place. Zero sales yields zero rather than a division error.
func DSO(outstandingMinor, totalSalesMinor int64, periodDays int) decimal.Decimal {
	if totalSalesMinor == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(outstandingMinor).
		Div(decimal.NewFromInt(totalSalesMinor)).
		Mul(decimal.NewFromInt(int64(periodDays))).
		Round(1)
}

// OnTimeRate is the integer percentage of paid invoices settled within
// thresholdDays of issue. No paid invoices yields zero.
func OnTimeRate(invoices []invoicedomain.Invoice, thresholdDays int) int {
	var paid, onTime int
	for _, inv := range invoices {
		if inv.Status != invoicedomain.InvoiceStatusPaid || inv.PaidAt == nil || inv.IssuedAt == nil {
			continue
		}
		paid++
		if DaysBetween(*inv.IssuedAt, *inv.PaidAt) <= thresholdDays {
			onTime++
		}
	}
	if paid == 0 {
		return 0
	}
	return int(math.Round(100 * float64(onTime) / float64(paid)))
}

// CollectionRate is the integer percentage of invoiced value collected.
// Nothing invoiced yields zero.
func CollectionRate(collectedMinor, invoicedMinor int64) int {
	if invoicedMinor == 0 {
		return 0
	}
	return int(math.Round(100 * float64(collectedMinor) / float64(invoicedMinor)))
}
