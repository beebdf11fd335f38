package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	analyticsdomain "github.com/smallbiznis/invopay/internal/analytics/domain"
	"github.com/smallbiznis/invopay/internal/clock"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAnalytics(t *testing.T, now time.Time) (*gorm.DB, analyticsdomain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&invoicedomain.Invoice{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(now),
	})
	return db, svc, node
}

func seedLedgerInvoice(t *testing.T, db *gorm.DB, node *snowflake.Node, orgID snowflake.ID, status invoicedomain.InvoiceStatus, total, paid int64, issuedAt, dueAt time.Time) {
	t.Helper()

	inv := invoicedomain.Invoice{
		ID:            node.Generate(),
		OrgID:         orgID,
		InvoiceNumber: "INV-" + node.Generate().String(),
		Status:        status,
		Currency:      "GHS",
		IssuerName:    "Kente Studio",
		IssuerEmail:   "billing@kente.example",
		CustomerName:  "Ama Mensah",
		CustomerEmail: "ama@example.com",
		SubtotalAmount: total,
		TotalAmount:    total,
		AmountPaid:     paid,
		IssuedAt:       &issuedAt,
		DueAt:          &dueAt,
	}
	if status == invoicedomain.InvoiceStatusPaid {
		paidAt := issuedAt.AddDate(0, 0, 2)
		inv.PaidAt = &paidAt
	}
	require.NoError(t, db.Create(&inv).Error)
}

func TestOverviewBucketsAndMetrics(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	db, svc, node := setupAnalytics(t, now)
	orgID := node.Generate()

	issued := now.AddDate(0, 0, -10)

	// One current, one attention, one critical, one fully paid.
	seedLedgerInvoice(t, db, node, orgID, invoicedomain.InvoiceStatusSent, 100_000, 0, issued, now.AddDate(0, 0, -5))
	seedLedgerInvoice(t, db, node, orgID, invoicedomain.InvoiceStatusPartial, 200_000, 50_000, issued, now.AddDate(0, 0, -45))
	seedLedgerInvoice(t, db, node, orgID, invoicedomain.InvoiceStatusSent, 300_000, 0, issued, now.AddDate(0, 0, -120))
	seedLedgerInvoice(t, db, node, orgID, invoicedomain.InvoiceStatusPaid, 50_000, 50_000, issued, now.AddDate(0, 0, 5))

	// Draft and void invoices stay out of the ledger view.
	seedLedgerInvoice(t, db, node, orgID, invoicedomain.InvoiceStatusDraft, 999_999, 0, issued, now)
	seedLedgerInvoice(t, db, node, orgID, invoicedomain.InvoiceStatusVoid, 999_999, 0, issued, now)

	overview, err := svc.Overview(context.Background(), orgID)
	require.NoError(t, err)

	assert.Equal(t, "GHS", overview.Currency)
	assert.Equal(t, int64(100_000+150_000+300_000), overview.OutstandingBalance)
	assert.Equal(t, int64(100_000+150_000+300_000), overview.OverdueBalance)
	assert.Equal(t, 3, overview.OverdueCount)
	assert.Equal(t, 0, overview.DueSoonCount)

	byBucket := map[analyticsdomain.Bucket]analyticsdomain.BucketSummary{}
	for _, b := range overview.Buckets {
		byBucket[b.Bucket] = b
	}
	assert.Equal(t, 1, byBucket[analyticsdomain.BucketCurrent].Count)
	assert.Equal(t, 1, byBucket[analyticsdomain.BucketAttention].Count)
	assert.Equal(t, 0, byBucket[analyticsdomain.BucketConcerning].Count)
	assert.Equal(t, 1, byBucket[analyticsdomain.BucketCritical].Count)
	assert.Equal(t, int64(150_000), byBucket[analyticsdomain.BucketAttention].Balance)

	// 650k invoiced, 100k collected.
	assert.Equal(t, 15, overview.CollectionRate)
	// The single paid invoice settled in two days.
	assert.Equal(t, 100, overview.OnTimeRate)
	assert.False(t, overview.DSO.IsZero())
}

func TestOverviewDueSoonWindow(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	db, svc, node := setupAnalytics(t, now)
	orgID := node.Generate()
	issued := now.AddDate(0, 0, -1)

	seedLedgerInvoice(t, db, node, orgID, invoicedomain.InvoiceStatusSent, 10_000, 0, issued, now.AddDate(0, 0, 3))
	seedLedgerInvoice(t, db, node, orgID, invoicedomain.InvoiceStatusSent, 10_000, 0, issued, now.AddDate(0, 0, 10))

	overview, err := svc.Overview(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, 1, overview.DueSoonCount)
	assert.Equal(t, 0, overview.OverdueCount)
}

func TestOverviewEmptyLedger(t *testing.T) {
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	_, svc, node := setupAnalytics(t, now)

	overview, err := svc.Overview(context.Background(), node.Generate())
	require.NoError(t, err)
	assert.Equal(t, int64(0), overview.OutstandingBalance)
	assert.Equal(t, 0, overview.OnTimeRate)
	assert.Equal(t, 0, overview.CollectionRate)
	assert.True(t, overview.DSO.IsZero())
	assert.Len(t, overview.Buckets, 4)
}
