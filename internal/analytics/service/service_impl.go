package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/smallbiznis/invopay/internal/analytics/domain"
	"github.com/smallbiznis/invopay/internal/clock"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p ServiceParam) analyticsdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("analytics.service"),
		clock: p.Clock,
	}
}

// Overview classifies every open invoice into an aging bucket and folds
// the ledger into the four aggregate collection metrics. Everything is
// derived against the clock's current date; nothing is persisted.
func (s *Service) Overview(ctx context.Context, orgID snowflake.ID) (analyticsdomain.Overview, error) {
	var invoices []invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND status NOT IN ?", orgID, []invoicedomain.InvoiceStatus{
			invoicedomain.InvoiceStatusDraft,
			invoicedomain.InvoiceStatusVoid,
		}).
		Order("created_at ASC").
		Find(&invoices).Error
	if err != nil {
		return analyticsdomain.Overview{}, err
	}

	now := s.clock.Now()
	periodStart := now.AddDate(0, 0, -analyticsdomain.DefaultPeriodDays)

	summaries := map[analyticsdomain.Bucket]*analyticsdomain.BucketSummary{}
	for _, b := range []analyticsdomain.Bucket{
		analyticsdomain.BucketCurrent,
		analyticsdomain.BucketAttention,
		analyticsdomain.BucketConcerning,
		analyticsdomain.BucketCritical,
	} {
		summaries[b] = &analyticsdomain.BucketSummary{Bucket: b, Label: b.Label()}
	}

	overview := analyticsdomain.Overview{}
	var periodSales, collected, invoiced int64
	for _, inv := range invoices {
		if overview.Currency == "" {
			overview.Currency = inv.Currency
		}
		invoiced += inv.TotalAmount
		collected += inv.AmountPaid
		if inv.IssuedAt != nil && !inv.IssuedAt.Before(periodStart) {
			periodSales += inv.TotalAmount
		}

		balance := inv.BalanceDue()
		if balance == 0 {
			continue
		}
		overview.OutstandingBalance += balance

		if inv.DueAt == nil {
			continue
		}
		bucket, days := analyticsdomain.BucketFor(*inv.DueAt, now)
		summary := summaries[bucket]
		summary.Count++
		summary.Balance += balance
		overview.Aging = append(overview.Aging, analyticsdomain.InvoiceAging{
			InvoiceID:     inv.ID.String(),
			InvoiceNumber: inv.InvoiceNumber,
			Bucket:        bucket,
			DaysOverdue:   days,
			Balance:       balance,
		})

		if analyticsdomain.IsOverdue(*inv.DueAt, balance, now) {
			overview.OverdueCount++
			overview.OverdueBalance += balance
		}
		if analyticsdomain.IsDueSoon(*inv.DueAt, analyticsdomain.DefaultDueSoonDays, now) {
			overview.DueSoonCount++
		}
	}

	for _, b := range []analyticsdomain.Bucket{
		analyticsdomain.BucketCurrent,
		analyticsdomain.BucketAttention,
		analyticsdomain.BucketConcerning,
		analyticsdomain.BucketCritical,
	} {
		overview.Buckets = append(overview.Buckets, *summaries[b])
	}

	overview.DSO = analyticsdomain.DSO(overview.OutstandingBalance, periodSales, analyticsdomain.DefaultPeriodDays)
	overview.OnTimeRate = analyticsdomain.OnTimeRate(invoices, analyticsdomain.DefaultOnTimeThresholdDays)
	overview.CollectionRate = analyticsdomain.CollectionRate(collected, invoiced)
	return overview, nil
}
