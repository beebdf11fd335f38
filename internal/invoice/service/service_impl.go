package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
	"github.com/smallbiznis/invopay/internal/money"
	"github.com/smallbiznis/invopay/pkg/db/option"
	"github.com/smallbiznis/invopay/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	invoicerepo repository.Repository[invoicedomain.Invoice]
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,

		invoicerepo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, orgID snowflake.ID, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if orgID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidOrganization
	}

	currency := money.Currency(strings.ToUpper(strings.TrimSpace(req.Currency)))
	if currency == "" {
		currency = money.DefaultCurrency
	}
	if !money.ValidCurrency(currency) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCurrency
	}

	if len(req.LineItems) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrNoLineItems
	}
	lines := make([]money.LineInput, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		if strings.TrimSpace(item.Label) == "" {
			return invoicedomain.Invoice{}, invoicedomain.ErrNoLineItems
		}
		if !item.Quantity.IsPositive() {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvalidQuantity
		}
		if item.TaxRateBps < 0 || item.TaxRateBps > money.BpsDenominator {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvalidTaxRate
		}
		if err := money.ValidateAmount(item.UnitAmount); err != nil {
			return invoicedomain.Invoice{}, err
		}
		if err := money.ValidateAmount(item.DiscountAmount); err != nil {
			return invoicedomain.Invoice{}, err
		}
		lines = append(lines, money.LineInput{
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitAmount,
			TaxRateBps:     item.TaxRateBps,
			DiscountMinor:  item.DiscountAmount,
		})
	}
	if err := money.ValidateAmount(req.InvoiceDiscountAmount); err != nil {
		return invoicedomain.Invoice{}, err
	}
	if req.InvoiceTaxRateBps < 0 || req.InvoiceTaxRateBps > money.BpsDenominator {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidTaxRate
	}

	totals := money.InvoiceTotals(lines, req.InvoiceDiscountAmount, req.InvoiceTaxRateBps)
	if err := money.ValidateAmount(totals.Total); err != nil {
		return invoicedomain.Invoice{}, err
	}

	now := time.Now().UTC()
	invoice := invoicedomain.Invoice{
		ID:            s.genID.Generate(),
		OrgID:         orgID,
		Status:        invoicedomain.InvoiceStatusDraft,
		Currency:      string(currency),
		IssuerName:    strings.TrimSpace(req.IssuerName),
		IssuerEmail:   strings.TrimSpace(req.IssuerEmail),
		IssuerPhone:   strings.TrimSpace(req.IssuerPhone),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),

		SubtotalAmount:        totals.Subtotal,
		ItemTaxAmount:         totals.ItemTax,
		ItemDiscountAmount:    totals.ItemDiscount,
		InvoiceDiscountAmount: totals.InvoiceDiscount,
		InvoiceTaxRateBps:     req.InvoiceTaxRateBps,
		InvoiceTaxAmount:      totals.InvoiceTax,
		TotalAmount:           totals.Total,

		DueAt:     req.DueAt,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Two concurrent creates for the same org can count the same rows
	// and pick the same number; the loser hits ux_invoice_number and
	// retries with a fresh count.
	var err error
	for attempt := 0; attempt < numberingRetries; attempt++ {
		invoice.LineItems = nil
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := s.nextInvoiceNumber(ctx, tx, orgID)
			if err != nil {
				return err
			}
			invoice.InvoiceNumber = number

			if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
				return err
			}

			for _, item := range req.LineItems {
				lt := money.LineItemTotal(item.Quantity, item.UnitAmount, item.TaxRateBps, item.DiscountAmount)
				line := invoicedomain.LineItem{
					ID:             s.genID.Generate(),
					OrgID:          orgID,
					InvoiceID:      invoice.ID,
					Label:          strings.TrimSpace(item.Label),
					Quantity:       item.Quantity,
					UnitAmount:     item.UnitAmount,
					TaxRateBps:     item.TaxRateBps,
					DiscountAmount: item.DiscountAmount,
					SubtotalAmount: lt.Subtotal,
					TaxAmount:      lt.Tax,
					TotalAmount:    lt.Total,
					CreatedAt:      now,
				}
				if err := tx.WithContext(ctx).Create(&line).Error; err != nil {
					return err
				}
				invoice.LineItems = append(invoice.LineItems, line)
			}
			return nil
		})
		if err == nil || !isUniqueViolation(err) {
			break
		}
		s.log.Warn("invoice number collision, retrying",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Int("attempt", attempt+1),
		)
	}
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int64("total_amount", invoice.TotalAmount),
		zap.String("currency", invoice.Currency),
	)
	return invoice, nil
}

func (s *Service) Finalize(ctx context.Context, orgID snowflake.ID, invoiceID string) (invoicedomain.Invoice, error) {
	id, err := parseID(invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	var finalized invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := loadInvoiceForUpdate(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrNotFound
		}
		if invoice.Status != invoicedomain.InvoiceStatusDraft {
			return invoicedomain.ErrNotDraft
		}

		now := time.Now().UTC()
		if err := tx.WithContext(ctx).Exec(
			`UPDATE invoices
			 SET status = ?, issued_at = ?, updated_at = ?
			 WHERE id = ?`,
			invoicedomain.InvoiceStatusSent,
			now,
			now,
			id,
		).Error; err != nil {
			return err
		}
		invoice.Status = invoicedomain.InvoiceStatusSent
		invoice.IssuedAt = &now
		invoice.UpdatedAt = now
		finalized = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice finalized", zap.String("invoice_id", finalized.ID.String()))
	return finalized, nil
}

func (s *Service) GetByID(ctx context.Context, orgID snowflake.ID, invoiceID string) (invoicedomain.Invoice, error) {
	id, err := parseID(invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	var invoice invoicedomain.Invoice
	err = s.db.WithContext(ctx).
		Preload("LineItems").
		Where(&invoicedomain.Invoice{ID: id, OrgID: orgID}).
		First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
		}
		return invoicedomain.Invoice{}, err
	}
	return invoice, nil
}

func (s *Service) List(ctx context.Context, orgID snowflake.ID, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	if orgID == 0 {
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidOrganization
	}

	filter := &invoicedomain.Invoice{OrgID: orgID}
	if req.Status != nil {
		filter.Status = *req.Status
	}

	options := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true, "due_at": true}}),
	}
	if req.CreatedFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.GTE,
			Value:    *req.CreatedFrom,
		}))
	}
	if req.CreatedTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.LTE,
			Value:    *req.CreatedTo,
		}))
	}
	if req.DueFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "due_at",
			Operator: option.GTE,
			Value:    *req.DueFrom,
		}))
	}
	if req.DueTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "due_at",
			Operator: option.LTE,
			Value:    *req.DueTo,
		}))
	}
	if req.Limit > 0 {
		options = append(options, option.WithLimit(req.Limit))
	}

	items, err := s.invoicerepo.Find(ctx, filter, options...)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoicedomain.ListInvoiceResponse{Invoices: invoices}, nil
}

// numberingRetries bounds how often Create re-runs after losing a
// numbering race to a concurrent create for the same org.
const numberingRetries = 3

// isUniqueViolation matches duplicate-key failures across the
// supported dialects. Gorm only translates these when the driver opts
// in, so the message check stays as a fallback.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}

func (s *Service) nextInvoiceNumber(ctx context.Context, tx *gorm.DB, orgID snowflake.ID) (string, error) {
	var count int64
	if err := tx.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM invoices WHERE org_id = ?`,
		orgID,
	).Scan(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%06d", count+1), nil
}

func loadInvoiceForUpdate(ctx context.Context, tx *gorm.DB, orgID, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM invoices WHERE id = ? AND org_id = ?`,
		id,
		orgID,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
