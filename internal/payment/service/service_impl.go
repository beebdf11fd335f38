package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
	"github.com/smallbiznis/invopay/internal/money"
	paymentdomain "github.com/smallbiznis/invopay/internal/payment/domain"
	receiptdomain "github.com/smallbiznis/invopay/internal/receipt/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	ReceiptSvc receiptdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	receiptSvc receiptdomain.Service
}

func NewService(p ServiceParam) paymentdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		receiptSvc: p.ReceiptSvc,
	}
}

// Record allocates a payment against an invoice and freezes the receipt
// snapshot in the same transaction. The snapshot and its hash are
// persisted as one unit; a payment without a receipt never commits.
func (s *Service) Record(ctx context.Context, orgID snowflake.ID, req paymentdomain.RecordPaymentRequest) (paymentdomain.RecordPaymentResult, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil {
		return paymentdomain.RecordPaymentResult{}, invoicedomain.ErrInvalidInvoiceID
	}

	if err := money.ValidateAmount(req.Amount); err != nil {
		return paymentdomain.RecordPaymentResult{}, err
	}
	if req.Amount == 0 {
		return paymentdomain.RecordPaymentResult{}, paymentdomain.ErrInvalidAmount
	}
	if !paymentdomain.ValidMethod(req.Method) {
		return paymentdomain.RecordPaymentResult{}, paymentdomain.ErrInvalidMethod
	}

	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = uuid.NewString()
	}

	now := time.Now().UTC()
	paidAt := now
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}

	var result paymentdomain.RecordPaymentResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice invoicedomain.Invoice
		if err := tx.WithContext(ctx).
			Where(&invoicedomain.Invoice{ID: invoiceID, OrgID: orgID}).
			First(&invoice).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return invoicedomain.ErrNotFound
			}
			return err
		}

		switch invoice.Status {
		case invoicedomain.InvoiceStatusSent, invoicedomain.InvoiceStatusPartial:
		default:
			return invoicedomain.ErrNotPayable
		}

		if req.Currency != "" && !strings.EqualFold(req.Currency, invoice.Currency) {
			return paymentdomain.ErrCurrencyMismatch
		}

		payment := paymentdomain.Payment{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			InvoiceID: invoice.ID,
			Amount:    req.Amount,
			Currency:  invoice.Currency,
			Method:    string(req.Method),
			Reference: reference,
			PaidAt:    paidAt,
			CreatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
			return err
		}

		var payments []paymentdomain.Payment
		if err := tx.WithContext(ctx).
			Where(&paymentdomain.Payment{InvoiceID: invoice.ID, OrgID: orgID}).
			Order("paid_at ASC").
			Find(&payments).Error; err != nil {
			return err
		}

		amounts := make([]int64, 0, len(payments))
		var paid int64
		for _, p := range payments {
			amounts = append(amounts, p.Amount)
			paid += p.Amount
		}
		balance := money.BalanceDue(invoice.TotalAmount, amounts)

		status := invoicedomain.InvoiceStatusPartial
		var paidAtCol *time.Time
		if balance == 0 {
			status = invoicedomain.InvoiceStatusPaid
			paidAtCol = &paidAt
		}
		if err := tx.WithContext(ctx).Exec(
			`UPDATE invoices
			 SET status = ?, amount_paid = ?, paid_at = ?, updated_at = ?
			 WHERE id = ?`,
			status,
			paid,
			paidAtCol,
			now,
			invoice.ID,
		).Error; err != nil {
			return err
		}
		invoice.Status = status
		invoice.AmountPaid = paid

		var lineItems []invoicedomain.LineItem
		if err := tx.WithContext(ctx).
			Where(&invoicedomain.LineItem{InvoiceID: invoice.ID, OrgID: orgID}).
			Order("created_at ASC").
			Find(&lineItems).Error; err != nil {
			return err
		}

		receipt, err := s.receiptSvc.CreateForPayment(ctx, tx, invoice, lineItems, payments)
		if err != nil {
			return err
		}

		result = paymentdomain.RecordPaymentResult{
			Payment:       payment,
			ReceiptID:     receipt.ID,
			ReceiptNumber: receipt.ReceiptNumber,
			ReceiptHash:   receipt.Hash,
			BalanceDue:    balance,
			InvoiceStatus: string(status),
		}
		return nil
	})
	if err != nil {
		return paymentdomain.RecordPaymentResult{}, err
	}

	s.log.Info("payment recorded",
		zap.String("invoice_id", req.InvoiceID),
		zap.Int64("amount", req.Amount),
		zap.String("method", string(req.Method)),
		zap.String("receipt_number", result.ReceiptNumber),
	)
	return result, nil
}
