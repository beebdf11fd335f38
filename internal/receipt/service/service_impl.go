package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/invopay/internal/canonical"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/invopay/internal/payment/domain"
	receiptdomain "github.com/smallbiznis/invopay/internal/receipt/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
}

func NewService(p ServiceParam) receiptdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("receipt.service"),
		genID: p.GenID,
	}
}

func (s *Service) CreateForPayment(
	ctx context.Context,
	tx *gorm.DB,
	invoice invoicedomain.Invoice,
	lineItems []invoicedomain.LineItem,
	payments []paymentdomain.Payment,
) (receiptdomain.Receipt, error) {
	if len(payments) == 0 {
		return receiptdomain.Receipt{}, receiptdomain.ErrMalformedSnapshot
	}
	latest := payments[len(payments)-1]

	now := time.Now().UTC()
	snapshot := receiptdomain.BuildSnapshot(invoice, lineItems, payments, now)

	fp, form, err := canonical.Compute(snapshot)
	if err != nil {
		return receiptdomain.Receipt{}, err
	}

	receipt := receiptdomain.Receipt{
		ID:              s.genID.Generate(),
		OrgID:           invoice.OrgID,
		InvoiceID:       invoice.ID,
		PaymentID:       latest.ID,
		ReceiptNumber:   newReceiptNumber(now),
		SnapshotVersion: snapshot.SnapshotVersion,
		Snapshot:        datatypes.JSON([]byte(form)),
		Algo:            fp.Algo,
		Hash:            fp.Hash,
		HashTail:        fp.Tail,
		CreatedAt:       now,
	}

	if err := tx.WithContext(ctx).Create(&receipt).Error; err != nil {
		return receiptdomain.Receipt{}, err
	}

	s.log.Info("receipt snapshot frozen",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.String("hash_tail", receipt.HashTail),
	)
	return receipt, nil
}

func (s *Service) GetByNumber(ctx context.Context, number string) (receiptdomain.Receipt, receiptdomain.SnapshotData, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return receiptdomain.Receipt{}, receiptdomain.SnapshotData{}, receiptdomain.ErrNotFound
	}

	var receipt receiptdomain.Receipt
	err := s.db.WithContext(ctx).
		Where(&receiptdomain.Receipt{ReceiptNumber: number}).
		First(&receipt).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return receiptdomain.Receipt{}, receiptdomain.SnapshotData{}, receiptdomain.ErrNotFound
		}
		return receiptdomain.Receipt{}, receiptdomain.SnapshotData{}, err
	}
	return s.withSnapshot(receipt)
}

func (s *Service) GetByID(ctx context.Context, orgID snowflake.ID, id string) (receiptdomain.Receipt, receiptdomain.SnapshotData, error) {
	receiptID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return receiptdomain.Receipt{}, receiptdomain.SnapshotData{}, receiptdomain.ErrNotFound
	}

	var receipt receiptdomain.Receipt
	err = s.db.WithContext(ctx).
		Where(&receiptdomain.Receipt{ID: receiptID, OrgID: orgID}).
		First(&receipt).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return receiptdomain.Receipt{}, receiptdomain.SnapshotData{}, receiptdomain.ErrNotFound
		}
		return receiptdomain.Receipt{}, receiptdomain.SnapshotData{}, err
	}
	return s.withSnapshot(receipt)
}

func (s *Service) withSnapshot(receipt receiptdomain.Receipt) (receiptdomain.Receipt, receiptdomain.SnapshotData, error) {
	data, err := receiptdomain.DecodeSnapshot(receipt.Snapshot)
	if err != nil {
		return receiptdomain.Receipt{}, receiptdomain.SnapshotData{}, err
	}
	return receipt, data, nil
}

func newReceiptNumber(now time.Time) string {
	return "RCT-" + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
