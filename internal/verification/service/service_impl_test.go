package service

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/invopay/internal/canonical"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/invopay/internal/payment/domain"
	receiptdomain "github.com/smallbiznis/invopay/internal/receipt/domain"
	verificationdomain "github.com/smallbiznis/invopay/internal/verification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupVerifier(t *testing.T) (*gorm.DB, verificationdomain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&receiptdomain.Receipt{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{DB: db, Log: zap.NewNop()})
	return db, svc, node
}

// seedReceipt freezes a snapshot the same way the payment path does and
// stores it, optionally without the fingerprint to simulate legacy rows.
func seedReceipt(t *testing.T, db *gorm.DB, node *snowflake.Node, withHash bool) (receiptdomain.Receipt, string) {
	t.Helper()

	now := time.Now().UTC()
	issued := now.Add(-24 * time.Hour)
	invoice := invoicedomain.Invoice{
		ID:            node.Generate(),
		OrgID:         node.Generate(),
		InvoiceNumber: "INV-" + node.Generate().String(),
		Status:        invoicedomain.InvoiceStatusPaid,
		Currency:      "GHS",
		IssuerName:    "Kente Studio",
		IssuerEmail:   "billing@kente.example",
		CustomerName:  "Ama Mensah",
		CustomerEmail: "ama@example.com",
		SubtotalAmount: 70250,
		TotalAmount:    70250,
		IssuedAt:       &issued,
	}
	payments := []paymentdomain.Payment{{
		ID:        node.Generate(),
		OrgID:     invoice.OrgID,
		InvoiceID: invoice.ID,
		Amount:    70250,
		Currency:  "GHS",
		Method:    string(paymentdomain.MethodMobileMoney),
		Reference: "REF-" + node.Generate().String(),
		PaidAt:    now,
	}}

	snapshot := receiptdomain.BuildSnapshot(invoice, nil, payments, now)
	fp, form, err := canonical.Compute(snapshot)
	require.NoError(t, err)

	receipt := receiptdomain.Receipt{
		ID:              node.Generate(),
		OrgID:           invoice.OrgID,
		InvoiceID:       invoice.ID,
		PaymentID:       payments[0].ID,
		ReceiptNumber:   "RCT-" + node.Generate().String(),
		SnapshotVersion: snapshot.SnapshotVersion,
		Snapshot:        datatypes.JSON([]byte(form)),
		CreatedAt:       now,
	}
	if withHash {
		receipt.Algo = fp.Algo
		receipt.Hash = fp.Hash
		receipt.HashTail = fp.Tail
	}
	require.NoError(t, db.Create(&receipt).Error)
	return receipt, fp.Hash
}

func TestVerifyExactHashMatch(t *testing.T) {
	db, svc, node := setupVerifier(t)
	receipt, hash := seedReceipt(t, db, node, true)

	result, err := svc.Verify(context.Background(), hash)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.NotNil(t, result.Match)
	assert.Equal(t, receipt.ID, result.Match.Receipt.ID)
	assert.Equal(t, int64(70250), result.Match.Snapshot.Totals.TotalMinor)
	assert.Equal(t, canonical.Algorithm, result.Match.Fingerprint.Algo)
	assert.Equal(t, hash, result.Match.Fingerprint.Hash)
	assert.Equal(t, canonical.Tail(hash), result.Match.Fingerprint.Tail)
}

func TestVerifyTailMatch(t *testing.T) {
	db, svc, node := setupVerifier(t)
	receipt, hash := seedReceipt(t, db, node, true)

	result, err := svc.Verify(context.Background(), hash[len(hash)-canonical.TailLength:])
	require.NoError(t, err)
	require.True(t, result.Valid)
	assert.Equal(t, receipt.ID, result.Match.Receipt.ID)
}

func TestVerifyLongerSuffixFallsBackToScan(t *testing.T) {
	db, svc, node := setupVerifier(t)
	receipt, hash := seedReceipt(t, db, node, true)

	// A 20-character suffix misses the indexed lookup but is still a
	// valid partial code for the scan pass.
	result, err := svc.Verify(context.Background(), hash[len(hash)-20:])
	require.NoError(t, err)
	require.True(t, result.Valid)
	assert.Equal(t, receipt.ID, result.Match.Receipt.ID)
}

func TestVerifyLegacyReceiptByRecomputation(t *testing.T) {
	db, svc, node := setupVerifier(t)
	receipt, hash := seedReceipt(t, db, node, false)

	result, err := svc.Verify(context.Background(), hash)
	require.NoError(t, err)
	require.True(t, result.Valid)
	assert.Equal(t, receipt.ID, result.Match.Receipt.ID)

	// The row has no stored hash, so the match must carry the
	// recomputed fingerprint rather than empty columns.
	assert.Equal(t, canonical.Algorithm, result.Match.Fingerprint.Algo)
	assert.Equal(t, hash, result.Match.Fingerprint.Hash)
	assert.Equal(t, canonical.Tail(hash), result.Match.Fingerprint.Tail)
}

func TestVerifyScanStopsAtLimit(t *testing.T) {
	db, svc, node := setupVerifier(t)
	_, hash := seedReceipt(t, db, node, true)

	// Bury the target under a full window of newer receipts so the
	// bounded scan never reaches it.
	base := time.Now().UTC().Add(time.Hour)
	flood := make([]receiptdomain.Receipt, 0, verificationdomain.FallbackScanLimit)
	for i := 0; i < verificationdomain.FallbackScanLimit; i++ {
		other := canonical.SHA256Hex([]byte(strconv.Itoa(i)))
		flood = append(flood, receiptdomain.Receipt{
			ID:              node.Generate(),
			OrgID:           node.Generate(),
			InvoiceID:       node.Generate(),
			PaymentID:       node.Generate(),
			ReceiptNumber:   "RCT-" + node.Generate().String(),
			SnapshotVersion: 1,
			Snapshot:        datatypes.JSON([]byte(`{"snapshot_version":1}`)),
			Algo:            canonical.Algorithm,
			Hash:            other,
			HashTail:        canonical.Tail(other),
			CreatedAt:       base.Add(time.Duration(i) * time.Second),
		})
	}
	require.NoError(t, db.CreateInBatches(&flood, 200).Error)

	// A 20-character suffix skips the indexed lookup, and the scan
	// window now holds only the newer receipts.
	result, err := svc.Verify(context.Background(), hash[len(hash)-20:])
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Nil(t, result.Match)
}

func TestVerifyNormalizesInput(t *testing.T) {
	db, svc, node := setupVerifier(t)
	_, hash := seedReceipt(t, db, node, true)

	result, err := svc.Verify(context.Background(), "  "+strings.ToUpper(hash)+"\n")
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestVerifyMissIsNotAnError(t *testing.T) {
	db, svc, node := setupVerifier(t)
	seedReceipt(t, db, node, true)

	result, err := svc.Verify(context.Background(), "deadbeefdeadbeef")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Nil(t, result.Match)
}

func TestVerifyRejectsShortCodes(t *testing.T) {
	_, svc, _ := setupVerifier(t)

	_, err := svc.Verify(context.Background(), "abc123")
	assert.ErrorIs(t, err, verificationdomain.ErrCodeTooShort)
}
