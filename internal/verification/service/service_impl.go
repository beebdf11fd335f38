package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/smallbiznis/invopay/internal/canonical"
	obsmetrics "github.com/smallbiznis/invopay/internal/observability/metrics"
	receiptdomain "github.com/smallbiznis/invopay/internal/receipt/domain"
	verificationdomain "github.com/smallbiznis/invopay/internal/verification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) verificationdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("verification.service"),
		metrics: p.Metrics,
	}
}

// Verify resolves a user-supplied code to a receipt. The fast path is an
// indexed equality lookup on the stored hash and its tail; only when
// that misses do we fall back to a bounded scan over recent receipts,
// which also covers legacy rows that predate hash-at-write-time.
func (s *Service) Verify(ctx context.Context, input string) (verificationdomain.Result, error) {
	code := strings.ToLower(strings.TrimSpace(input))
	if len(code) < verificationdomain.MinInputLength {
		return verificationdomain.Result{}, verificationdomain.ErrCodeTooShort
	}

	match, err := s.lookupStored(ctx, code)
	if err != nil {
		return verificationdomain.Result{}, err
	}
	var fp canonical.Fingerprint
	if match != nil {
		fp = storedFingerprint(match)
	} else {
		match, fp, err = s.scanRecent(ctx, code)
		if err != nil {
			return verificationdomain.Result{}, err
		}
	}
	if match == nil {
		return verificationdomain.Result{Valid: false}, nil
	}

	snapshot, err := receiptdomain.DecodeSnapshot(match.Snapshot)
	if err != nil {
		return verificationdomain.Result{}, err
	}
	return verificationdomain.Result{
		Valid: true,
		Match: &verificationdomain.Match{Receipt: *match, Snapshot: snapshot, Fingerprint: fp},
	}, nil
}

func storedFingerprint(r *receiptdomain.Receipt) canonical.Fingerprint {
	return canonical.Fingerprint{Algo: r.Algo, Hash: r.Hash, Tail: r.HashTail}
}

func (s *Service) lookupStored(ctx context.Context, code string) (*receiptdomain.Receipt, error) {
	var receipt receiptdomain.Receipt
	err := s.db.WithContext(ctx).
		Where("hash = ? OR hash_tail = ?", code, code).
		Order("created_at DESC").
		First(&receipt).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// scanRecent walks the most recent receipts once, newest first, checking
// each against the code. Stored hashes match by equality or suffix;
// rows without one are verified by recomputing the fingerprint from the
// frozen snapshot, and that recomputed fingerprint travels with the
// match so legacy rows still report algo/hash/tail.
func (s *Service) scanRecent(ctx context.Context, code string) (*receiptdomain.Receipt, canonical.Fingerprint, error) {
	var receipts []receiptdomain.Receipt
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(verificationdomain.FallbackScanLimit).
		Find(&receipts).Error
	if err != nil {
		return nil, canonical.Fingerprint{}, err
	}

	for i := range receipts {
		r := &receipts[i]
		if r.HasStoredHash() {
			if r.Hash == code || strings.HasSuffix(r.Hash, code) {
				s.metrics.RecordVerifyScanDepth(ctx, i+1)
				return r, storedFingerprint(r), nil
			}
			continue
		}

		if len(r.Snapshot) == 0 {
			s.log.Warn("receipt has neither hash nor snapshot",
				zap.String("receipt_id", r.ID.String()),
			)
			continue
		}
		hash, err := s.recompute(r.Snapshot)
		if err != nil {
			s.log.Warn("receipt snapshot failed recomputation",
				zap.String("receipt_id", r.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if hash == code || strings.HasSuffix(hash, code) {
			s.metrics.RecordVerifyScanDepth(ctx, i+1)
			fp := canonical.Fingerprint{Algo: canonical.Algorithm, Hash: hash, Tail: canonical.Tail(hash)}
			return r, fp, nil
		}
	}
	s.metrics.RecordVerifyScanDepth(ctx, len(receipts))
	return nil, canonical.Fingerprint{}, nil
}

// recompute rebuilds the fingerprint of a stored snapshot. Any embedded
// verification block is stripped first so the hash never covers itself.
func (s *Service) recompute(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return "", err
	}
	form, err := canonical.Canonicalize(canonical.StripVerification(doc))
	if err != nil {
		return "", err
	}
	return canonical.SHA256Hex([]byte(form)), nil
}
