// Package domain defines the public receipt verification contract.
package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/invopay/internal/canonical"
	receiptdomain "github.com/smallbiznis/invopay/internal/receipt/domain"
)

// MinInputLength is the shortest code the verifier will consider. Codes
// shorter than this match too many receipts to mean anything.
const MinInputLength = 8

// FallbackScanLimit caps how many recent receipts the fallback pass may
// load when the indexed lookup finds nothing. Keeps the worst case
// bounded no matter how large the receipts table grows.
const FallbackScanLimit = 1000

var (
	// ErrCodeTooShort is the only verification failure that gets an
	// explanation. Every other miss is reported as a plain no-match so
	// the endpoint cannot be used to probe for stored hashes.
	ErrCodeTooShort = errors.New("verification_code_too_short")
)

// Match is the receipt a verification code resolved to. Fingerprint is
// the stored one when the row carries it, or the recomputed one for
// legacy rows, so callers always get algo/hash/tail.
type Match struct {
	Receipt     receiptdomain.Receipt
	Snapshot    receiptdomain.SnapshotData
	Fingerprint canonical.Fingerprint
}

// Result is the outcome of one verification attempt. A miss is a normal
// result, not an error.
type Result struct {
	Valid bool
	Match *Match
}

// Service resolves user-supplied verification codes to receipts.
type Service interface {
	// Verify normalizes input and looks it up, first against stored
	// fingerprints, then by a bounded scan over recent receipts.
	Verify(ctx context.Context, input string) (Result, error)
}
