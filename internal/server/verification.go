package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	verificationdomain "github.com/smallbiznis/invopay/internal/verification/domain"
)

type verifyMatch struct {
	ReceiptID     string    `json:"receipt_id"`
	ReceiptNumber string    `json:"receipt_number"`
	InvoiceID     string    `json:"invoice_id"`
	PaymentID     string    `json:"payment_id"`
	CreatedAt     time.Time `json:"created_at"`
	Algo          string    `json:"algo"`
	Hash          string    `json:"hash"`
	HashTail      string    `json:"hash_tail"`
}

type verifyResponse struct {
	Valid bool         `json:"valid"`
	Match *verifyMatch `json:"match,omitempty"`
	Error string       `json:"error,omitempty"`
}

// VerifyReceipt resolves a user-supplied code to a receipt. A miss is a
// 200 with valid=false; only a too-short code gets an explanation, so
// the endpoint stays useless for probing stored hashes.
func (s *Server) VerifyReceipt(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := s.verificationSvc.Verify(ctx, c.Param("hash"))
	if err != nil {
		if errors.Is(err, verificationdomain.ErrCodeTooShort) {
			s.obsMetrics.RecordVerifyLookup(ctx, "rejected")
			c.JSON(http.StatusOK, verifyResponse{
				Valid: false,
				Error: "Verification code is too short. Provide at least 8 characters.",
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	if !result.Valid || result.Match == nil {
		s.obsMetrics.RecordVerifyLookup(ctx, "miss")
		c.JSON(http.StatusOK, verifyResponse{
			Valid: false,
			Error: "No matching receipt found.",
		})
		return
	}

	s.obsMetrics.RecordVerifyLookup(ctx, "hit")
	receipt := result.Match.Receipt
	// Fingerprint, not the row columns: legacy rows have no stored hash
	// and report the recomputed one instead.
	fp := result.Match.Fingerprint
	c.JSON(http.StatusOK, verifyResponse{
		Valid: true,
		Match: &verifyMatch{
			ReceiptID:     receipt.ID.String(),
			ReceiptNumber: receipt.ReceiptNumber,
			InvoiceID:     receipt.InvoiceID.String(),
			PaymentID:     receipt.PaymentID.String(),
			CreatedAt:     receipt.CreatedAt,
			Algo:          fp.Algo,
			Hash:          fp.Hash,
			HashTail:      fp.Tail,
		},
	})
}
