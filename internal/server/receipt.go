package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	receiptdomain "github.com/smallbiznis/invopay/internal/receipt/domain"
)

type receiptResponse struct {
	ReceiptID     string                     `json:"receipt_id"`
	ReceiptNumber string                     `json:"receipt_number"`
	InvoiceID     string                     `json:"invoice_id"`
	PaymentID     string                     `json:"payment_id"`
	Algo          string                     `json:"algo,omitempty"`
	Hash          string                     `json:"hash,omitempty"`
	HashTail      string                     `json:"hash_tail,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
	Snapshot      receiptdomain.SnapshotData `json:"snapshot"`
}

// GetReceiptByID serves the owner view. The organization already proved
// it owns the receipt, so the snapshot goes out unmasked.
func (s *Server) GetReceiptByID(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		return
	}

	receipt, snapshot, err := s.receiptSvc.GetByID(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReceiptResponse(receipt, snapshot))
}

// GetPublicReceipt serves the anonymous view by receipt number. Party
// names, emails and phones are masked before the response leaves.
func (s *Server) GetPublicReceipt(c *gin.Context) {
	receipt, snapshot, err := s.receiptSvc.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReceiptResponse(receipt, maskSnapshot(snapshot)))
}

func newReceiptResponse(receipt receiptdomain.Receipt, snapshot receiptdomain.SnapshotData) receiptResponse {
	return receiptResponse{
		ReceiptID:     receipt.ID.String(),
		ReceiptNumber: receipt.ReceiptNumber,
		InvoiceID:     receipt.InvoiceID.String(),
		PaymentID:     receipt.PaymentID.String(),
		Algo:          receipt.Algo,
		Hash:          receipt.Hash,
		HashTail:      receipt.HashTail,
		CreatedAt:     receipt.CreatedAt,
		Snapshot:      snapshot,
	}
}

func maskSnapshot(snapshot receiptdomain.SnapshotData) receiptdomain.SnapshotData {
	snapshot.Issuer = maskParty(snapshot.Issuer)
	snapshot.Customer = maskParty(snapshot.Customer)
	return snapshot
}

func maskParty(p receiptdomain.SnapshotParty) receiptdomain.SnapshotParty {
	return receiptdomain.SnapshotParty{
		Name:  maskName(p.Name),
		Email: maskEmail(p.Email),
		Phone: maskPhone(p.Phone),
	}
}
