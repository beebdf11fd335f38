package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/invopay/internal/payment/domain"
	"gorm.io/gorm"
)

// Service freezes and serves receipt snapshots.
type Service interface {
	// CreateForPayment builds the snapshot for a just-recorded payment and
	// persists it together with its fingerprint inside the caller's
	// transaction. The snapshot, canonical form and hash are one unit;
	// they are never written separately.
	CreateForPayment(
		ctx context.Context,
		tx *gorm.DB,
		invoice invoicedomain.Invoice,
		lineItems []invoicedomain.LineItem,
		payments []paymentdomain.Payment,
	) (Receipt, error)

	// GetByNumber loads a receipt for the public (masked) view.
	GetByNumber(ctx context.Context, number string) (Receipt, SnapshotData, error)

	// GetByID loads a receipt for an owning organization.
	GetByID(ctx context.Context, orgID snowflake.ID, id string) (Receipt, SnapshotData, error)
}
