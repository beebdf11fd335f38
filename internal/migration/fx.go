package migration

import (
	"github.com/smallbiznis/invopay/internal/config"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/invopay/internal/payment/domain"
	receiptdomain "github.com/smallbiznis/invopay/internal/receipt/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// Run brings the schema up to date on startup. The embedded SQL files
// use postgres types, so other dialects (sqlite, mysql) sync straight
// from the models instead.
func Run(conn *gorm.DB, cfg config.Config) error {
	if cfg.DBType != "postgres" {
		return conn.AutoMigrate(
			&invoicedomain.Invoice{},
			&invoicedomain.LineItem{},
			&paymentdomain.Payment{},
			&receiptdomain.Receipt{},
		)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}
