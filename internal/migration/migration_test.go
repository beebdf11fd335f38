package migration

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/invopay/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRunCreatesSchemaOnSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Run(db, config.Config{DBType: "sqlite"}))

	for _, table := range []string{"invoices", "invoice_line_items", "payments", "receipts"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	// Running twice must be a no-op, the same as replaying migrations.
	require.NoError(t, Run(db, config.Config{DBType: "sqlite"}))
}
