package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-inventory/internal/database"
	"github.com/iliyamo/seat-inventory/internal/repository"
	"github.com/iliyamo/seat-inventory/internal/repository/storetest"
)

// TestMySQLSuite needs a scratch database, e.g.
// TEST_MYSQL_DSN="root:root@tcp(localhost:3306)/seats_test?parseTime=true".
func TestMySQLSuite(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}
	ctx := context.Background()
	db, err := database.OpenDSN(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.MigrateMySQL(ctx, db))

	storetest.Run(t, repository.NewSeatRepo(db), repository.NewEventRepo(db))
}
