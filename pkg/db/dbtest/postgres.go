package dbtest

import (
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/angelmondragon/tally-backend/pkg/db/models"
)

// PostgresDSNEnv names the database used by Postgres-only tests.
const PostgresDSNEnv = "TALLY_DB_DSN"

// Postgres opens the database named by TALLY_DB_DSN inside a schema created
// for this test and dropped afterwards. The test is skipped when the
// variable is unset.
func Postgres(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv(PostgresDSNEnv))
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}

	schema := "tally_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	admin, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if err := admin.Exec("CREATE SCHEMA " + schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}

	conn, err := gorm.Open(postgres.Open(withSearchPath(dsn, schema)), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open postgres schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = admin.Exec("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Error
		if sqlDB, err := admin.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate postgres: %v", err)
	}
	return conn
}

// withSearchPath handles both URL and keyword/value DSNs.
func withSearchPath(dsn, schema string) string {
	if u, err := url.Parse(dsn); err == nil && (u.Scheme == "postgres" || u.Scheme == "postgresql") {
		q := u.Query()
		q.Set("search_path", schema)
		u.RawQuery = q.Encode()
		return u.String()
	}
	return dsn + " search_path=" + schema
}
