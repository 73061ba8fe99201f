// Package dbtest opens throwaway sqlite databases for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vikasavnish/parentportal/internal/db"
)

var seq atomic.Int64

// Open returns a migrated in-memory database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	// A named shared-cache database keeps every pooled connection on the same
	// data; a plain ":memory:" gives each connection its own empty database.
	dsn := fmt.Sprintf("file:dbtest%d?mode=memory&cache=shared&_foreign_keys=on", seq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), db.Config(zap.NewNop(), gormlogger.Silent))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return gdb
}
