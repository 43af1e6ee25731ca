package db

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/clodamigoles/dossiers.vevo/pkg/db/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var memDBSeq atomic.Int64

// OpenMemory opens an isolated in-memory sqlite database with the model schema
// applied, then runs any extra DDL. Repository tests use it instead of Postgres.
func OpenMemory(t testing.TB, ddl ...string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", memDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	for _, stmt := range ddl {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to apply ddl: %v", err)
		}
	}
	return conn
}
