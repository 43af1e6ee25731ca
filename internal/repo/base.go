package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNoConnection is returned when a Base was built without a connection.
var ErrNoConnection = errors.New("repo: no database connection")

// Base holds the GORM connection shared by the sales and auth repositories.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw connection,
// which is what subqueries embedded in a bound statement need.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// InTx runs fn inside a transaction bound to ctx.
func (b Base) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if b.db == nil {
		return ErrNoConnection
	}
	return b.DB(ctx).Transaction(fn)
}

// Ping checks the underlying sql.DB.
func (b Base) Ping(ctx context.Context) error {
	if b.db == nil {
		return ErrNoConnection
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
