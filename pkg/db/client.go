package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/db/models"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
)

const slowQueryThreshold = 500 * time.Millisecond

var errMissingDSN = errors.New("database DSN is required")

// Client owns the pooled SQL connection behind the gorm repositories.
type Client struct {
	conn   *gorm.DB
	driver string
}

// New opens the configured SQL database. sqlite is for local runs and tests;
// its schema comes from AutoMigrate rather than goose.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, errMissingDSN
	}
	dialector, driver, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 queryLogger(ctx, logg),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", driver, err)
	}
	client := &Client{conn: conn, driver: driver}
	if err := client.tunePool(cfg); err != nil {
		return nil, err
	}

	if driver == config.DBDriverSQLite {
		if err := conn.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return nil, fmt.Errorf("migrating sqlite schema: %w", err)
		}
	}

	logg.Info(logg.WithField(ctx, "driver", driver), "database connection established")
	return client, nil
}

func dialectorFor(cfg config.DBConfig) (gorm.Dialector, string, error) {
	switch {
	case cfg.UsesSQLite():
		return sqlite.Open(cfg.DSN), config.DBDriverSQLite, nil
	case cfg.Driver == "" || cfg.Driver == config.DBDriverPostgres:
		// simple protocol keeps pgbouncer in transaction mode happy
		return postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true}), config.DBDriverPostgres, nil
	default:
		return nil, "", fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
}

func (c *Client) tunePool(cfg config.DBConfig) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return fmt.Errorf("getting sql db handle: %w", err)
	}
	if c.driver == config.DBDriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return nil
}

// queryWriter forwards gorm's slow query and error lines to the service logger.
type queryWriter struct {
	ctx  context.Context
	logg *logger.Logger
}

func (w queryWriter) Printf(format string, args ...any) {
	w.logg.Warn(w.ctx, fmt.Sprintf(format, args...))
}

func queryLogger(ctx context.Context, logg *logger.Logger) gormlogger.Interface {
	if logg == nil {
		return gormlogger.New(log.New(io.Discard, "", 0), gormlogger.Config{LogLevel: gormlogger.Silent})
	}
	return gormlogger.New(queryWriter{ctx: logg.WithField(ctx, "component", "gorm"), logg: logg}, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		Colorful:                  false,
	})
}

// FromConn wraps an already opened connection.
func FromConn(conn *gorm.DB) *Client {
	return &Client{conn: conn, driver: conn.Dialector.Name()}
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

// Driver names the dialect in use ("postgres" or "sqlite").
func (c *Client) Driver() string {
	return c.driver
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
