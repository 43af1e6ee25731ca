package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedded embed.FS

// SourceDir is where new migrations are written, relative to the repo root.
const SourceDir = "pkg/migrate/migrations"

// Source returns the migrations compiled into the binary when dir is empty,
// otherwise the files under dir.
func Source(dir string) fs.FS {
	if dir == "" {
		sub, err := fs.Sub(embedded, "migrations")
		if err != nil {
			panic(err)
		}
		return sub
	}
	return os.DirFS(dir)
}

// Step is one applied or rolled back migration.
type Step struct {
	Version   int64
	Path      string
	Direction string
	Duration  time.Duration
}

// Status reports whether a known migration has run.
type Status struct {
	Version   int64
	Path      string
	Applied   bool
	AppliedAt time.Time
}

// Migrator runs goose migrations from one source against one database.
type Migrator struct {
	provider *goose.Provider
}

// New builds a postgres migrator. Dialect is overridable for tests.
func New(db *sql.DB, source fs.FS, dialect ...goose.Dialect) (*Migrator, error) {
	if db == nil {
		return nil, errors.New("migrate: db is required")
	}
	d := goose.DialectPostgres
	if len(dialect) > 0 {
		d = dialect[0]
	}
	provider, err := goose.NewProvider(d, db, source)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Migrator{provider: provider}, nil
}

func (m *Migrator) Up(ctx context.Context) ([]Step, error) {
	results, err := m.provider.Up(ctx)
	return steps(results), wrap("up", err)
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) ([]Step, error) {
	result, err := m.provider.Down(ctx)
	if result == nil {
		return nil, wrap("down", err)
	}
	return steps([]*goose.MigrationResult{result}), wrap("down", err)
}

// To moves the schema up or down until target (YYYYMMDDHHMMSS) is current.
func (m *Migrator) To(ctx context.Context, target string) ([]Step, error) {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil || version < 0 {
		return nil, fmt.Errorf("migrate: invalid version %q (expected YYYYMMDDHHMMSS)", target)
	}
	current, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}
	var results []*goose.MigrationResult
	switch {
	case version > current:
		results, err = m.provider.UpTo(ctx, version)
	case version < current:
		results, err = m.provider.DownTo(ctx, version)
	}
	return steps(results), wrap("to "+target, err)
}

func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	return v, wrap("version", err)
}

func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	list, err := m.provider.Status(ctx)
	if err != nil {
		return nil, wrap("status", err)
	}
	out := make([]Status, 0, len(list))
	for _, s := range list {
		out = append(out, Status{
			Version:   s.Source.Version,
			Path:      s.Source.Path,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

func steps(results []*goose.MigrationResult) []Step {
	out := make([]Step, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		out = append(out, Step{
			Version:   r.Source.Version,
			Path:      r.Source.Path,
			Direction: r.Direction,
			Duration:  r.Duration,
		})
	}
	return out
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("migrate %s: %w", op, err)
}
