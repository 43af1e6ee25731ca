package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/db"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|to|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory (default: embedded set, or "+migrate.SourceDir+" for create)")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=to")
	flag.Parse()

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate", Output: os.Stderr})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": opts.cmd, "dir": opts.dir})

	if err := run(ctx, logg, opts, os.Stdout); err != nil {
		logg.Error(ctx, "migrate failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logg *logger.Logger, opts options, out io.Writer) error {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("-name is required for create")
		}
		path, err := migrate.Create(opts.dir, opts.name, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "created", path)
		return nil
	case "validate":
		if err := migrate.Validate(migrate.Source(opts.dir)); err != nil {
			return err
		}
		fmt.Fprintln(out, "migrations ok")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DB.UsesMongo() || cfg.DB.UsesSQLite() {
		return fmt.Errorf("driver %q manages its own schema; goose only targets postgres", cfg.DB.Driver)
	}
	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer client.Close()
	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	m, err := migrate.New(sqlDB, migrate.Source(opts.dir))
	if err != nil {
		return err
	}
	return execute(ctx, m, opts, out)
}

func execute(ctx context.Context, m *migrate.Migrator, opts options, out io.Writer) error {
	var (
		steps []migrate.Step
		err   error
	)
	switch opts.cmd {
	case "up":
		steps, err = m.Up(ctx)
	case "down":
		steps, err = m.Down(ctx)
	case "to":
		if opts.version == "" {
			return errors.New("-version is required for to")
		}
		steps, err = m.To(ctx, opts.version)
	case "version":
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, v)
		return nil
	case "status":
		statuses, err := m.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(out, statuses)
		return nil
	default:
		return fmt.Errorf("unknown -cmd %q", opts.cmd)
	}

	for _, s := range steps {
		fmt.Fprintf(out, "%-4s %d %s (%s)\n", s.Direction, s.Version, s.Path, s.Duration.Round(time.Millisecond))
	}
	if len(steps) == 0 && err == nil {
		fmt.Fprintln(out, "nothing to do")
	}
	return err
}

func printStatus(out io.Writer, statuses []migrate.Status) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, s := range statuses {
		state, at := "pending", "-"
		if s.Applied {
			state, at = "applied", s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Version, state, at, s.Path)
	}
	w.Flush()
}
