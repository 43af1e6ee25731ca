package migrate

import (
	"context"

	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/db"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
)

// AutoRun applies the embedded migrations on startup in dev when
// VEVO_AUTO_MIGRATE is set. Only postgres is migrated through goose.
func AutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil || client.Driver() != config.DBDriverPostgres {
		return nil
	}
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	m, err := New(sqlDB, Source(""))
	if err != nil {
		return err
	}
	applied, err := m.Up(ctx)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "applied", len(applied)), "dev migrations up to date")
	return nil
}
