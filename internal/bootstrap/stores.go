// Package bootstrap opens the backends selected by configuration and hands the
// binaries ready repositories and clients.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/clodamigoles/dossiers.vevo/api/controllers"
	"github.com/clodamigoles/dossiers.vevo/internal/auth"
	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/db"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/migrate"
	"github.com/clodamigoles/dossiers.vevo/pkg/mongo"
)

// Stores bundles the record and code repositories of one backend.
type Stores struct {
	Records sales.Repository
	Codes   auth.Repository
	// Pinger reports the health of the underlying database.
	Pinger controllers.Pinger

	close func(ctx context.Context) error
}

func (s *Stores) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStores connects to Postgres, sqlite or MongoDB depending on VEVO_DB_DRIVER.
func OpenStores(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Stores, error) {
	if cfg.DB.UsesMongo() {
		return openMongo(ctx, cfg, logg)
	}
	return openSQL(ctx, cfg, logg)
}

func openSQL(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Stores, error) {
	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	if err := migrate.AutoRun(ctx, cfg, logg, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("run dev migrations: %w", err)
	}
	return &Stores{
		Records: sales.NewGormRepository(client.DB()),
		Codes:   auth.NewGormRepository(client.DB()),
		Pinger:  client,
		close: func(context.Context) error {
			return client.Close()
		},
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Stores, error) {
	client, err := mongo.New(ctx, cfg.Mongo, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap mongo: %w", err)
	}
	database := client.Database()
	if err := sales.EnsureRecordIndexes(ctx, database); err != nil {
		client.Close(ctx)
		return nil, fmt.Errorf("ensure record indexes: %w", err)
	}
	if err := auth.EnsureCodeIndexes(ctx, database); err != nil {
		client.Close(ctx)
		return nil, fmt.Errorf("ensure code indexes: %w", err)
	}
	return &Stores{
		Records: sales.NewMongoRepository(database),
		Codes:   auth.NewMongoRepository(database),
		Pinger:  client,
		close:   client.Close,
	}, nil
}
