// Command seed-db applies the schema and loads the starter product catalog.
// Products that already exist are left untouched.
package main

import (
	"context"
	"os"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/kunaltyagi18/ecomm-store/db"
	"github.com/kunaltyagi18/ecomm-store/internal/storage/postgres"
	"github.com/kunaltyagi18/ecomm-store/internal/wire"
)

type config struct {
	DatabaseURL string `usage:"PostgreSQL connection URL (STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	// ProductsFile replaces the embedded catalog.
	ProductsFile string `default:"" usage:"Path to a products JSON file" flag:"products-file"`
}

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		var cfg config
		if err := aconfig.LoaderFor(&cfg, aconfig.Config{
			EnvPrefix: "STORE",
			SkipFiles: true,
		}).Load(); err != nil {
			return errors.Wrap(err, "load config")
		}
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		}
		if cfg.DatabaseURL == "" {
			return errors.New("database URL is required: set --database-url, STORE_DATABASE_URL or DATABASE_URL")
		}
		return run(ctx, lg, cfg)
	})
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	catalog := db.SeedProducts
	if cfg.ProductsFile != "" {
		data, err := os.ReadFile(cfg.ProductsFile)
		if err != nil {
			return errors.Wrap(err, "read products file")
		}
		catalog = data
	}
	products, err := wire.DecodeProducts(jx.DecodeBytes(catalog))
	if err != nil {
		return errors.Wrap(err, "parse products")
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	inserted, err := postgres.SeedProducts(ctx, pool, products)
	if err != nil {
		return errors.Wrap(err, "seed products")
	}
	lg.Info("Seed completed",
		zap.Int("products", len(products)),
		zap.Int64("inserted", inserted),
	)
	return nil
}
