package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/kunaltyagi18/ecomm-store/db"
	"github.com/kunaltyagi18/ecomm-store/internal/domain/order"
	"github.com/kunaltyagi18/ecomm-store/internal/domain/product"
	"github.com/kunaltyagi18/ecomm-store/internal/domain/user"
	"github.com/kunaltyagi18/ecomm-store/internal/outbox"
	"github.com/kunaltyagi18/ecomm-store/internal/storage/memory"
	"github.com/kunaltyagi18/ecomm-store/internal/storage/postgres"
	"github.com/kunaltyagi18/ecomm-store/internal/wire"
	"github.com/kunaltyagi18/ecomm-store/pkg/health"
)

// orderRepository is the write and read side of the order record.
type orderRepository interface {
	order.Store
	order.Ledger
}

// storage bundles the repositories of one backend.
type storage struct {
	products product.Repository
	orders   orderRepository
	users    user.Repository
	outbox   outbox.Store
	probes   []health.Probe
	close    func()
}

func openStorage(ctx context.Context, lg *zap.Logger, cfg *Config) (*storage, error) {
	seed, err := wire.DecodeProducts(jx.DecodeBytes(db.SeedProducts))
	if err != nil {
		return nil, errors.Wrap(err, "decode seed products")
	}

	if cfg.Storage == StorageMemory {
		mem := memory.New()
		for _, p := range seed {
			if err := mem.Products().Create(ctx, &p); err != nil {
				return nil, errors.Wrapf(err, "seed product %s", p.ID)
			}
		}
		lg.Warn("Using in-memory storage, data is lost on restart", zap.Int("products", len(seed)))
		return &storage{
			products: mem.Products(),
			orders:   mem.Orders(),
			users:    mem.Users(),
			outbox:   mem.Outbox(),
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	if cfg.Seed {
		n, err := postgres.SeedProducts(ctx, pool, seed)
		if err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "seed products")
		}
		lg.Info("Seeded products", zap.Int64("inserted", n))
	}
	return &storage{
		products: postgres.NewProductRepository(pool),
		orders:   postgres.NewOrderRepository(pool),
		users:    postgres.NewUserRepository(pool),
		outbox:   postgres.NewOutboxRepository(pool),
		probes: []health.Probe{{
			Name:  "postgres",
			Kind:  health.Readiness,
			Check: health.PingCheck(pool),
		}},
		close: pool.Close,
	}, nil
}
