package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/product"
)

const seedProductSQL = `INSERT INTO products (id, name, description, price, stock, category, image)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO NOTHING`

// SeedProducts inserts products that are not present yet, in one batch. It
// returns the number of rows inserted; existing products are left untouched.
func SeedProducts(ctx context.Context, pool *pgxpool.Pool, products []product.Product) (int64, error) {
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(seedProductSQL, p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.Image)
	}

	br := pool.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for _, p := range products {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("seed product %s: %w", p.ID, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
