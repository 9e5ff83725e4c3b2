package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/product"
)

const productColumns = `id, name, description, price, stock, category, image, created_at, updated_at`

const (
	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY created_at, id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	createProductSQL = `INSERT INTO products (id, name, description, price, stock, category, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	updateProductSQL = `UPDATE products SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			price       = COALESCE($4::numeric, price),
			stock       = COALESCE($5::integer, stock),
			category    = COALESCE($6, category),
			image       = COALESCE($7, image),
			updated_at  = now()
		WHERE id = $1
		RETURNING ` + productColumns

	decrementStockSQL = `UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`

	stockSQL = `SELECT name, stock FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products in creation order.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts p, assigning a UUID when p.ID is empty.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Price = p.Price.Round(2)
	err := r.pool.QueryRow(ctx, createProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.Image,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &product.ValidationError{Field: "id", Reason: "already exists"}
		}
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Update applies u in a single statement and returns the updated row.
func (r *ProductRepository) Update(ctx context.Context, id string, u product.Update) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, updateProductSQL,
		id, u.Name, u.Description, u.Price, u.Stock, u.Category, u.Image,
	)
	if err != nil {
		return nil, fmt.Errorf("updating product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("updating product %q: %w", id, err)
	}
	return &p, nil
}

// decrementStock performs the conditional decrement on q. When no row
// matches it re-reads the product on the same connection to tell a missing
// product from a short one.
func decrementStock(ctx context.Context, q querier, id string, quantity int) error {
	if quantity <= 0 {
		return &product.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}
	tag, err := q.Exec(ctx, decrementStockSQL, id, quantity)
	if err != nil {
		return fmt.Errorf("decrementing stock of %q: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var (
		name  string
		stock int
	)
	if err := q.QueryRow(ctx, stockSQL, id).Scan(&name, &stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.ErrNotFound
		}
		return fmt.Errorf("reading stock of %q: %w", id, err)
	}
	return &product.InsufficientStockError{
		ProductID: id,
		Name:      name,
		Available: stock,
		Requested: quantity,
	}
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.Category, &p.Image, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
