package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository on a DB.
type ProductRepository struct {
	db *DB
}

// List returns all products in insertion order.
func (r *ProductRepository) List(_ context.Context) ([]product.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]product.Product, 0, len(r.db.productSeq))
	for _, id := range r.db.productSeq {
		out = append(out, *r.db.products[id])
	}
	return out, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// GetByIDs returns products matching any of the given IDs. Unknown IDs are
// skipped.
func (r *ProductRepository) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.db.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

// Create inserts p, assigning a UUID when p.ID is empty.
func (r *ProductRepository) Create(_ context.Context, p *product.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := r.db.products[p.ID]; ok {
		return &product.ValidationError{Field: "id", Reason: "already exists"}
	}
	now := r.db.now()
	p.CreatedAt, p.UpdatedAt = now, now
	// Same precision as the NUMERIC(10,2) column.
	p.Price = p.Price.Round(2)

	cp := *p
	r.db.products[p.ID] = &cp
	r.db.productSeq = append(r.db.productSeq, p.ID)
	return nil
}

// Update applies u under the write lock.
func (r *ProductRepository) Update(_ context.Context, id string, u product.Update) (*product.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = u.Price.Round(2)
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	p.UpdatedAt = r.db.now()

	cp := *p
	return &cp, nil
}

// decrementStock must be called with db.mu held.
func (db *DB) decrementStock(id string, quantity int) error {
	if quantity <= 0 {
		return &product.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}
	p, ok := db.products[id]
	if !ok {
		return product.ErrNotFound
	}
	if p.Stock < quantity {
		return &product.InsufficientStockError{
			ProductID: id,
			Name:      p.Name,
			Available: p.Stock,
			Requested: quantity,
		}
	}
	p.Stock -= quantity
	p.UpdatedAt = db.now()
	return nil
}
