package product

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrInvalid is the sentinel every *ValidationError unwraps to.
var ErrInvalid = errors.New("invalid product")

// MaxPrice is the exclusive upper bound of a price; prices are stored as
// NUMERIC(10,2).
var MaxPrice = decimal.New(1, 8)

// MaxStock bounds stock counts to the INTEGER column.
const MaxStock = math.MaxInt32

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Image       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the fields an administrator must supply when creating a
// product.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if err := validatePrice(p.Price); err != nil {
		return err
	}
	return validateStock(p.Stock)
}

func validatePrice(v decimal.Decimal) error {
	switch {
	case v.IsNegative():
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	case !v.Equal(v.Truncate(2)):
		return &ValidationError{Field: "price", Reason: "must have at most two decimal places"}
	case v.GreaterThanOrEqual(MaxPrice):
		return &ValidationError{Field: "price", Reason: "must be less than 100000000"}
	}
	return nil
}

func validateStock(n int) error {
	switch {
	case n < 0:
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	case n > MaxStock:
		return &ValidationError{Field: "stock", Reason: "is too large"}
	}
	return nil
}

// Update is a partial administrative edit. Nil fields are left unchanged.
type Update struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Category    *string
	Image       *string
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil &&
		u.Stock == nil && u.Category == nil && u.Image == nil
}

// Validate applies the same constraints as Product.Validate to the fields
// present in the update.
func (u Update) Validate() error {
	if u.IsEmpty() {
		return &ValidationError{Field: "body", Reason: "no fields to update"}
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if u.Price != nil {
		if err := validatePrice(*u.Price); err != nil {
			return err
		}
	}
	if u.Stock != nil {
		return validateStock(*u.Stock)
	}
	return nil
}

// ValidationError describes a rejected product field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// InsufficientStockError indicates a product cannot cover the requested
// quantity.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d", name, e.Available, e.Requested)
}

// Reader defines read operations for the product catalog. Reads never mutate
// stored state.
type Reader interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// Repository adds the administrative mutations to Reader.
type Repository interface {
	Reader
	// Create inserts p, assigning an ID when p.ID is empty and filling the
	// timestamps.
	Create(ctx context.Context, p *Product) error
	// Update applies u as a single atomic statement and returns the result.
	Update(ctx context.Context, id string, u Update) (*Product, error)
}

// StockDecrementer reduces stock as part of an enclosing transaction.
//
// DecrementStock must be an atomic decrement-if-sufficient: it fails with
// ErrNotFound when the product does not exist and with *InsufficientStockError
// when current stock is below quantity, leaving stock untouched in both cases.
type StockDecrementer interface {
	DecrementStock(ctx context.Context, id string, quantity int) error
}
