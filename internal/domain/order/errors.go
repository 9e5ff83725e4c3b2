package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for order operations.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("order not found")
)

// ValidationError describes why a request was rejected. It unwraps to
// ErrInvalidRequest.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// ProductNotFoundError indicates a cart line references a product that does
// not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product with ID %s not found", e.ProductID)
}

// TransactionError wraps any failure inside the placement transaction. The
// transaction has been rolled back when it is returned.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("place order transaction: %v", e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
