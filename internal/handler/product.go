package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/product"
	"github.com/kunaltyagi18/ecomm-store/internal/wire"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Error fetching products", err)
		return
	}
	ok(w, "Products fetched successfully", func(e *jx.Encoder) {
		wire.EncodeProducts(e, products)
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, product.ErrNotFound):
		fail(w, r, http.StatusNotFound, "Product not found", nil)
		return
	case err != nil:
		fail(w, r, http.StatusInternalServerError, "Error fetching product", err)
		return
	}
	ok(w, "Product fetched successfully", func(e *jx.Encoder) {
		wire.EncodeProduct(e, *p)
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	p, err := decodeBody(w, r, wire.DecodeProduct)
	if err != nil {
		fail(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := p.Validate(); err != nil {
		fail(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.products.Create(r.Context(), &p); err != nil {
		productFailure(w, r, "Error creating product", err)
		return
	}
	created(w, "Product created successfully", func(e *jx.Encoder) {
		wire.EncodeProduct(e, p)
	})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	u, err := decodeBody(w, r, wire.DecodeProductUpdate)
	if err != nil {
		fail(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := u.Validate(); err != nil {
		fail(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	p, err := h.products.Update(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		productFailure(w, r, "Error updating product", err)
		return
	}
	ok(w, "Product updated successfully", func(e *jx.Encoder) {
		wire.EncodeProduct(e, *p)
	})
}

func productFailure(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		fail(w, r, http.StatusNotFound, "Product not found", nil)
	case errors.Is(err, product.ErrInvalid):
		fail(w, r, http.StatusBadRequest, err.Error(), nil)
	default:
		fail(w, r, http.StatusInternalServerError, message, err)
	}
}
