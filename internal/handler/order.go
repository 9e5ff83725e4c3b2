package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/order"
	"github.com/kunaltyagi18/ecomm-store/internal/domain/product"
	"github.com/kunaltyagi18/ecomm-store/internal/wire"
)

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody(w, r, wire.DecodePlaceOrder)
	if err != nil {
		fail(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	o, err := h.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		placeOrderFailure(w, r, err)
		return
	}
	envelope{
		status:  http.StatusCreated,
		message: "Order created successfully with dummy payment",
		data: func(e *jx.Encoder) {
			wire.EncodeOrder(e, *o)
		},
		extra: func(e *jx.Encoder) {
			e.FieldStart("paymentStatus")
			e.Str("Success")
		},
	}.write(w)
}

// placeOrderFailure maps placement errors. Stock that disappears between the
// pre-check and the commit surfaces as a TransactionError and is still a
// client error.
func placeOrderFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		txErr    *order.TransactionError
		notFound *order.ProductNotFoundError
		stockErr *product.InsufficientStockError
	)
	switch {
	case errors.As(err, &txErr):
		if errors.As(txErr.Err, &stockErr) || errors.Is(txErr.Err, product.ErrNotFound) {
			fail(w, r, http.StatusBadRequest, "Error processing order", txErr.Err)
			return
		}
		fail(w, r, http.StatusInternalServerError, "Error creating order", txErr.Err)
	case errors.Is(err, order.ErrInvalidRequest):
		fail(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &notFound):
		fail(w, r, http.StatusNotFound, notFound.Error(), nil)
	case errors.As(err, &stockErr):
		fail(w, r, http.StatusBadRequest, stockErr.Error(), nil)
	default:
		fail(w, r, http.StatusInternalServerError, "Error creating order", err)
	}
}

func (h *Handler) listUserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListForUser(r.Context(), chi.URLParam(r, "userId"))
	switch {
	case errors.Is(err, order.ErrInvalidRequest):
		fail(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	case err != nil:
		fail(w, r, http.StatusInternalServerError, "Error fetching orders", err)
		return
	}
	message := "Orders fetched successfully"
	if len(orders) == 0 {
		message = "No orders found for this user"
	}
	ok(w, message, func(e *jx.Encoder) {
		wire.EncodeOrders(e, orders)
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderId"))
	switch {
	case errors.Is(err, order.ErrNotFound):
		fail(w, r, http.StatusNotFound, "Order not found", nil)
		return
	case err != nil:
		fail(w, r, http.StatusInternalServerError, "Error fetching order", err)
		return
	}
	ok(w, "Order fetched successfully", func(e *jx.Encoder) {
		wire.EncodeOrder(e, *o)
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Error fetching orders", err)
		return
	}
	ok(w, "All orders fetched successfully", func(e *jx.Encoder) {
		wire.EncodeOrders(e, orders)
	})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	status, err := decodeBody(w, r, wire.DecodeStatusUpdate)
	if err != nil {
		fail(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderId"), status)
	switch {
	case errors.Is(err, order.ErrInvalidRequest):
		fail(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	case errors.Is(err, order.ErrNotFound):
		fail(w, r, http.StatusNotFound, "Order not found", nil)
		return
	case err != nil:
		fail(w, r, http.StatusInternalServerError, "Error updating order", err)
		return
	}
	ok(w, "Order status updated successfully", func(e *jx.Encoder) {
		wire.EncodeOrder(e, *o)
	})
}
