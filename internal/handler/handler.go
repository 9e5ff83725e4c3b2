// Package handler serves the storefront REST API.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/order"
	"github.com/kunaltyagi18/ecomm-store/internal/domain/product"
	"github.com/kunaltyagi18/ecomm-store/internal/domain/user"
)

// Version is reported by the API banner.
const Version = "1.0.0"

// Handler serves the /api routes, the banner and /health.
type Handler struct {
	products product.Repository
	orders   *order.Service
	users    *user.Service
	now      func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(products product.Repository, orders *order.Service, users *user.Service) *Handler {
	return &Handler{
		products: products,
		orders:   orders,
		users:    users,
		now:      time.Now,
	}
}

// Routes registers every route on r. Unknown paths and methods get a 404
// failure envelope.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.banner)
	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Post("/", h.createProduct)
			r.Get("/{id}", h.getProduct)
			r.Put("/{id}", h.updateProduct)
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Post("/", h.createUser)
			r.Get("/{id}", h.getUser)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.placeOrder)
			r.Get("/admin/all", h.listOrders)
			r.Get("/detail/{orderId}", h.getOrder)
			r.Get("/{userId}", h.listUserOrders)
			r.Put("/{orderId}/status", h.updateOrderStatus)
		})
	})

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.notFound)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	fail(w, r, http.StatusNotFound, "Route "+r.URL.RequestURI()+" not found", nil)
}

func (h *Handler) banner(w http.ResponseWriter, _ *http.Request) {
	envelope{
		status:  http.StatusOK,
		message: "Welcome to Ecomm Hub Backend API",
		extra: func(e *jx.Encoder) {
			e.FieldStart("version")
			e.Str(Version)
			e.FieldStart("endpoints")
			e.ObjStart()
			for _, ep := range [][2]string{
				{"products", "/api/products"},
				{"users", "/api/users"},
				{"orders", "/api/orders"},
			} {
				e.FieldStart(ep[0])
				e.Str(ep[1])
			}
			e.ObjEnd()
		},
	}.write(w)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	ts := h.now().UTC().Format("2006-01-02T15:04:05.000Z")
	envelope{
		status:  http.StatusOK,
		message: "Server is running",
		extra: func(e *jx.Encoder) {
			e.FieldStart("timestamp")
			e.Str(ts)
		},
	}.write(w)
}
