package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/user"
	"github.com/kunaltyagi18/ecomm-store/internal/wire"
)

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody(w, r, wire.DecodeCreateUser)
	if err != nil {
		fail(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	u, err := h.users.Register(r.Context(), req)
	switch {
	case errors.Is(err, user.ErrInvalid):
		fail(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	case errors.Is(err, user.ErrEmailTaken):
		fail(w, r, http.StatusBadRequest, err.Error(), err)
		return
	case err != nil:
		fail(w, r, http.StatusInternalServerError, "Error creating user", err)
		return
	}
	created(w, "User created successfully", func(e *jx.Encoder) {
		wire.EncodeUser(e, *u)
	})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, user.ErrNotFound):
		fail(w, r, http.StatusNotFound, "User not found", nil)
		return
	case err != nil:
		fail(w, r, http.StatusInternalServerError, "Error fetching user profile", err)
		return
	}
	ok(w, "User profile fetched successfully", func(e *jx.Encoder) {
		wire.EncodeUser(e, *u)
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Error fetching users", err)
		return
	}
	ok(w, "Users fetched successfully", func(e *jx.Encoder) {
		wire.EncodeUsers(e, users)
	})
}
