package handlers

import (
	"context"
	"net/http"

	"github.com/prudhvinik1/deviceregistry/internal/database"
	"github.com/prudhvinik1/deviceregistry/internal/models"
)

// Register is the open sign-up endpoint.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in models.UserCreate
	if err := decodeJSON(r, h.validate, &in); err != nil {
		writeError(w, r, err)
		return
	}

	var user *models.User
	err := h.sessions.WithSession(r.Context(), func(ctx context.Context, db database.DBTX) error {
		var err error
		user, err = h.users.Register(ctx, db, in)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, user)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	var me *models.User
	err := h.withUser(r, func(ctx context.Context, db database.DBTX, user *models.User) error {
		me = user
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, me)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var updated *models.User
	err := h.withUser(r, func(ctx context.Context, db database.DBTX, user *models.User) error {
		var in models.UserUpdateMe
		if err := decodeJSON(r, h.validate, &in); err != nil {
			return err
		}
		var err error
		updated, err = h.users.UpdateMe(ctx, db, user, in)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, updated)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var users []*models.User
	err := h.withSuperuser(r, func(ctx context.Context, db database.DBTX, _ *models.User) error {
		offset, limit, err := pageParams(r)
		if err != nil {
			return err
		}
		users, err = h.users.List(ctx, db, offset, limit)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, users)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var updated *models.User
	err := h.withSuperuser(r, func(ctx context.Context, db database.DBTX, _ *models.User) error {
		id, err := pathID(r, "id")
		if err != nil {
			return err
		}
		var in models.UserUpdate
		if err := decodeJSON(r, h.validate, &in); err != nil {
			return err
		}
		updated, err = h.users.Update(ctx, db, id, in)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, updated)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var removed *models.User
	err := h.withSuperuser(r, func(ctx context.Context, db database.DBTX, actor *models.User) error {
		id, err := pathID(r, "id")
		if err != nil {
			return err
		}
		removed, err = h.users.Delete(ctx, db, actor, id)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, removed)
}
