package handlers

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/prudhvinik1/deviceregistry/internal/database"
	"github.com/prudhvinik1/deviceregistry/internal/models"
	"github.com/prudhvinik1/deviceregistry/internal/services"
)

// Sessions opens the unit of work a request runs in.
type Sessions interface {
	WithSession(ctx context.Context, fn func(ctx context.Context, db database.DBTX) error) error
}

type Handler struct {
	sessions Sessions
	gate     *services.AccessGate
	users    *services.UserService
	auth     *services.AuthService
	devices  *services.DeviceService
	validate *validator.Validate
}

func NewHandler(
	sessions Sessions,
	gate *services.AccessGate,
	users *services.UserService,
	auth *services.AuthService,
	devices *services.DeviceService,
) *Handler {
	return &Handler{
		sessions: sessions,
		gate:     gate,
		users:    users,
		auth:     auth,
		devices:  devices,
		validate: newValidator(),
	}
}

// withUser runs fn in one session after resolving the caller's bearer token.
func (h *Handler) withUser(r *http.Request, fn func(ctx context.Context, db database.DBTX, user *models.User) error) error {
	return h.sessions.WithSession(r.Context(), func(ctx context.Context, db database.DBTX) error {
		user, err := h.gate.Authorize(ctx, db, bearerToken(r))
		if err != nil {
			return err
		}
		return fn(ctx, db, user)
	})
}

// withSuperuser is withUser for superuser-only endpoints.
func (h *Handler) withSuperuser(r *http.Request, fn func(ctx context.Context, db database.DBTX, user *models.User) error) error {
	return h.withUser(r, func(ctx context.Context, db database.DBTX, user *models.User) error {
		if err := h.gate.RequireSuperuser(user); err != nil {
			return err
		}
		return fn(ctx, db, user)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
