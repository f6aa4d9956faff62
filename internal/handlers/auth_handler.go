package handlers

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/render"
	"github.com/prudhvinik1/deviceregistry/internal/apperror"
	"github.com/prudhvinik1/deviceregistry/internal/database"
	"github.com/prudhvinik1/deviceregistry/internal/models"
	"github.com/prudhvinik1/deviceregistry/internal/services"
)

// Login accepts the OAuth2 password form (username, password) or the same
// fields as JSON.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := h.loginRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var token *models.Token
	err = h.sessions.WithSession(r.Context(), func(ctx context.Context, db database.DBTX) error {
		var err error
		token, err = h.auth.Login(ctx, db, req.Username, req.Password)
		return err
	})
	loginAttemptsTotal.WithLabelValues(loginOutcome(err)).Inc()
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, token)
}

func (h *Handler) loginRequest(r *http.Request) (models.LoginRequest, error) {
	var req models.LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			return req, apperror.Wrap(apperror.KindValidation, "invalid_body", "request body is not valid JSON", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, apperror.Wrap(apperror.KindValidation, "invalid_body", "request body is not a valid form", err)
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	return req, validate(h.validate, &req)
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, services.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, services.ErrInactiveUser):
		return "inactive_user"
	default:
		return "error"
	}
}

func (h *Handler) loginRateLimited(w http.ResponseWriter, r *http.Request) {
	loginAttemptsTotal.WithLabelValues("rate_limited").Inc()
	writeDetail(w, r, http.StatusTooManyRequests, "too many login attempts, try again later")
}
