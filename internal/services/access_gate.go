package services

import (
	"context"
	"fmt"

	"github.com/prudhvinik1/deviceregistry/internal/apperror"
	"github.com/prudhvinik1/deviceregistry/internal/database"
	"github.com/prudhvinik1/deviceregistry/internal/models"
	"github.com/prudhvinik1/deviceregistry/internal/repositories"
)

type TokenVerifier interface {
	Verify(tokenString string) (models.TokenClaims, error)
}

// AccessGate resolves a bearer token to an active user. It keeps no state
// between requests.
type AccessGate struct {
	tokens      TokenVerifier
	users       repositories.Store[models.User]
	revocations repositories.RevocationRepository
}

func NewAccessGate(
	tokens TokenVerifier,
	users repositories.Store[models.User],
	revocations repositories.RevocationRepository,
) *AccessGate {
	if revocations == nil {
		revocations = repositories.NopRevocationRepository{}
	}
	return &AccessGate{
		tokens:      tokens,
		users:       users,
		revocations: revocations,
	}
}

// Authorize returns the user behind rawToken. A missing or inactive user is
// reported the same way so callers cannot tell the two apart.
func (g *AccessGate) Authorize(ctx context.Context, db database.DBTX, rawToken string) (*models.User, error) {
	if rawToken == "" {
		return nil, apperror.Unauthenticated()
	}

	claims, err := g.tokens.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	cutoff, revoked, err := g.revocations.RevokedBefore(ctx, claims.UserID)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to check revocation: %w", err))
	}
	if revoked && claims.IssuedAt.Before(cutoff) {
		return nil, apperror.InvalidToken(fmt.Errorf("token issued before %s", cutoff))
	}

	user, err := g.users.Read(ctx, db, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.NotFound("user")
	}
	return user, nil
}

func (g *AccessGate) RequireSuperuser(user *models.User) error {
	if user == nil || !user.IsSuperuser {
		return apperror.InsufficientPrivileges()
	}
	return nil
}
