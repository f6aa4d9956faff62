package services

import (
	"context"
	"sync"

	"github.com/prudhvinik1/deviceregistry/internal/apperror"
	"github.com/prudhvinik1/deviceregistry/internal/database"
	"github.com/prudhvinik1/deviceregistry/internal/models"
	"github.com/prudhvinik1/deviceregistry/internal/repositories"
	"github.com/prudhvinik1/deviceregistry/internal/utils"
)

var (
	ErrInvalidCredentials = apperror.Validation("invalid_credentials", "incorrect email or password")
	ErrInactiveUser       = apperror.Validation("inactive_user", "inactive user")
)

type AuthService struct {
	users  repositories.Store[models.User]
	tokens *TokenService
	cost   int

	dummyOnce sync.Once
	dummyHash string

	checkPassword func(hashed, password string) bool
}

// NewAuthService takes the bcrypt cost new passwords are hashed with, so an
// unknown email costs as much to reject as a wrong password.
func NewAuthService(users repositories.Store[models.User], tokens *TokenService, bcryptCost int) *AuthService {
	return &AuthService{
		users:         users,
		tokens:        tokens,
		cost:          bcryptCost,
		checkPassword: utils.CheckPassword,
	}
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		// On error the hash stays empty and the comparison fails fast.
		s.dummyHash, _ = utils.HashPassword("not-a-real-password", s.cost)
	})
	return s.dummyHash
}

// Login exchanges an email and password for a bearer token. Unknown emails
// and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, db database.DBTX, email, password string) (*models.Token, error) {
	user, err := s.users.ReadByColumn(ctx, db, repositories.UserEmail, email)
	if apperror.Is(err, apperror.KindNotFound) {
		s.checkPassword(s.dummy(), password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.checkPassword(user.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &models.Token{
		AccessToken: token,
		TokenType:   models.TokenTypeBearer,
	}, nil
}
