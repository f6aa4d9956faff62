package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/deviceregistry/internal/apperror"
	"github.com/prudhvinik1/deviceregistry/internal/database"
	"github.com/prudhvinik1/deviceregistry/internal/models"
	"github.com/prudhvinik1/deviceregistry/internal/repositories"
	"github.com/prudhvinik1/deviceregistry/internal/utils"
	"github.com/rs/zerolog/log"
)

type UserService struct {
	users       repositories.Store[models.User]
	revocations repositories.RevocationRepository
	bcryptCost  int
	now         func() time.Time
}

func NewUserService(
	users repositories.Store[models.User],
	revocations repositories.RevocationRepository,
	bcryptCost int,
) *UserService {
	if revocations == nil {
		revocations = repositories.NopRevocationRepository{}
	}
	return &UserService{
		users:       users,
		revocations: revocations,
		bcryptCost:  bcryptCost,
		now:         time.Now,
	}
}

// Register creates a regular, active account.
func (s *UserService) Register(ctx context.Context, db database.DBTX, in models.UserCreate) (*models.User, error) {
	if err := s.ensureEmailFree(ctx, db, in.Email); err != nil {
		return nil, err
	}

	hashed, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	return s.users.Create(ctx, db, repositories.Values[models.User]{
		repositories.UserEmail:          in.Email,
		repositories.UserHashedPassword: hashed,
		repositories.UserFullName:       in.FullName,
		repositories.UserIsActive:       true,
		repositories.UserIsSuperuser:    false,
	})
}

func (s *UserService) List(ctx context.Context, db database.DBTX, offset, limit int) ([]*models.User, error) {
	return s.users.ReadMulti(ctx, db, offset, limit)
}

// UpdateMe applies the caller's own changes. A new password revokes every
// token issued before it.
func (s *UserService) UpdateMe(ctx context.Context, db database.DBTX, user *models.User, in models.UserUpdateMe) (*models.User, error) {
	patch := repositories.Values[models.User]{}
	if in.FullName != nil {
		patch[repositories.UserFullName] = *in.FullName
	}
	if in.Password != nil {
		hashed, err := s.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		patch[repositories.UserHashedPassword] = hashed
	}

	updated, err := s.users.Update(ctx, db, user, patch)
	if err != nil {
		return nil, err
	}
	if in.Password != nil {
		if err := s.revoke(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// Update is the superuser's partial update of any account. Deactivating an
// account or resetting its password revokes its outstanding tokens.
func (s *UserService) Update(ctx context.Context, db database.DBTX, id uuid.UUID, in models.UserUpdate) (*models.User, error) {
	existing, err := s.users.Read(ctx, db, id)
	if err != nil {
		return nil, err
	}

	patch := repositories.Values[models.User]{}
	if in.FullName != nil {
		patch[repositories.UserFullName] = *in.FullName
	}
	if in.Password != nil {
		hashed, err := s.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		patch[repositories.UserHashedPassword] = hashed
	}
	if in.IsActive != nil {
		patch[repositories.UserIsActive] = *in.IsActive
	}
	if in.IsSuperuser != nil {
		patch[repositories.UserIsSuperuser] = *in.IsSuperuser
	}

	updated, err := s.users.Update(ctx, db, existing, patch)
	if err != nil {
		return nil, err
	}
	if in.Password != nil || (in.IsActive != nil && !*in.IsActive) {
		if err := s.revoke(ctx, id); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// Delete removes the account id on behalf of actor.
func (s *UserService) Delete(ctx context.Context, db database.DBTX, actor *models.User, id uuid.UUID) (*models.User, error) {
	if actor.ID == id {
		return nil, apperror.Forbidden("super users are not allowed to delete themselves")
	}
	return s.users.Delete(ctx, db, id)
}

// EnsureSuperuser creates the bootstrap superuser, or promotes and
// reactivates an existing account with that email. Running it twice is a no-op.
func (s *UserService) EnsureSuperuser(ctx context.Context, db database.DBTX, email, password string) (*models.User, error) {
	existing, err := s.users.ReadByColumn(ctx, db, repositories.UserEmail, email)
	switch {
	case err == nil:
		if existing.IsSuperuser && existing.IsActive {
			return existing, nil
		}
		log.Info().Str("email", email).Msg("promoting existing user to superuser")
		return s.users.Update(ctx, db, existing, repositories.Values[models.User]{
			repositories.UserIsSuperuser: true,
			repositories.UserIsActive:    true,
		})
	case !apperror.Is(err, apperror.KindNotFound):
		return nil, err
	}

	hashed, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	log.Info().Str("email", email).Msg("creating first superuser")
	return s.users.Create(ctx, db, repositories.Values[models.User]{
		repositories.UserEmail:          email,
		repositories.UserHashedPassword: hashed,
		repositories.UserIsActive:       true,
		repositories.UserIsSuperuser:    true,
	})
}

func (s *UserService) ensureEmailFree(ctx context.Context, db database.DBTX, email string) error {
	_, err := s.users.ReadByColumn(ctx, db, repositories.UserEmail, email)
	if err == nil {
		return apperror.Conflict("user_exists", "user already exists")
	}
	if apperror.Is(err, apperror.KindNotFound) {
		return nil
	}
	return err
}

func (s *UserService) hashPassword(password string) (string, error) {
	hashed, err := utils.HashPassword(password, s.bcryptCost)
	if utils.IsWeakPassword(err) {
		return "", apperror.Validation("invalid_password", err.Error())
	}
	if err != nil {
		return "", apperror.Internal(fmt.Errorf("failed to hash password: %w", err))
	}
	return hashed, nil
}

func (s *UserService) revoke(ctx context.Context, userID uuid.UUID) error {
	if err := s.revocations.RevokeBefore(ctx, userID, s.now().Truncate(tokenPrecision)); err != nil {
		return apperror.Internal(fmt.Errorf("failed to revoke tokens: %w", err))
	}
	return nil
}
