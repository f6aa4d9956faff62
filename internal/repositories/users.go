package repositories

import (
	"github.com/google/uuid"
	"github.com/prudhvinik1/deviceregistry/internal/models"
)

var (
	UserID             = Column[models.User]{name: "id"}
	UserEmail          = Column[models.User]{name: "email"}
	UserFullName       = Column[models.User]{name: "full_name"}
	UserHashedPassword = Column[models.User]{name: "hashed_password"}
	UserIsActive       = Column[models.User]{name: "is_active"}
	UserIsSuperuser    = Column[models.User]{name: "is_superuser"}
)

func UserDescriptor() Descriptor[models.User] {
	return Descriptor[models.User]{
		Entity: "user",
		Table:  "users",
		Columns: []string{
			"id", "email", "full_name", "hashed_password",
			"is_active", "is_superuser", "created_at", "updated_at",
		},
		Fields: func(u *models.User) []any {
			return []any{
				&u.ID, &u.Email, &u.FullName, &u.HashedPassword,
				&u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt,
			}
		},
		ID:         func(u *models.User) uuid.UUID { return u.ID },
		Unique:     []string{"email"},
		Defaults:   map[string]any{"is_active": true, "is_superuser": false},
		Timestamps: true,
	}
}

func NewPostgresUserStore() *PostgresStore[models.User] {
	return NewPostgresStore(UserDescriptor())
}

func NewMemoryUserStore() *MemoryStore[models.User] {
	return NewMemoryStore(UserDescriptor())
}
