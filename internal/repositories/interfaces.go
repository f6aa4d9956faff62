package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/deviceregistry/internal/database"
)

// Store is the generic persistence contract for one entity type. Every call
// runs on the session handle it is given; the caller owns commit/rollback.
type Store[T any] interface {
	// Create inserts values merged with any extra values (later maps win).
	Create(ctx context.Context, db database.DBTX, values Values[T], extra ...Values[T]) (*T, error)
	Read(ctx context.Context, db database.DBTX, id uuid.UUID) (*T, error)
	// ReadByColumn returns the first row whose column equals value.
	ReadByColumn(ctx context.Context, db database.DBTX, col Column[T], value any) (*T, error)
	// ReadMultiByColumn returns every row whose column is one of values.
	// values may be a slice or a single value.
	ReadMultiByColumn(ctx context.Context, db database.DBTX, col Column[T], values any) ([]*T, error)
	ReadMulti(ctx context.Context, db database.DBTX, offset, limit int) ([]*T, error)
	// Update writes only the columns present in patch.
	Update(ctx context.Context, db database.DBTX, existing *T, patch Values[T]) (*T, error)
	Delete(ctx context.Context, db database.DBTX, id uuid.UUID) (*T, error)
}

type RevocationRepository interface {
	RevokeBefore(ctx context.Context, userID uuid.UUID, cutoff time.Time) error
	RevokedBefore(ctx context.Context, userID uuid.UUID) (time.Time, bool, error)
}
