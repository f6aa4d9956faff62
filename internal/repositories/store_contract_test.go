package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prudhvinik1/deviceregistry/internal/apperror"
	"github.com/prudhvinik1/deviceregistry/internal/database"
	"github.com/prudhvinik1/deviceregistry/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeHarness is a pair of empty stores plus the session handle to run them on.
type storeHarness struct {
	db      database.DBTX
	users   Store[models.User]
	devices Store[models.Device]
}

func strPtr(s string) *string { return &s }

func createUser(t *testing.T, h storeHarness, email string) *models.User {
	t.Helper()
	u, err := h.users.Create(context.Background(), h.db, Values[models.User]{
		UserEmail:          email,
		UserHashedPassword: "$2a$04$not-a-real-hash",
		UserFullName:       strPtr("Test User"),
	})
	require.NoError(t, err)
	return u
}

func createDevice(t *testing.T, h storeHarness, serial string) *models.Device {
	t.Helper()
	d, err := h.devices.Create(context.Background(), h.db, Values[models.Device]{
		DeviceName:         "device-" + serial,
		DeviceModel:        strPtr("Test-model"),
		DeviceSerialNumber: serial,
	})
	require.NoError(t, err)
	return d
}

// runStoreContract exercises the Store contract against any backend.
func runStoreContract(t *testing.T, newHarness func(t *testing.T) storeHarness) {
	ctx := context.Background()

	t.Run("CreateAppliesDefaults", func(t *testing.T) {
		h := newHarness(t)
		u := createUser(t, h, "a@test.com")

		assert.NotEqual(t, uuid.Nil, u.ID)
		assert.Equal(t, "a@test.com", u.Email)
		assert.True(t, u.IsActive)
		assert.False(t, u.IsSuperuser)
		assert.False(t, u.CreatedAt.IsZero())
		require.NotNil(t, u.FullName)
		assert.Equal(t, "Test User", *u.FullName)
	})

	t.Run("CreateDuplicateEmailConflicts", func(t *testing.T) {
		h := newHarness(t)
		createUser(t, h, "dup@test.com")

		_, err := h.users.Create(ctx, h.db, Values[models.User]{
			UserEmail:          "dup@test.com",
			UserHashedPassword: "x",
		})
		assert.True(t, apperror.Is(err, apperror.KindConflict), "got %v", err)
	})

	t.Run("NullLookupMatchesNothing", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.devices.Create(ctx, h.db, Values[models.Device]{
			DeviceName:         "orphan",
			DeviceSerialNumber: "SN-NULL",
		})
		require.NoError(t, err)

		_, err = h.devices.ReadByColumn(ctx, h.db, DeviceModel, nil)
		assert.True(t, apperror.Is(err, apperror.KindNotFound), "got %v", err)

		got, err := h.devices.ReadMultiByColumn(ctx, h.db, DeviceOwnerID, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("CreateDuplicateSerialConflicts", func(t *testing.T) {
		h := newHarness(t)
		createDevice(t, h, "SN1")

		_, err := h.devices.Create(ctx, h.db, Values[models.Device]{
			DeviceName:         "dev2",
			DeviceSerialNumber: "SN1",
		})
		assert.True(t, apperror.Is(err, apperror.KindConflict), "got %v", err)
	})

	t.Run("CreateMergesExtraValues", func(t *testing.T) {
		h := newHarness(t)
		owner := createUser(t, h, "owner@test.com")

		d, err := h.devices.Create(ctx, h.db,
			Values[models.Device]{DeviceName: "dev1", DeviceSerialNumber: "SN-OWNED"},
			Values[models.Device]{DeviceOwnerID: owner.ID},
		)
		require.NoError(t, err)
		require.NotNil(t, d.OwnerID)
		assert.Equal(t, owner.ID, *d.OwnerID)
		assert.Nil(t, d.Model)
	})

	t.Run("ReadIsIdempotent", func(t *testing.T) {
		h := newHarness(t)
		d := createDevice(t, h, "SN-READ")

		first, err := h.devices.Read(ctx, h.db, d.ID)
		require.NoError(t, err)
		second, err := h.devices.Read(ctx, h.db, d.ID)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, "SN-READ", first.SerialNumber)
	})

	t.Run("ReadMissingIsNotFound", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.devices.Read(ctx, h.db, uuid.New())
		assert.True(t, apperror.Is(err, apperror.KindNotFound), "got %v", err)
	})

	t.Run("ReadByColumn", func(t *testing.T) {
		h := newHarness(t)
		u := createUser(t, h, "find@test.com")

		got, err := h.users.ReadByColumn(ctx, h.db, UserEmail, "find@test.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = h.users.ReadByColumn(ctx, h.db, UserEmail, "missing@test.com")
		assert.True(t, apperror.Is(err, apperror.KindNotFound), "got %v", err)
	})

	t.Run("ReadByColumnRejectsForeignColumn", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.users.ReadByColumn(ctx, h.db, NewColumn[models.User]("serial_number"), "SN1")
		assert.True(t, apperror.Is(err, apperror.KindInvalidColumn), "got %v", err)

		_, err = h.devices.ReadMultiByColumn(ctx, h.db, NewColumn[models.Device]("email"), []string{"a"})
		assert.True(t, apperror.Is(err, apperror.KindInvalidColumn), "got %v", err)
	})

	t.Run("ReadMultiByColumn", func(t *testing.T) {
		h := newHarness(t)
		createDevice(t, h, "SN-A")
		createDevice(t, h, "SN-B")
		createDevice(t, h, "SN-C")

		got, err := h.devices.ReadMultiByColumn(ctx, h.db, DeviceSerialNumber, []string{"SN-A", "SN-C", "SN-Z"})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = h.devices.ReadMultiByColumn(ctx, h.db, DeviceSerialNumber, "SN-B")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "SN-B", got[0].SerialNumber)

		got, err = h.devices.ReadMultiByColumn(ctx, h.db, DeviceSerialNumber, []string{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ReadMultiPages", func(t *testing.T) {
		h := newHarness(t)
		for _, sn := range []string{"P1", "P2", "P3"} {
			createDevice(t, h, sn)
		}

		page, err := h.devices.ReadMulti(ctx, h.db, 0, 2)
		require.NoError(t, err)
		assert.Len(t, page, 2)

		page, err = h.devices.ReadMulti(ctx, h.db, 2, 2)
		require.NoError(t, err)
		assert.Len(t, page, 1)

		page, err = h.devices.ReadMulti(ctx, h.db, 0, 0)
		require.NoError(t, err)
		assert.Len(t, page, 3)

		_, err = h.devices.ReadMulti(ctx, h.db, -1, 10)
		assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
	})

	t.Run("UpdateIsPartial", func(t *testing.T) {
		h := newHarness(t)
		u := createUser(t, h, "patch@test.com")

		updated, err := h.users.Update(ctx, h.db, u, Values[models.User]{
			UserFullName: strPtr("Renamed"),
		})
		require.NoError(t, err)

		require.NotNil(t, updated.FullName)
		assert.Equal(t, "Renamed", *updated.FullName)
		assert.Equal(t, u.Email, updated.Email)
		assert.Equal(t, u.HashedPassword, updated.HashedPassword)
		assert.True(t, updated.IsActive)
		assert.False(t, updated.UpdatedAt.Before(u.UpdatedAt))

		again, err := h.users.Read(ctx, h.db, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", *again.FullName)
	})

	t.Run("UpdateWithEmptyPatchIsNoop", func(t *testing.T) {
		h := newHarness(t)
		u := createUser(t, h, "noop@test.com")

		same, err := h.users.Update(ctx, h.db, u, Values[models.User]{})
		require.NoError(t, err)
		assert.Equal(t, u.Email, same.Email)
		assert.Equal(t, u.FullName, same.FullName)
	})

	t.Run("UpdateRejectsIDChange", func(t *testing.T) {
		h := newHarness(t)
		u := createUser(t, h, "id@test.com")

		_, err := h.users.Update(ctx, h.db, u, Values[models.User]{UserID: uuid.New()})
		assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
	})

	t.Run("UpdateIntoDuplicateConflicts", func(t *testing.T) {
		h := newHarness(t)
		createUser(t, h, "taken@test.com")
		u := createUser(t, h, "free@test.com")

		_, err := h.users.Update(ctx, h.db, u, Values[models.User]{UserEmail: "taken@test.com"})
		assert.True(t, apperror.Is(err, apperror.KindConflict), "got %v", err)
	})

	t.Run("Delete", func(t *testing.T) {
		h := newHarness(t)
		d := createDevice(t, h, "SN-DEL")

		removed, err := h.devices.Delete(ctx, h.db, d.ID)
		require.NoError(t, err)
		assert.Equal(t, d.ID, removed.ID)

		_, err = h.devices.Read(ctx, h.db, d.ID)
		assert.True(t, apperror.Is(err, apperror.KindNotFound), "got %v", err)

		_, err = h.devices.Delete(ctx, h.db, d.ID)
		assert.True(t, apperror.Is(err, apperror.KindNotFound), "got %v", err)
	})
}
