package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prudhvinik1/deviceregistry/internal/apperror"
	"github.com/prudhvinik1/deviceregistry/internal/database"
	"github.com/prudhvinik1/deviceregistry/internal/models"
	"github.com/prudhvinik1/deviceregistry/internal/repositories"
)

type DeviceService struct {
	devices repositories.Store[models.Device]
}

func NewDeviceService(devices repositories.Store[models.Device]) *DeviceService {
	return &DeviceService{devices: devices}
}

// Create registers a device owned by owner. The serial number must be unused.
func (s *DeviceService) Create(ctx context.Context, db database.DBTX, owner *models.User, in models.DeviceCreate) (*models.Device, error) {
	_, err := s.devices.ReadByColumn(ctx, db, repositories.DeviceSerialNumber, in.SerialNumber)
	if err == nil {
		return nil, apperror.Conflict("device_exists",
			fmt.Sprintf("device with serial number '%s' already exists", in.SerialNumber))
	}
	if !apperror.Is(err, apperror.KindNotFound) {
		return nil, err
	}

	return s.devices.Create(ctx, db,
		repositories.Values[models.Device]{
			repositories.DeviceName:         in.Name,
			repositories.DeviceModel:        in.Model,
			repositories.DeviceSerialNumber: in.SerialNumber,
		},
		repositories.Values[models.Device]{
			repositories.DeviceOwnerID: owner.ID,
		},
	)
}

func (s *DeviceService) Get(ctx context.Context, db database.DBTX, id uuid.UUID) (*models.Device, error) {
	return s.devices.Read(ctx, db, id)
}

func (s *DeviceService) List(ctx context.Context, db database.DBTX, offset, limit int) ([]*models.Device, error) {
	return s.devices.ReadMulti(ctx, db, offset, limit)
}

// ListOwned returns the devices registered by owner.
func (s *DeviceService) ListOwned(ctx context.Context, db database.DBTX, owner *models.User) ([]*models.Device, error) {
	return s.devices.ReadMultiByColumn(ctx, db, repositories.DeviceOwnerID, owner.ID)
}
