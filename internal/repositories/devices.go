package repositories

import (
	"github.com/google/uuid"
	"github.com/prudhvinik1/deviceregistry/internal/models"
)

var (
	DeviceID           = Column[models.Device]{name: "id"}
	DeviceName         = Column[models.Device]{name: "name"}
	DeviceModel        = Column[models.Device]{name: "model"}
	DeviceSerialNumber = Column[models.Device]{name: "serial_number"}
	DeviceOwnerID      = Column[models.Device]{name: "owner_id"}
)

func DeviceDescriptor() Descriptor[models.Device] {
	return Descriptor[models.Device]{
		Entity: "device",
		Table:  "devices",
		Columns: []string{
			"id", "name", "model", "serial_number", "owner_id", "created_at", "updated_at",
		},
		Fields: func(d *models.Device) []any {
			return []any{
				&d.ID, &d.Name, &d.Model, &d.SerialNumber, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt,
			}
		},
		ID:         func(d *models.Device) uuid.UUID { return d.ID },
		Unique:     []string{"serial_number"},
		Timestamps: true,
	}
}

func NewPostgresDeviceStore() *PostgresStore[models.Device] {
	return NewPostgresStore(DeviceDescriptor())
}

func NewMemoryDeviceStore() *MemoryStore[models.Device] {
	return NewMemoryStore(DeviceDescriptor())
}
