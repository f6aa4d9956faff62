package handlers

import (
	"context"
	"net/http"

	"github.com/prudhvinik1/deviceregistry/internal/database"
	"github.com/prudhvinik1/deviceregistry/internal/models"
)

func (h *Handler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var device *models.Device
	err := h.withUser(r, func(ctx context.Context, db database.DBTX, user *models.User) error {
		var in models.DeviceCreate
		if err := decodeJSON(r, h.validate, &in); err != nil {
			return err
		}
		var err error
		device, err = h.devices.Create(ctx, db, user, in)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, device)
}

// ListDevices lists every device; ?mine=true narrows it to the caller's.
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	var devices []*models.Device
	err := h.withUser(r, func(ctx context.Context, db database.DBTX, user *models.User) error {
		mine, err := boolParam(r, "mine")
		if err != nil {
			return err
		}
		if mine {
			devices, err = h.devices.ListOwned(ctx, db, user)
			return err
		}

		offset, limit, err := pageParams(r)
		if err != nil {
			return err
		}
		devices, err = h.devices.List(ctx, db, offset, limit)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, devices)
}

func (h *Handler) GetDevice(w http.ResponseWriter, r *http.Request) {
	var device *models.Device
	err := h.withUser(r, func(ctx context.Context, db database.DBTX, _ *models.User) error {
		id, err := pathID(r, "id")
		if err != nil {
			return err
		}
		device, err = h.devices.Get(ctx, db, id)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, device)
}
