// Package reservations owns the reservation lifecycle: PENDING reservations
// may be edited, cancelled or approved; APPROVED and CANCELLED are final.
// Approval is refused while another APPROVED reservation on the same room
// overlaps the requested days.
package reservations

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"room-reservation/pkg/models"
)

// Store is the persistence the Manager needs. InRoomTx must run fn
// atomically and exclusively with respect to every other InRoomTx on the
// same room; store calls made with the ctx handed to fn take part in it.
type Store interface {
	Get(ctx context.Context, id int64) (models.Reservation, error)
	List(ctx context.Context, filter models.Filter) ([]models.Reservation, error)
	Insert(ctx context.Context, r models.Reservation) (models.Reservation, error)
	Replace(ctx context.Context, id int64, r models.Reservation) (models.Reservation, error)
	SetStatus(ctx context.Context, id int64, status models.Status) error
	FindOverlapping(ctx context.Context, q models.OverlapQuery) ([]int64, error)
	InRoomTx(ctx context.Context, roomID int64, fn func(ctx context.Context) error) error
}

// Manager is the only writer of reservation status. It keeps no state of its
// own and is safe for concurrent use.
type Manager struct {
	store    Store
	log      *zap.Logger
	pageSize int
}

func NewManager(store Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, log: log, pageSize: models.DefaultPageSize}
}

// WithDefaultPageSize sets the page size used when a search leaves it unset.
func (m *Manager) WithDefaultPageSize(n int) *Manager {
	if n > 0 {
		m.pageSize = n
	}
	return m
}

func (m *Manager) Get(ctx context.Context, id int64) (models.Reservation, error) {
	return m.store.Get(ctx, id)
}

func (m *Manager) Search(ctx context.Context, filter models.Filter) ([]models.Reservation, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if filter.PageSize == 0 {
		filter.PageSize = m.pageSize
	}
	return m.store.List(ctx, filter)
}

// Create stores a new PENDING reservation.
func (m *Manager) Create(ctx context.Context, payload models.Reservation) (models.Reservation, error) {
	if err := validatePayload(payload); err != nil {
		return models.Reservation{}, err
	}
	payload.Status = models.StatusPending

	created, err := m.store.Insert(ctx, payload)
	if err != nil {
		return models.Reservation{}, err
	}
	m.log.Info("reservation created",
		zap.Int64("id", created.ID),
		zap.Int64("roomId", created.RoomID),
		zap.Stringer("startDate", created.StartDate),
		zap.Stringer("endDate", created.EndDate))
	return created, nil
}

// Update replaces user, room and dates of a PENDING reservation. Overlaps
// are not checked here; they only block approval.
func (m *Manager) Update(ctx context.Context, id int64, payload models.Reservation) (models.Reservation, error) {
	var updated models.Reservation
	err := m.withReservation(ctx, id, func(ctx context.Context, current models.Reservation) error {
		if current.Status != models.StatusPending {
			return fmt.Errorf("%w: cannot modify reservation %d: status = %s", models.ErrIllegalState, id, current.Status)
		}
		if err := validatePayload(payload); err != nil {
			return err
		}

		next := payload
		next.ID = id
		next.Status = models.StatusPending
		var err error
		updated, err = m.store.Replace(ctx, id, next)
		return err
	})
	if err != nil {
		return models.Reservation{}, err
	}
	m.log.Info("reservation updated", zap.Int64("id", id), zap.Int64("roomId", updated.RoomID))
	return updated, nil
}

// Cancel moves a PENDING reservation to CANCELLED. Approved reservations can
// only be withdrawn by a manager, and cancelling twice is an error.
func (m *Manager) Cancel(ctx context.Context, id int64) error {
	err := m.withReservation(ctx, id, func(ctx context.Context, current models.Reservation) error {
		switch current.Status {
		case models.StatusApproved:
			return fmt.Errorf("%w: cannot cancel approved reservation %d, please contact a manager", models.ErrIllegalState, id)
		case models.StatusCancelled:
			return fmt.Errorf("%w: cannot cancel reservation %d, it was already cancelled", models.ErrIllegalState, id)
		}
		return m.store.SetStatus(ctx, id, models.StatusCancelled)
	})
	if err != nil {
		return err
	}
	m.log.Info("reservation cancelled", zap.Int64("id", id))
	return nil
}

// Approve moves a PENDING reservation to APPROVED unless an APPROVED
// reservation on the same room overlaps it. The check and the write happen
// inside one room transaction, so two overlapping approvals cannot both pass.
func (m *Manager) Approve(ctx context.Context, id int64) (models.Reservation, error) {
	var approved models.Reservation
	err := m.withReservation(ctx, id, func(ctx context.Context, current models.Reservation) error {
		if current.Status != models.StatusPending {
			return fmt.Errorf("%w: cannot approve reservation %d: status = %s", models.ErrIllegalState, id, current.Status)
		}

		conflicts, err := m.store.FindOverlapping(ctx, models.OverlapQuery{
			RoomID:    current.RoomID,
			StartDate: current.StartDate,
			EndDate:   current.EndDate,
			Status:    models.StatusApproved,
			ExcludeID: id,
		})
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			m.log.Info("approval rejected, conflicting reservations",
				zap.Int64("id", id),
				zap.Int64("roomId", current.RoomID),
				zap.Int64s("conflictingIds", conflicts))
			return fmt.Errorf("%w: cannot approve reservation %d, it overlaps approved reservations %v",
				models.ErrConflict, id, conflicts)
		}

		if err := m.store.SetStatus(ctx, id, models.StatusApproved); err != nil {
			return err
		}
		approved = current
		approved.Status = models.StatusApproved
		return nil
	})
	if err != nil {
		return models.Reservation{}, err
	}
	m.log.Info("reservation approved", zap.Int64("id", id), zap.Int64("roomId", approved.RoomID))
	return approved, nil
}

// withReservation loads reservation id, locks its room and hands fn a copy
// re-read inside the room transaction.
func (m *Manager) withReservation(ctx context.Context, id int64, fn func(ctx context.Context, current models.Reservation) error) error {
	loaded, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}

	return m.store.InRoomTx(ctx, loaded.RoomID, func(ctx context.Context) error {
		current, err := m.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if current.RoomID != loaded.RoomID {
			return fmt.Errorf("%w: reservation %d moved to another room concurrently, retry", models.ErrIllegalState, id)
		}
		return fn(ctx, current)
	})
}
