package reservations

import (
	"context"

	"go.uber.org/zap"

	"room-reservation/pkg/models"
)

const (
	messageAvailable   = "Room available to reservation"
	messageUnavailable = "Room not available to reservation"
)

// CheckAvailability reports whether [start, end) on roomID is free of APPROVED
// reservations. It reads without locking, so the answer may be stale by the
// time a reservation is approved.
func (m *Manager) CheckAvailability(ctx context.Context, roomID int64, start, end models.Date) (models.Availability, error) {
	if roomID <= 0 {
		return models.Availability{}, invalid("roomId is required")
	}
	if err := validateRange(start, end); err != nil {
		return models.Availability{}, err
	}

	conflicts, err := m.store.FindOverlapping(ctx, models.OverlapQuery{
		RoomID:    roomID,
		StartDate: start,
		EndDate:   end,
		Status:    models.StatusApproved,
	})
	if err != nil {
		return models.Availability{}, err
	}

	if len(conflicts) == 0 {
		return models.Availability{Message: messageAvailable, Status: models.AvailabilityAvailable}, nil
	}
	m.log.Info("room not available",
		zap.Int64("roomId", roomID),
		zap.Int64s("conflictingIds", conflicts))
	return models.Availability{Message: messageUnavailable, Status: models.AvailabilityReserved}, nil
}
