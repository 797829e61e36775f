package reservations

import (
	"fmt"

	"room-reservation/pkg/models"
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// validatePayload checks a create or update body. id and status are owned by
// the server and must be left empty by clients.
func validatePayload(r models.Reservation) error {
	if r.ID != 0 {
		return invalid("id should be empty")
	}
	if r.Status != "" {
		return invalid("status should be empty")
	}
	if r.UserID <= 0 {
		return invalid("userId is required")
	}
	if r.RoomID <= 0 {
		return invalid("roomId is required")
	}
	return validateRange(r.StartDate, r.EndDate)
}

func validateRange(start, end models.Date) error {
	if start.IsZero() {
		return invalid("startDate is required")
	}
	if end.IsZero() {
		return invalid("endDate is required")
	}
	if !end.After(start) {
		return invalid("end date must be at least one day after start date (start=%s, end=%s)", start, end)
	}
	return nil
}

func validateFilter(f models.Filter) error {
	if f.PageSize < 0 {
		return invalid("pageSize must be positive, got %d", f.PageSize)
	}
	if f.PageNumber < 0 {
		return invalid("pageNumber must not be negative, got %d", f.PageNumber)
	}
	return nil
}
