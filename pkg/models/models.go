package models

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCancelled:
		return true
	}
	return false
}

// Reservation is a booking of one room over the half-open day range
// [StartDate, EndDate). ID is zero until the store assigns one.
type Reservation struct {
	ID        int64  `json:"id,omitempty"`
	UserID    int64  `json:"userId"`
	RoomID    int64  `json:"roomId"`
	StartDate Date   `json:"startDate"`
	EndDate   Date   `json:"endDate"`
	Status    Status `json:"status,omitempty"`
}

// Overlaps reports whether both reservations are on the same room and their
// date ranges intersect.
func (r Reservation) Overlaps(other Reservation) bool {
	return r.RoomID == other.RoomID && Overlaps(r.StartDate, r.EndDate, other.StartDate, other.EndDate)
}

// Overlaps reports whether [s1, e1) and [s2, e2) intersect. Ranges that only
// touch (e1 == s2) do not overlap.
func Overlaps(s1, e1, s2, e2 Date) bool {
	return s1.Before(e2) && s2.Before(e1)
}

const DefaultPageSize = 10

// Filter narrows a reservation listing. Nil ids are unconstrained; a zero
// PageSize means DefaultPageSize.
type Filter struct {
	RoomID     *int64
	UserID     *int64
	PageSize   int
	PageNumber int
}

// OverlapQuery selects reservations on RoomID with the given Status whose range
// intersects [StartDate, EndDate). ExcludeID, when non-zero, is left out.
type OverlapQuery struct {
	RoomID    int64
	StartDate Date
	EndDate   Date
	Status    Status
	ExcludeID int64
}

type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "AVAILABLE"
	AvailabilityReserved  AvailabilityStatus = "RESERVED"
)

type Availability struct {
	Message string             `json:"message"`
	Status  AvailabilityStatus `json:"status"`
}
