package store

import (
	"time"

	"room-reservation/pkg/models"
)

type reservationRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"not null;index"`
	RoomID    int64     `gorm:"not null;index:idx_reservations_room_dates,priority:1"`
	StartDate time.Time `gorm:"type:date;not null;index:idx_reservations_room_dates,priority:2"`
	EndDate   time.Time `gorm:"type:date;not null"`
	Status    string    `gorm:"size:20;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (reservationRecord) TableName() string {
	return "reservations"
}

func toRecord(r models.Reservation) reservationRecord {
	return reservationRecord{
		ID:        r.ID,
		UserID:    r.UserID,
		RoomID:    r.RoomID,
		StartDate: r.StartDate.Time(),
		EndDate:   r.EndDate.Time(),
		Status:    string(r.Status),
	}
}

func (rec reservationRecord) toModel() models.Reservation {
	return models.Reservation{
		ID:        rec.ID,
		UserID:    rec.UserID,
		RoomID:    rec.RoomID,
		StartDate: models.DateOf(rec.StartDate),
		EndDate:   models.DateOf(rec.EndDate),
		Status:    models.Status(rec.Status),
	}
}
