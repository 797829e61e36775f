// Package store keeps reservations in a SQL database through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"room-reservation/pkg/models"
	"room-reservation/pkg/roomlock"
)

type txKey struct{}

type Store struct {
	db       *gorm.DB
	locker   roomlock.Locker
	lockWait time.Duration
}

// New returns a Store on db. A nil locker means an in-process room lock.
func New(db *gorm.DB, locker roomlock.Locker) *Store {
	if locker == nil {
		locker = roomlock.NewLocal()
	}
	return &Store{db: db, locker: locker}
}

// WithLockWait bounds how long InRoomTx waits for the room lock.
func (s *Store) WithLockWait(d time.Duration) *Store {
	s.lockWait = d
	return s
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&reservationRecord{})
}

// conn returns the transaction opened by InRoomTx when ctx carries one.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func (s *Store) Get(ctx context.Context, id int64) (models.Reservation, error) {
	var rec reservationRecord
	if err := s.conn(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Reservation{}, notFound(id)
		}
		return models.Reservation{}, fmt.Errorf("get reservation %d: %w", id, err)
	}
	return rec.toModel(), nil
}

func (s *Store) List(ctx context.Context, filter models.Filter) ([]models.Reservation, error) {
	size := filter.PageSize
	if size <= 0 {
		size = models.DefaultPageSize
	}
	page := filter.PageNumber
	if page < 0 {
		page = 0
	}

	q := s.conn(ctx).Model(&reservationRecord{})
	if filter.RoomID != nil {
		q = q.Where("room_id = ?", *filter.RoomID)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}

	var recs []reservationRecord
	if err := q.Order("id").Limit(size).Offset(page * size).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	out := make([]models.Reservation, len(recs))
	for i, rec := range recs {
		out[i] = rec.toModel()
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, r models.Reservation) (models.Reservation, error) {
	if r.ID != 0 {
		return models.Reservation{}, fmt.Errorf("%w: id is assigned by the store", models.ErrInvalidArgument)
	}
	rec := toRecord(r)
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return models.Reservation{}, fmt.Errorf("insert reservation: %w", err)
	}
	return rec.toModel(), nil
}

// Replace overwrites every field of reservation id, status included.
func (s *Store) Replace(ctx context.Context, id int64, r models.Reservation) (models.Reservation, error) {
	rec := toRecord(r)
	res := s.conn(ctx).Model(&reservationRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		"user_id":    rec.UserID,
		"room_id":    rec.RoomID,
		"start_date": rec.StartDate,
		"end_date":   rec.EndDate,
		"status":     rec.Status,
	})
	if res.Error != nil {
		return models.Reservation{}, fmt.Errorf("replace reservation %d: %w", id, res.Error)
	}
	if err := s.ensureUpdated(ctx, id, res.RowsAffected); err != nil {
		return models.Reservation{}, err
	}
	return s.Get(ctx, id)
}

func (s *Store) SetStatus(ctx context.Context, id int64, status models.Status) error {
	res := s.conn(ctx).Model(&reservationRecord{}).Where("id = ?", id).Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("set status of reservation %d: %w", id, res.Error)
	}
	return s.ensureUpdated(ctx, id, res.RowsAffected)
}

// MySQL reports matched-but-unchanged rows as unaffected, so zero rows
// only means missing once the id is confirmed absent.
func (s *Store) ensureUpdated(ctx context.Context, id int64, affected int64) error {
	if affected > 0 {
		return nil
	}
	var count int64
	if err := s.conn(ctx).Model(&reservationRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check reservation %d: %w", id, err)
	}
	if count == 0 {
		return notFound(id)
	}
	return nil
}

// FindOverlapping returns, in id order, the reservations matching q. Ranges
// are half-open, so a reservation ending on q.StartDate is not returned.
func (s *Store) FindOverlapping(ctx context.Context, q models.OverlapQuery) ([]int64, error) {
	tx := s.conn(ctx).Model(&reservationRecord{}).
		Where("room_id = ?", q.RoomID).
		Where("? < end_date AND start_date < ?", q.StartDate.Time(), q.EndDate.Time()).
		Where("status = ?", string(q.Status))
	if q.ExcludeID != 0 {
		tx = tx.Where("id <> ?", q.ExcludeID)
	}
	if _, inTx := ctx.Value(txKey{}).(*gorm.DB); inTx && s.db.Dialector.Name() == "mysql" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	ids := make([]int64, 0)
	if err := tx.Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("find overlapping reservations on room %d: %w", q.RoomID, err)
	}
	return ids, nil
}

// InRoomTx runs fn while holding the room lock and inside one database
// transaction. Store calls made with the ctx passed to fn join that
// transaction. On postgres the transaction also takes an advisory lock on the
// room, which holds across service instances. Nested calls reuse the outer
// transaction.
func (s *Store) InRoomTx(ctx context.Context, roomID int64, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	lockCtx := ctx
	if s.lockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.lockWait)
		defer cancel()
	}
	unlock, err := s.locker.Lock(lockCtx, roomID)
	if err != nil {
		return fmt.Errorf("lock room %d: %w", roomID, err)
	}
	defer unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", roomID).Error; err != nil {
				return fmt.Errorf("advisory lock room %d: %w", roomID, err)
			}
		}
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func notFound(id int64) error {
	return fmt.Errorf("%w: reservation with id %d", models.ErrNotFound, id)
}
