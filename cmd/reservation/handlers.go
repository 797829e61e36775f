package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"room-reservation/pkg/database"
	"room-reservation/pkg/middleware"
	"room-reservation/pkg/models"
	"room-reservation/pkg/roomlock"
)

type errorResponse struct {
	Message         string    `json:"message"`
	DetailedMessage string    `json:"detailedMessage"`
	ErrorTime       time.Time `json:"errorTime"`
}

type availabilityRequest struct {
	RoomID    int64       `json:"roomId"`
	StartDate models.Date `json:"startDate"`
	EndDate   models.Date `json:"endDate"`
}

func getReservation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	logger.Info("called getReservation", zap.Int64("id", id))

	reservation, err := manager.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservation)
}

func searchReservations(c *gin.Context) {
	logger.Info("called searchReservations", zap.String("query", c.Request.URL.RawQuery))

	var filter models.Filter
	var err error
	if filter.RoomID, err = optionalInt64(c, "roomId"); err != nil {
		respondError(c, err)
		return
	}
	if filter.UserID, err = optionalInt64(c, "userId"); err != nil {
		respondError(c, err)
		return
	}
	if filter.PageSize, err = optionalInt(c, "pageSize"); err != nil {
		respondError(c, err)
		return
	}
	if filter.PageNumber, err = optionalInt(c, "pageNumber"); err != nil {
		respondError(c, err)
		return
	}

	items, err := manager.Search(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func createReservation(c *gin.Context) {
	var request models.Reservation
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body: %v", models.ErrInvalidArgument, err))
		return
	}
	logger.Info("called createReservation",
		zap.Int64("userId", request.UserID),
		zap.Int64("roomId", request.RoomID))

	created, err := manager.Create(c.Request.Context(), request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func updateReservation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var request models.Reservation
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body: %v", models.ErrInvalidArgument, err))
		return
	}
	logger.Info("called updateReservation", zap.Int64("id", id))

	updated, err := manager.Update(c.Request.Context(), id, request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func cancelReservation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	logger.Info("called cancelReservation", zap.Int64("id", id))

	if err := manager.Cancel(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func approveReservation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	logger.Info("called approveReservation", zap.Int64("id", id))

	approved, err := manager.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, approved)
}

func checkAvailability(c *gin.Context) {
	var request availabilityRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body: %v", models.ErrInvalidArgument, err))
		return
	}
	logger.Info("called checkAvailability",
		zap.Int64("roomId", request.RoomID),
		zap.Stringer("startDate", request.StartDate),
		zap.Stringer("endDate", request.EndDate))

	availability, err := manager.CheckAvailability(c.Request.Context(), request.RoomID, request.StartDate, request.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

func healthCheck(c *gin.Context) {
	if err := database.Ping(c.Request.Context(), db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database ping failed",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, fmt.Errorf("%w: invalid reservation id %q", models.ErrInvalidArgument, c.Param("id")))
		return 0, false
	}
	return id, true
}

func optionalInt64(c *gin.Context, key string) (*int64, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number, got %q", models.ErrInvalidArgument, key, raw)
	}
	return &v, nil
}

func optionalInt(c *gin.Context, key string) (int, error) {
	v, err := optionalInt64(c, key)
	if err != nil || v == nil {
		return 0, err
	}
	return int(*v), nil
}

// statusFor maps core failures to HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, models.ErrInvalidArgument), errors.Is(err, models.ErrIllegalState):
		return http.StatusBadRequest, "Bad request"
	case errors.Is(err, roomlock.ErrLockWait):
		return http.StatusServiceUnavailable, "Service unavailable"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func respondError(c *gin.Context, err error) {
	status, message := statusFor(err)
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("requestId", middleware.GetRequestID(c)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Warn("request rejected", fields...)
	}
	c.JSON(status, errorResponse{
		Message:         message,
		DetailedMessage: err.Error(),
		ErrorTime:       time.Now(),
	})
}
