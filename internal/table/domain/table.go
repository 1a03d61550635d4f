package domain

import (
	"errors"
	"time"
)

// Table is a dining table on the floor.
type Table struct {
	ID        string    `json:"id"`
	Number    int       `json:"number"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Status string

const (
	StatusAvailable Status = "available"
	StatusOccupied  Status = "occupied"
	StatusReserved  Status = "reserved"
	StatusCleaning  Status = "cleaning"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusReserved, StatusCleaning:
		return true
	}
	return false
}

var (
	ErrInvalidNumber   = errors.New("table number must be greater than 0")
	ErrInvalidCapacity = errors.New("capacity must be greater than 0")
	ErrInvalidStatus   = errors.New("invalid table status")
)

// Validate checks t for persistence. An empty status defaults to available.
func (t *Table) Validate() error {
	if t.Number <= 0 {
		return ErrInvalidNumber
	}
	if t.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if t.Status == "" {
		t.Status = StatusAvailable
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}
