// Package homevisit schedules provider visits to a patient's home.
package homevisit

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a home visit.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus normalizes a raw status string. Matching is case-insensitive;
// the stored form is always lower case.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusCompleted:
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("unknown home visit status %q", s)
	}
}

// validTransitions is the forward-only lifecycle: pending -> confirmed ->
// in-progress -> completed.
var validTransitions = map[Status]Status{
	StatusPending:    StatusConfirmed,
	StatusConfirmed:  StatusInProgress,
	StatusInProgress: StatusCompleted,
}

// CanTransition reports whether a visit may move from one status to another.
func CanTransition(from, to Status) bool {
	return validTransitions[from] == to
}

// HomeVisit is a scheduled in-person visit. DoctorID is nil until a provider
// is assigned.
type HomeVisit struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID    *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	Status      Status     `db:"status" json:"status"`
	ScheduledAt time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Address     string     `db:"address" json:"address"`
	Latitude    *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude   *float64   `db:"longitude" json:"longitude,omitempty"`
	Directions  *string    `db:"directions" json:"directions,omitempty"`
	Reason      string     `db:"reason" json:"reason"`
	Cost        float64    `db:"cost" json:"cost"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
