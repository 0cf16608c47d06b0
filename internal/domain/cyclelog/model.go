// Package cyclelog records menstrual cycle entries for patients.
package cyclelog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Flow is the recorded flow intensity for a day.
type Flow string

const (
	FlowLight  Flow = "light"
	FlowMedium Flow = "medium"
	FlowHeavy  Flow = "heavy"
)

// ParseFlow normalizes a raw flow string. Matching is case-insensitive.
func ParseFlow(s string) (Flow, error) {
	switch Flow(strings.ToLower(strings.TrimSpace(s))) {
	case FlowLight:
		return FlowLight, nil
	case FlowMedium:
		return FlowMedium, nil
	case FlowHeavy:
		return FlowHeavy, nil
	default:
		return "", fmt.Errorf("unknown flow %q", s)
	}
}

// CycleLog is one day's entry. Symptoms are free-form labels chosen by the
// user.
type CycleLog struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Date      time.Time `db:"date" json:"date"`
	Flow      Flow      `db:"flow" json:"flow"`
	Symptoms  []string  `db:"symptoms" json:"symptoms,omitempty"`
	Mood      *string   `db:"mood" json:"mood,omitempty"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
