// Package prescription manages the prescriptions doctors issue during or
// after a consultation.
package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription is a single medication order issued by a doctor.
type Prescription struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ConsultationID *uuid.UUID `db:"consultation_id" json:"consultation_id,omitempty"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID       uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Medication     string     `db:"medication" json:"medication"`
	Dosage         string     `db:"dosage" json:"dosage"`
	Frequency      string     `db:"frequency" json:"frequency"`
	Duration       string     `db:"duration" json:"duration"`
	Instructions   *string    `db:"instructions" json:"instructions,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
