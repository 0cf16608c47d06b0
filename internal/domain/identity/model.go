package identity

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. ExternalID is the identity provider's
// user id; the login endpoints exchange it for an application token.
type Patient struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	ExternalID        string     `db:"external_id" json:"external_id"`
	Name              string     `db:"name" json:"name"`
	Email             string     `db:"email" json:"email"`
	Phone             *string    `db:"phone" json:"phone,omitempty"`
	DateOfBirth       *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender            *string    `db:"gender" json:"gender,omitempty"`
	EmergencyContact  *string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	MedicalHistory    *string    `db:"medical_history" json:"medical_history,omitempty"`
	PreferredLanguage string     `db:"preferred_language" json:"preferred_language"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Doctor maps to the doctor table.
type Doctor struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ExternalID    string    `db:"external_id" json:"external_id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	Specialty     string    `db:"specialty" json:"specialty"`
	Category      string    `db:"category" json:"category"`
	Hospital      *string   `db:"hospital" json:"hospital,omitempty"`
	Bio           *string   `db:"bio" json:"bio,omitempty"`
	LicenseNumber string    `db:"license_number" json:"license_number"`
	Rating        float64   `db:"rating" json:"rating"`
	IsOnline      bool      `db:"is_online" json:"is_online"`
	Verified      bool      `db:"verified" json:"verified"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Admin maps to the admin_user table. Admins authenticate with a password
// rather than through the external identity provider.
type Admin struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DoctorFilter narrows the doctor directory listing.
type DoctorFilter struct {
	Category   string
	OnlineOnly bool
}
