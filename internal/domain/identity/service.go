package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/echomed/echomed/internal/platform/auth"
	"github.com/echomed/echomed/pkg/realtime"
)

// Publisher pushes presence changes to real-time subscribers.
type Publisher interface {
	Publish(ctx context.Context, event realtime.Event) error
}

type Service struct {
	patients PatientRepository
	doctors  DoctorRepository
	admins   AdminRepository
	issuer   *auth.TokenIssuer
	pub      Publisher
	logger   zerolog.Logger
}

func NewService(patients PatientRepository, doctors DoctorRepository, admins AdminRepository,
	issuer *auth.TokenIssuer, pub Publisher, logger zerolog.Logger) *Service {
	return &Service{
		patients: patients,
		doctors:  doctors,
		admins:   admins,
		issuer:   issuer,
		pub:      pub,
		logger:   logger,
	}
}

// -- Patient --

// RegisterPatient creates a patient record tied to an identity-provider user
// and returns an application token.
func (s *Service) RegisterPatient(ctx context.Context, p *Patient) (string, error) {
	if p.ExternalID == "" {
		return "", fmt.Errorf("external_id is required")
	}
	if p.Name == "" || p.Email == "" {
		return "", fmt.Errorf("name and email are required")
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return "", err
	}
	return s.issuer.Issue(p.ID.String(), auth.RolePatient)
}

// LoginPatient exchanges an identity-provider user id and email for an
// application token. The provider authenticated the user upstream; this only
// binds that identity to a local record.
func (s *Service) LoginPatient(ctx context.Context, externalID, email string) (string, *Patient, error) {
	p, err := s.patients.GetByExternalID(ctx, externalID)
	if err != nil {
		return "", nil, fmt.Errorf("patient not registered")
	}
	if !strings.EqualFold(p.Email, email) {
		return "", nil, fmt.Errorf("email does not match registration")
	}
	token, err := s.issuer.Issue(p.ID.String(), auth.RolePatient)
	if err != nil {
		return "", nil, err
	}
	return token, p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" || p.Email == "" {
		return fmt.Errorf("name and email are required")
	}
	return s.patients.Update(ctx, p)
}

// -- Doctor --

// RegisterDoctor creates an unverified doctor record. Unverified doctors do
// not appear in the directory until an admin verifies the license.
func (s *Service) RegisterDoctor(ctx context.Context, d *Doctor) (string, error) {
	if d.ExternalID == "" {
		return "", fmt.Errorf("external_id is required")
	}
	if d.Name == "" || d.Email == "" {
		return "", fmt.Errorf("name and email are required")
	}
	if d.Specialty == "" {
		return "", fmt.Errorf("specialty is required")
	}
	if d.LicenseNumber == "" {
		return "", fmt.Errorf("license_number is required")
	}
	d.Verified = false
	d.IsOnline = false
	if err := s.doctors.Create(ctx, d); err != nil {
		return "", err
	}
	return s.issuer.Issue(d.ID.String(), auth.RoleDoctor)
}

func (s *Service) LoginDoctor(ctx context.Context, externalID, email string) (string, *Doctor, error) {
	d, err := s.doctors.GetByExternalID(ctx, externalID)
	if err != nil {
		return "", nil, fmt.Errorf("doctor not registered")
	}
	if !strings.EqualFold(d.Email, email) {
		return "", nil, fmt.Errorf("email does not match registration")
	}
	token, err := s.issuer.Issue(d.ID.String(), auth.RoleDoctor)
	if err != nil {
		return "", nil, err
	}
	return token, d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) UpdateDoctorProfile(ctx context.Context, d *Doctor) error {
	if d.Name == "" || d.Email == "" {
		return fmt.Errorf("name and email are required")
	}
	return s.doctors.Update(ctx, d)
}

// ListDoctors returns the verified doctor directory, optionally filtered by
// category and availability.
func (s *Service) ListDoctors(ctx context.Context, filter DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, filter, limit, offset)
}

// UpdateDoctorStatus persists the presence flag and then announces it.
// The announcement only goes out after the persist succeeds, so observers
// never see a presence the database does not hold.
func (s *Service) UpdateDoctorStatus(ctx context.Context, id uuid.UUID, online bool) error {
	if err := s.doctors.SetOnline(ctx, id, online); err != nil {
		return err
	}

	data, err := json.Marshal(realtime.DoctorStatus{DoctorID: id.String(), Online: online})
	if err != nil {
		s.logger.Warn().Err(err).Msg("presence payload marshal failed")
		return nil
	}
	event := realtime.Event{
		Name:      realtime.EventDoctorStatusChanged,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	if s.pub != nil {
		if err := s.pub.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Msg("presence publish failed")
		}
	}
	return nil
}

func (s *Service) ListUnverifiedDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.ListUnverified(ctx, limit, offset)
}

func (s *Service) VerifyDoctor(ctx context.Context, id uuid.UUID) error {
	return s.doctors.SetVerified(ctx, id)
}

// -- Admin --

// CreateAdmin hashes the password with bcrypt and stores the account.
func (s *Service) CreateAdmin(ctx context.Context, email, name, password string) (*Admin, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	admin := &Admin{Email: email, Name: name, PasswordHash: string(hash)}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// LoginAdmin verifies the password and returns an admin token. The error is
// identical for unknown email and wrong password.
func (s *Service) LoginAdmin(ctx context.Context, email, password string) (string, *Admin, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}
	token, err := s.issuer.Issue(admin.ID.String(), auth.RoleAdmin)
	if err != nil {
		return "", nil, err
	}
	return token, admin, nil
}
