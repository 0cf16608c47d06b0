package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/echomed/echomed/internal/platform/auth"
	"github.com/echomed/echomed/pkg/realtime"
)

// -- Mock Repositories --

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockPatientRepo) GetByExternalID(_ context.Context, externalID string) (*Patient, error) {
	for _, p := range m.patients {
		if p.ExternalID == externalID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.patients {
		result = append(result, p)
	}
	return result, len(result), nil
}

type mockDoctorRepo struct {
	doctors map[uuid.UUID]*Doctor
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[uuid.UUID]*Doctor)}
}

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return d, nil
}

func (m *mockDoctorRepo) GetByExternalID(_ context.Context, externalID string) (*Doctor, error) {
	for _, d := range m.doctors {
		if d.ExternalID == externalID {
			return d, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockDoctorRepo) Update(_ context.Context, d *Doctor) error {
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) List(_ context.Context, filter DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	var result []*Doctor
	for _, d := range m.doctors {
		if !d.Verified {
			continue
		}
		if filter.Category != "" && d.Category != filter.Category {
			continue
		}
		if filter.OnlineOnly && !d.IsOnline {
			continue
		}
		result = append(result, d)
	}
	return result, len(result), nil
}

func (m *mockDoctorRepo) SetOnline(_ context.Context, id uuid.UUID, online bool) error {
	d, ok := m.doctors[id]
	if !ok {
		return fmt.Errorf("doctor not found")
	}
	d.IsOnline = online
	return nil
}

func (m *mockDoctorRepo) ListUnverified(_ context.Context, limit, offset int) ([]*Doctor, int, error) {
	var result []*Doctor
	for _, d := range m.doctors {
		if !d.Verified {
			result = append(result, d)
		}
	}
	return result, len(result), nil
}

func (m *mockDoctorRepo) SetVerified(_ context.Context, id uuid.UUID) error {
	d, ok := m.doctors[id]
	if !ok {
		return fmt.Errorf("doctor not found")
	}
	d.Verified = true
	return nil
}

type mockAdminRepo struct {
	admins map[string]*Admin
}

func newMockAdminRepo() *mockAdminRepo {
	return &mockAdminRepo{admins: make(map[string]*Admin)}
}

func (m *mockAdminRepo) Create(_ context.Context, a *Admin) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.admins[a.Email] = a
	return nil
}

func (m *mockAdminRepo) GetByEmail(_ context.Context, email string) (*Admin, error) {
	a, ok := m.admins[email]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return a, nil
}

type mockPublisher struct {
	events []realtime.Event
}

func (m *mockPublisher) Publish(_ context.Context, event realtime.Event) error {
	m.events = append(m.events, event)
	return nil
}

func newTestService() (*Service, *mockDoctorRepo, *mockPublisher) {
	doctors := newMockDoctorRepo()
	pub := &mockPublisher{}
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	svc := NewService(newMockPatientRepo(), doctors, newMockAdminRepo(), issuer, pub, zerolog.Nop())
	return svc, doctors, pub
}

// -- Tests --

func TestRegisterPatient_IssuesToken(t *testing.T) {
	svc, _, _ := newTestService()

	p := &Patient{ExternalID: "idp-1", Name: "Ama Owusu", Email: "ama@example.com"}
	token, err := svc.RegisterPatient(context.Background(), p)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Role != auth.RolePatient {
		t.Errorf("expected patient role, got %s", claims.Role)
	}
	if claims.Subject != p.ID.String() {
		t.Errorf("token subject mismatch: %s", claims.Subject)
	}
}

func TestLoginPatient_ExchangesIdentity(t *testing.T) {
	svc, _, _ := newTestService()

	p := &Patient{ExternalID: "idp-1", Name: "Ama", Email: "ama@example.com"}
	svc.RegisterPatient(context.Background(), p)

	token, got, err := svc.LoginPatient(context.Background(), "idp-1", "AMA@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || got.ID != p.ID {
		t.Errorf("unexpected login result: token=%q user=%+v", token, got)
	}

	if _, _, err := svc.LoginPatient(context.Background(), "idp-1", "other@example.com"); err == nil {
		t.Error("expected error for mismatched email")
	}
	if _, _, err := svc.LoginPatient(context.Background(), "unknown", "ama@example.com"); err == nil {
		t.Error("expected error for unknown external id")
	}
}

func TestRegisterDoctor_StartsUnverifiedOffline(t *testing.T) {
	svc, _, _ := newTestService()

	d := &Doctor{
		ExternalID:    "idp-d1",
		Name:          "Dr. Mensah",
		Email:         "mensah@example.com",
		Specialty:     "Cardiology",
		LicenseNumber: "GH-1234",
		Verified:      true, // must be ignored
		IsOnline:      true, // must be ignored
	}
	if _, err := svc.RegisterDoctor(context.Background(), d); err != nil {
		t.Fatalf("register: %v", err)
	}
	if d.Verified || d.IsOnline {
		t.Errorf("registration must start unverified and offline: %+v", d)
	}
}

func TestRegisterDoctor_RequiresLicense(t *testing.T) {
	svc, _, _ := newTestService()

	d := &Doctor{ExternalID: "x", Name: "Dr. X", Email: "x@example.com", Specialty: "GP"}
	if _, err := svc.RegisterDoctor(context.Background(), d); err == nil {
		t.Error("expected error for missing license_number")
	}
}

func TestListDoctors_Filters(t *testing.T) {
	svc, doctors, _ := newTestService()

	seed := []*Doctor{
		{ExternalID: "a", Name: "A", Email: "a@x.com", Category: "cardiology", Verified: true, IsOnline: true},
		{ExternalID: "b", Name: "B", Email: "b@x.com", Category: "cardiology", Verified: true, IsOnline: false},
		{ExternalID: "c", Name: "C", Email: "c@x.com", Category: "dermatology", Verified: true, IsOnline: true},
		{ExternalID: "d", Name: "D", Email: "d@x.com", Category: "cardiology", Verified: false, IsOnline: true},
	}
	for _, d := range seed {
		doctors.Create(context.Background(), d)
	}

	all, total, err := svc.ListDoctors(context.Background(), DoctorFilter{}, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 verified doctors, got %d (%d returned)", total, len(all))
	}

	cardio, _, _ := svc.ListDoctors(context.Background(), DoctorFilter{Category: "cardiology"}, 20, 0)
	if len(cardio) != 2 {
		t.Errorf("expected 2 cardiology doctors, got %d", len(cardio))
	}

	online, _, _ := svc.ListDoctors(context.Background(), DoctorFilter{Category: "cardiology", OnlineOnly: true}, 20, 0)
	if len(online) != 1 {
		t.Errorf("expected 1 online cardiology doctor, got %d", len(online))
	}
}

func TestUpdateDoctorStatus_PersistsThenPublishes(t *testing.T) {
	svc, doctors, pub := newTestService()

	d := &Doctor{ExternalID: "d42", Name: "Dr. D", Email: "d@x.com", Verified: true}
	doctors.Create(context.Background(), d)

	if err := svc.UpdateDoctorStatus(context.Background(), d.ID, true); err != nil {
		t.Fatalf("update status: %v", err)
	}

	stored, _ := doctors.GetByID(context.Background(), d.ID)
	if !stored.IsOnline {
		t.Error("expected is_online persisted")
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected exactly 1 presence event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Name != realtime.EventDoctorStatusChanged {
		t.Errorf("expected %s, got %s", realtime.EventDoctorStatusChanged, ev.Name)
	}
	var status realtime.DoctorStatus
	json.Unmarshal(ev.Data, &status)
	if status.DoctorID != d.ID.String() || !status.Online {
		t.Errorf("unexpected presence payload: %+v", status)
	}
}

func TestUpdateDoctorStatus_NoEventWhenPersistFails(t *testing.T) {
	svc, _, pub := newTestService()

	if err := svc.UpdateDoctorStatus(context.Background(), uuid.New(), true); err == nil {
		t.Fatal("expected error for unknown doctor")
	}
	if len(pub.events) != 0 {
		t.Errorf("presence published despite failed persist: %d events", len(pub.events))
	}
}

func TestVerifyDoctor(t *testing.T) {
	svc, doctors, _ := newTestService()

	d := &Doctor{ExternalID: "d1", Name: "Dr. D", Email: "d@x.com"}
	doctors.Create(context.Background(), d)

	pending, total, err := svc.ListUnverifiedDoctors(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("list unverified: %v", err)
	}
	if total != 1 || len(pending) != 1 {
		t.Fatalf("expected 1 pending doctor, got %d", total)
	}

	if err := svc.VerifyDoctor(context.Background(), d.ID); err != nil {
		t.Fatalf("verify: %v", err)
	}
	stored, _ := doctors.GetByID(context.Background(), d.ID)
	if !stored.Verified {
		t.Error("doctor not verified")
	}
}

func TestAdminLogin_BcryptRoundTrip(t *testing.T) {
	svc, _, _ := newTestService()

	admin, err := svc.CreateAdmin(context.Background(), "root@echomed.app", "Root", "s3cret-pass")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if admin.PasswordHash == "s3cret-pass" {
		t.Fatal("password stored in clear")
	}

	token, _, err := svc.LoginAdmin(context.Background(), "root@echomed.app", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Role != auth.RoleAdmin {
		t.Errorf("expected admin role, got %s", claims.Role)
	}

	if _, _, err := svc.LoginAdmin(context.Background(), "root@echomed.app", "wrong"); err == nil {
		t.Error("expected error for wrong password")
	}
	if _, _, err := svc.LoginAdmin(context.Background(), "nobody@echomed.app", "s3cret-pass"); err == nil {
		t.Error("expected error for unknown email")
	}
}

func TestCreateAdmin_RejectsShortPassword(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.CreateAdmin(context.Background(), "a@b.c", "A", "short"); err == nil {
		t.Error("expected error for short password")
	}
}
