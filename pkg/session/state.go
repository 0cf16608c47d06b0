// Package session holds the client-side application state: who is logged in,
// in what role, in what language, plus best-effort local mirrors of
// server-owned collections. State changes flow through a closed set of typed
// actions applied by a pure reducer; the Store serializes dispatch and owns
// the persisted-credential lifecycle.
package session

import (
	"strings"
	"time"
)

// Role identifies the authenticated actor's kind. RoleNone means no session.
type Role string

const (
	RoleNone    Role = ""
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a persisted user-type string to a Role. Unknown values map
// to RoleNone.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patient":
		return RolePatient
	case "doctor":
		return RoleDoctor
	case "admin":
		return RoleAdmin
	default:
		return RoleNone
	}
}

// Locale is a supported interface language code.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleTwi     Locale = "tw"
	LocaleEwe     Locale = "ee"
	LocaleGa      Locale = "ga"
	LocaleHausa   Locale = "ha"
)

// DefaultLocale is the locale of a fresh session.
const DefaultLocale = LocaleEnglish

// ParseLocale maps a language code to a Locale, falling back to the default
// for unknown codes.
func ParseLocale(s string) Locale {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case LocaleEnglish, LocaleTwi, LocaleEwe, LocaleGa, LocaleHausa:
		return Locale(strings.ToLower(strings.TrimSpace(s)))
	default:
		return DefaultLocale
	}
}

// Profile is the authenticated user's identity as fetched from the backend.
// Doctor-specific fields are empty for patients.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Specialty string `json:"specialty,omitempty"`
	Hospital  string `json:"hospital,omitempty"`
}

// Consultation is the client-local snapshot of a consultation.
type Consultation struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	DoctorID  string    `json:"doctorId"`
	Status    string    `json:"status"`
	Type      string    `json:"type"`
	Symptoms  string    `json:"symptoms,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HomeVisit is the client-local snapshot of a home-visit booking.
type HomeVisit struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	Status      string    `json:"status"`
	Address     string    `json:"address"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Cost        float64   `json:"cost,omitempty"`
}

// CycleLog is the client-local snapshot of a menstrual-cycle log entry.
type CycleLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	StartDate time.Time `json:"startDate"`
	Flow      string    `json:"flow"`
	Symptoms  []string  `json:"symptoms,omitempty"`
	Mood      string    `json:"mood,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// State is one immutable snapshot of the session. Reducers never mutate a
// snapshot in place; appends copy the underlying slice.
type State struct {
	Identity      *Profile
	Role          Role
	Locale        Locale
	Authenticated bool
	Loading       bool

	// Append-only caches. Duplicates by id are tolerated here and
	// deduplicated by consumers that render unique lists.
	Consultations []Consultation
	HomeVisits    []HomeVisit
	CycleLogs     []CycleLog
}

// NewState returns the state of a fresh process: empty identity, default
// locale, loading until bootstrap completes.
func NewState() State {
	return State{
		Locale:  DefaultLocale,
		Loading: true,
	}
}

// Action is one element of the closed set of state transitions. The sealed
// marker keeps the set closed to this package's types.
type Action interface {
	isAction()
}

type SetIdentity struct{ Identity *Profile }
type SetRole struct{ Role Role }
type SetLocale struct{ Locale Locale }
type SetAuthenticated struct{ Authenticated bool }
type SetLoading struct{ Loading bool }
type AppendConsultation struct{ Consultation Consultation }
type AppendHomeVisit struct{ HomeVisit HomeVisit }
type AppendCycleLog struct{ CycleLog CycleLog }

// Logout resets every field to its initial default except Locale, which is a
// device preference rather than a session attribute.
type Logout struct{}

func (SetIdentity) isAction()        {}
func (SetRole) isAction()            {}
func (SetLocale) isAction()          {}
func (SetAuthenticated) isAction()   {}
func (SetLoading) isAction()         {}
func (AppendConsultation) isAction() {}
func (AppendHomeVisit) isAction()    {}
func (AppendCycleLog) isAction()     {}
func (Logout) isAction()             {}

// Reduce applies one action to a state snapshot and returns the next
// snapshot. It is pure: no I/O, no mutation of the input. A nil or
// unrecognized action returns the state unchanged.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case SetIdentity:
		s.Identity = act.Identity
	case SetRole:
		s.Role = act.Role
	case SetLocale:
		s.Locale = act.Locale
	case SetAuthenticated:
		s.Authenticated = act.Authenticated
	case SetLoading:
		s.Loading = act.Loading
	case AppendConsultation:
		s.Consultations = appendCopy(s.Consultations, act.Consultation)
	case AppendHomeVisit:
		s.HomeVisits = appendCopy(s.HomeVisits, act.HomeVisit)
	case AppendCycleLog:
		s.CycleLogs = appendCopy(s.CycleLogs, act.CycleLog)
	case Logout:
		next := NewState()
		next.Locale = s.Locale
		next.Loading = false
		return next
	}
	return s
}

// appendCopy appends without sharing the backing array with the previous
// snapshot.
func appendCopy[T any](items []T, item T) []T {
	next := make([]T, len(items), len(items)+1)
	copy(next, items)
	return append(next, item)
}

// DeduplicateConsultations returns the cache with later duplicates by id
// removed, preserving first-seen order.
func DeduplicateConsultations(items []Consultation) []Consultation {
	return dedupe(items, func(c Consultation) string { return c.ID })
}

// DeduplicateHomeVisits returns the cache with later duplicates by id
// removed, preserving first-seen order.
func DeduplicateHomeVisits(items []HomeVisit) []HomeVisit {
	return dedupe(items, func(v HomeVisit) string { return v.ID })
}

// DeduplicateCycleLogs returns the cache with later duplicates by id
// removed, preserving first-seen order.
func DeduplicateCycleLogs(items []CycleLog) []CycleLog {
	return dedupe(items, func(l CycleLog) string { return l.ID })
}

func dedupe[T any](items []T, id func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		key := id(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
