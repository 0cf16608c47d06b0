package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Store is the single source of truth for the running session. Dispatch
// calls are serialized by a mutex so no two mutations ever race on the same
// snapshot. The Store is also the only component that reads or writes the
// persisted credential store; the reducer itself never performs I/O.
type Store struct {
	mu    sync.Mutex
	state State

	creds   CredentialStore
	fetcher ProfileFetcher
	logger  zerolog.Logger

	bootstrapped bool
}

// NewStore creates a store with a fresh initial state.
func NewStore(creds CredentialStore, fetcher ProfileFetcher, logger zerolog.Logger) *Store {
	return &Store{
		state:   NewState(),
		creds:   creds,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Dispatch applies one action through the reducer.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
}

// Snapshot returns the current state. The snapshot is safe to read without
// further synchronization; appends never mutate a returned slice.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Bootstrap hydrates the session from persisted credentials. It runs at most
// once per Store; later calls are no-ops.
//
// With no stored credentials it makes no network calls and leaves the
// session unauthenticated. With credentials present it fetches the profile
// first and only then marks the session authenticated, so an authenticated
// state always carries a non-nil identity. A failed fetch wipes all
// credential keys rather than operating on a stale or partial identity.
// Loading flips to false exactly once, on every path.
func (s *Store) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	if s.bootstrapped {
		s.mu.Unlock()
		return nil
	}
	s.bootstrapped = true
	s.mu.Unlock()

	defer s.Dispatch(SetLoading{Loading: false})

	stored, err := s.creds.Load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("credential load failed")
		return fmt.Errorf("bootstrap: %w", err)
	}
	if !stored.Present() {
		return nil
	}

	profile, err := s.fetcher.FetchProfile(ctx, stored)
	if err != nil {
		s.logger.Warn().Err(err).Msg("profile fetch failed, clearing credentials")
		if clearErr := s.creds.Clear(); clearErr != nil {
			s.logger.Error().Err(clearErr).Msg("credential wipe failed")
		}
		return fmt.Errorf("bootstrap: %w", err)
	}

	s.Dispatch(SetIdentity{Identity: profile})
	s.Dispatch(SetRole{Role: ParseRole(stored.UserType)})
	s.Dispatch(SetAuthenticated{Authenticated: true})
	return nil
}

// Login stores the credentials and marks the session authenticated with the
// given identity.
func (s *Store) Login(creds Credentials, profile *Profile) error {
	if err := s.creds.Save(creds); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	s.Dispatch(SetIdentity{Identity: profile})
	s.Dispatch(SetRole{Role: ParseRole(creds.UserType)})
	s.Dispatch(SetAuthenticated{Authenticated: true})
	s.Dispatch(SetLoading{Loading: false})
	return nil
}

// Logout clears the persisted credentials and resets the session, keeping
// only the locale.
func (s *Store) Logout() error {
	err := s.creds.Clear()
	if err != nil {
		s.logger.Error().Err(err).Msg("credential wipe failed")
	}
	s.Dispatch(Logout{})
	return err
}
