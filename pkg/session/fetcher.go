package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ProfileFetcher resolves stored credentials into a full identity profile
// during bootstrap.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, creds Credentials) (*Profile, error)
}

// HTTPProfileFetcher fetches profiles from the REST backend.
type HTTPProfileFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPProfileFetcher creates a fetcher against the given API base URL.
func NewHTTPProfileFetcher(baseURL string) *HTTPProfileFetcher {
	return &HTTPProfileFetcher{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (f *HTTPProfileFetcher) FetchProfile(ctx context.Context, creds Credentials) (*Profile, error) {
	var path string
	switch ParseRole(creds.UserType) {
	case RoleDoctor:
		path = fmt.Sprintf("%s/api/v1/doctors/%s/profile", f.BaseURL, creds.UserID)
	case RolePatient:
		path = fmt.Sprintf("%s/api/v1/patients/%s", f.BaseURL, creds.UserID)
	default:
		return nil, fmt.Errorf("unknown user type %q", creds.UserType)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.Token)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}
