package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func contextWithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, UserRoleKey, role)
}

func contextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("user-123", RoleDoctor)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("expected subject user-123, got %s", claims.Subject)
	}
	if claims.Role != RoleDoctor {
		t.Errorf("expected role doctor, got %s", claims.Role)
	}
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, err := issuer.Issue("user-123", RolePatient)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected verification to fail with wrong secret")
	}
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Issue("user-123", RolePatient)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("expected verification to fail for expired token")
	}
}

func TestMiddleware_SetsContextValues(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, _ := issuer.Issue("user-7", RolePatient)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/consultations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		ctx := c.Request().Context()
		if UserIDFromContext(ctx) != "user-7" {
			t.Errorf("expected user-7, got %s", UserIDFromContext(ctx))
		}
		if RoleFromContext(ctx) != RolePatient {
			t.Errorf("expected patient, got %s", RoleFromContext(ctx))
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := Middleware(issuer, nil)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMiddleware_RejectsMissingToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/consultations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	err := Middleware(issuer, nil)(handler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_SkipsPublicRoutes(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/patient/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	}

	if err := Middleware(issuer, PublicRouteSkipper)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected handler to be called for public route")
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	tests := []struct {
		name     string
		role     string
		required []string
		wantCode int
	}{
		{"matching role", RoleDoctor, []string{RoleDoctor}, http.StatusOK},
		{"admin override", RoleAdmin, []string{RoleDoctor}, http.StatusOK},
		{"wrong role", RolePatient, []string{RoleDoctor}, http.StatusForbidden},
		{"no role", "", []string{RoleDoctor}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.role != "" {
				ctx := req.Context()
				ctx = contextWithRole(ctx, tt.role)
				req = req.WithContext(ctx)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := RequireRole(tt.required...)(handler)(c)
			if tt.wantCode == http.StatusOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			httpErr, ok := err.(*echo.HTTPError)
			if !ok || httpErr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestRequireSelf(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	newCtx := func(userID, role, paramVal string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := contextWithRole(req.Context(), role)
		ctx = contextWithUserID(ctx, userID)
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(paramVal)
		return c
	}

	if err := RequireSelf("id")(handler)(newCtx("u1", RolePatient, "u1")); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
	if err := RequireSelf("id")(handler)(newCtx("u1", RoleAdmin, "u2")); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
	err := RequireSelf("id")(handler)(newCtx("u1", RolePatient, "u2"))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %v", err)
	}
}
