package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type staticVerifier struct {
	userID string
	err    error
}

func (v *staticVerifier) Verify(_ context.Context, _ string) (string, error) {
	return v.userID, v.err
}

func TestAuth(t *testing.T) {
	handler := Auth(&staticVerifier{userID: "user-1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetUserID(r.Context()); got != "user-1" {
			t.Errorf("user id in context = %q, want user-1", got)
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid bearer token", "Bearer some-token", http.StatusOK},
		{"case insensitive scheme", "bearer some-token", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"no token", "Bearer", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthRejectsFailedVerification(t *testing.T) {
	handler := Auth(&staticVerifier{err: errors.New("bad token")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for a rejected token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProfileVerifier(t *testing.T) {
	t.Run("accepts valid token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
				t.Errorf("forwarded authorization = %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"user":{"id":"user-9"}}`))
		}))
		defer srv.Close()

		userID, err := NewProfileVerifier(srv.URL).Verify(context.Background(), "tok-123")
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if userID != "user-9" {
			t.Errorf("user id = %q, want user-9", userID)
		}
	})

	t.Run("accepts flat payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":"user-7"}`))
		}))
		defer srv.Close()

		userID, err := NewProfileVerifier(srv.URL).Verify(context.Background(), "tok")
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if userID != "user-7" {
			t.Errorf("user id = %q, want user-7", userID)
		}
	})

	t.Run("rejects non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		if _, err := NewProfileVerifier(srv.URL).Verify(context.Background(), "tok"); err == nil {
			t.Error("expected error for 401 from profile endpoint")
		}
	})

	t.Run("rejects payload without user id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		if _, err := NewProfileVerifier(srv.URL).Verify(context.Background(), "tok"); err == nil {
			t.Error("expected error for missing user id")
		}
	})
}

func TestJWTVerifier(t *testing.T) {
	secret := "test-secret"
	verifier := NewJWTVerifier(secret)

	sign := func(t *testing.T, claims jwt.Claims, key string) string {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return token
	}

	t.Run("valid token", func(t *testing.T) {
		token := sign(t, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}, secret)

		userID, err := verifier.Verify(context.Background(), token)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if userID != "user-1" {
			t.Errorf("user id = %q, want user-1", userID)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := sign(t, jwt.RegisteredClaims{Subject: "user-1"}, "other-secret")
		if _, err := verifier.Verify(context.Background(), token); err == nil {
			t.Error("expected error for wrong signing key")
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token := sign(t, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}, secret)
		if _, err := verifier.Verify(context.Background(), token); err == nil {
			t.Error("expected error for expired token")
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		token := sign(t, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}, secret)
		if _, err := verifier.Verify(context.Background(), token); err == nil {
			t.Error("expected error for token without subject")
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := verifier.Verify(context.Background(), "not-a-token"); err == nil {
			t.Error("expected error for malformed token")
		}
	})
}

func TestGetUserIDWithoutAuth(t *testing.T) {
	if got := GetUserID(context.Background()); got != "" {
		t.Errorf("user id = %q, want empty", got)
	}
}
