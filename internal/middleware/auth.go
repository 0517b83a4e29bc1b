// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserIDKey is the context key for the authenticated user ID.
	UserIDKey ContextKey = "user_id"
)

// TokenVerifier checks a bearer token and resolves the user it belongs to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// ProfileVerifier verifies tokens against the auth provider's profile
// endpoint: the token is forwarded as-is, and a 2xx response with a user
// payload means the token is valid.
type ProfileVerifier struct {
	URL    string
	Client *http.Client
}

// NewProfileVerifier creates a verifier for the given profile endpoint.
func NewProfileVerifier(url string) *ProfileVerifier {
	return &ProfileVerifier{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type profilePayload struct {
	ID   string `json:"id"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
}

// Verify forwards the bearer token to the profile endpoint.
func (v *ProfileVerifier) Verify(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("profile verification returned %d", resp.StatusCode)
	}

	var payload profilePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("invalid profile response: %w", err)
	}
	if payload.User.ID != "" {
		return payload.User.ID, nil
	}
	if payload.ID != "" {
		return payload.ID, nil
	}
	return "", fmt.Errorf("profile response missing user id")
}

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 tokens locally. Used when no remote profile
// endpoint is configured.
type JWTVerifier struct {
	Secret []byte
}

// NewJWTVerifier creates a local JWT verifier.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{Secret: []byte(secret)}
}

// Verify parses and validates the token; the subject is the user ID.
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.Secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token missing subject")
	}
	return claims.Subject, nil
}

// Auth creates bearer token authentication middleware. The resolved user ID
// is injected into the request context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header format"}`, http.StatusUnauthorized)
				return
			}

			userID, err := verifier.Verify(r.Context(), parts[1])
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID gets the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(UserIDKey); v != nil {
		return v.(string)
	}
	return ""
}
