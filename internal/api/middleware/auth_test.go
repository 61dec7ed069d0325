package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medfellows/quizforge-api/internal/service/auth"
)

// fakeJWTService returns canned responses for ValidateToken.
type fakeJWTService struct {
	claims *auth.Claims
	err    error
}

func (f *fakeJWTService) GenerateToken(ctx context.Context) (string, error) {
	return "test-token", nil
}

func (f *fakeJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func validClaims() *auth.Claims {
	return &auth.Claims{
		Subject:   "admin",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
		ID:        "test-jti",
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		authHeader string
		service    *fakeJWTService
		wantStatus int
		wantNext   bool
	}{
		{
			name:       "valid token",
			authHeader: "Bearer good-token",
			service:    &fakeJWTService{claims: validClaims()},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "missing header",
			authHeader: "",
			service:    &fakeJWTService{claims: validClaims()},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			authHeader: "NotBearer token",
			service:    &fakeJWTService{claims: validClaims()},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			authHeader: "Bearer expired",
			service:    &fakeJWTService{err: auth.ErrExpiredToken},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer garbage",
			service:    &fakeJWTService{err: auth.ErrInvalidToken},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unexpected validation error",
			authHeader: "Bearer token",
			service:    &fakeJWTService{err: errors.New("key store unavailable")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			nextCalled := false
			var gotSubject string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				gotSubject, _ = GetSubject(r)
				w.WriteHeader(http.StatusOK)
			})

			mw := NewAuthMiddleware(tc.service)
			handler := mw.Authenticate(next)

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantNext, nextCalled)
			if tc.wantNext {
				require.Equal(t, "admin", gotSubject)
			}
		})
	}
}
