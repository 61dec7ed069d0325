package api

import (
	"log/slog"
	"net/http"

	"github.com/medfellows/quizforge-api/internal/api/shared"
	"github.com/medfellows/quizforge-api/internal/service/auth"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	jwtService        auth.JWTService
	passwordVerifier  auth.PasswordVerifier
	adminPasswordHash string
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	adminPasswordHash string,
) *AuthHandler {
	return &AuthHandler{
		jwtService:        jwtService,
		passwordVerifier:  passwordVerifier,
		adminPasswordHash: adminPasswordHash,
	}
}

// Token handles the /auth/token endpoint. It exchanges the shared admin
// password for a signed access token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// Verify password using the injected verifier
	if err := h.passwordVerifier.Compare(h.adminPasswordHash, req.Password); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusUnauthorized, "Invalid credentials",
			auth.ErrInvalidCredentials, shared.WithElevatedLogLevel())
		return
	}

	// Generate token
	token, err := h.jwtService.GenerateToken(r.Context())
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token")
		return
	}

	// Return success response
	shared.RespondWithJSON(w, r, http.StatusOK, TokenResponse{
		AccessToken: token,
	})
}
