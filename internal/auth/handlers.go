package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/smartquiz/internal/logging"
	httperrors "github.com/gokatarajesh/smartquiz/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for authentication.
type HTTPHandlers struct {
	authSvc *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(authSvc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc: authSvc,
		logger:  logger.With().Str("component", "auth_http").Logger(),
	}
}

// Signup handles POST /v1/auth/signup
func (h *HTTPHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.authSvc.Signup(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, ErrEmailRequired):
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Email is required", "email")
		return
	case errors.Is(err, ErrUsernameRequired):
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Username is required", "username")
		return
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
		httperrors.RespondValidationError(w, httperrors.ErrCodeWeakPassword, err.Error(), "password")
		return
	case errors.Is(err, ErrUsernameTaken):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeUsernameTaken, "Username is already taken. Please choose another one.")
		return
	case errors.Is(err, ErrEmailTaken):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeEmailTaken, "Email is already registered")
		return
	default:
		reqLogger := logging.FromContext(r.Context())
		reqLogger.Error().Err(err).Msg("signup failed")
		httperrors.RespondInternalError(w, "Signup failed")
		return
	}

	httperrors.RespondJSON(w, http.StatusCreated, map[string]any{
		"user":    user,
		"message": "Account created! Please verify your email before logging in.",
	})
}

// VerifyEmail handles POST /v1/auth/verify
func (h *HTTPHandlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := h.authSvc.VerifyEmail(r.Context(), req.Token); err != nil {
		if errors.Is(err, ErrInvalidOneTimeKey) {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeVerifyFailed, err.Error())
			return
		}
		reqLogger := logging.FromContext(r.Context())
		reqLogger.Error().Err(err).Msg("email verification failed")
		httperrors.RespondInternalError(w, "Verification failed")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]any{"verified": true})
}

// ResendVerification handles POST /v1/auth/resend-verification
func (h *HTTPHandlers) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.authSvc.ResendVerification(r.Context(), req.Email); err != nil {
		reqLogger := logging.FromContext(r.Context())
		reqLogger.Error().Err(err).Msg("resend verification failed")
	}
	httperrors.RespondJSON(w, http.StatusAccepted, map[string]any{
		"message": "If the address needs verification, a new link has been sent.",
	})
}

// Login handles POST /v1/auth/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, tokens, err := h.authSvc.Login(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidCredential):
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidCredentials, "Invalid email or password")
		return
	case errors.Is(err, ErrEmailNotVerified):
		httperrors.RespondError(w, http.StatusForbidden, httperrors.ErrCodeEmailNotVerified, "Please verify your email before logging in.")
		return
	default:
		reqLogger := logging.FromContext(r.Context())
		reqLogger.Error().Err(err).Msg("login failed")
		httperrors.RespondInternalError(w, "Login failed")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]any{
		"user":          user,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	})
}

// RefreshToken handles POST /v1/auth/refresh
func (h *HTTPHandlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decode(w, r, &req) {
		return
	}

	tokens, err := h.authSvc.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeRefreshFailed, "Invalid or expired refresh token")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, tokens)
}

// ForgotPassword handles POST /v1/auth/forgot-password
func (h *HTTPHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Email is required", "email")
		return
	}

	if err := h.authSvc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		reqLogger := logging.FromContext(r.Context())
		reqLogger.Error().Err(err).Msg("password reset request failed")
	}
	httperrors.RespondJSON(w, http.StatusAccepted, map[string]any{
		"message": "If an account exists, a password reset email has been sent.",
	})
}

// ResetPassword handles POST /v1/auth/reset-password
func (h *HTTPHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if !decode(w, r, &req) {
		return
	}

	err := h.authSvc.ResetPassword(r.Context(), req.Token, req.NewPassword)
	switch {
	case err == nil:
		httperrors.RespondJSON(w, http.StatusOK, map[string]any{"reset": true})
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
		httperrors.RespondValidationError(w, httperrors.ErrCodeWeakPassword, err.Error(), "new_password")
	case errors.Is(err, ErrInvalidOneTimeKey):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeResetFailed, err.Error())
	default:
		reqLogger := logging.FromContext(r.Context())
		reqLogger.Error().Err(err).Msg("password reset failed")
		httperrors.RespondInternalError(w, "Password reset failed")
	}
}

// Logout handles POST /v1/auth/logout
func (h *HTTPHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if r.ContentLength > 0 && !decode(w, r, &req) {
		return
	}

	if err := h.authSvc.Logout(r.Context(), claims, req.RefreshToken); err != nil {
		reqLogger := logging.FromContext(r.Context())
		reqLogger.Error().Err(err).Msg("logout failed")
		httperrors.RespondInternalError(w, "Logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMe handles GET /v1/auth/me
func (h *HTTPHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	user, err := h.authSvc.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "User not found")
			return
		}
		reqLogger := logging.FromContext(r.Context())
		reqLogger.Error().Err(err).Msg("load profile failed")
		httperrors.RespondInternalError(w, "Failed to load profile")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, user)
}

// UsernameAvailable handles GET /v1/auth/username-available?username=
func (h *HTTPHandlers) UsernameAvailable(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	available, err := h.authSvc.UsernameAvailable(r.Context(), username)
	if err != nil {
		if errors.Is(err, ErrUsernameRequired) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Username is required", "username")
			return
		}
		reqLogger := logging.FromContext(r.Context())
		reqLogger.Error().Err(err).Msg("username lookup failed")
		httperrors.RespondInternalError(w, "Username lookup failed")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]any{
		"username":  NormalizeUsername(username),
		"available": available,
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return false
	}
	return true
}
