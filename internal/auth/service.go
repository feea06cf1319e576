package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/smartquiz/internal/auth/jwt"
)

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig     jwt.TokenConfig
	PublicURL       string
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

// Service handles authentication and user management.
type Service struct {
	users    UserStore
	tokens   *TokenStore
	tokenMgr *jwt.Manager
	mailer   Mailer
	opts     ServiceOptions
	logger   zerolog.Logger
}

// NewService creates an authentication service.
func NewService(users UserStore, tokens *TokenStore, mailer Mailer, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.VerificationTTL <= 0 {
		opts.VerificationTTL = 24 * time.Hour
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	return &Service{
		users:    users,
		tokens:   tokens,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		mailer:   mailer,
		opts:     opts,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// NormalizeUsername trims and lowercases a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an unverified account and emails a verification link.
// No session is issued until the address is verified.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	username := NormalizeUsername(req.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		Username:     username,
		CreatedAt:    time.Now().UTC(),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("verification email not sent")
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("username", username).Msg("user signed up")
	public := user.Public()
	return &public, nil
}

// VerifyEmail marks the account behind token as verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokens.Consume(ctx, PurposeVerifyEmail, token)
	if err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.EmailVerified {
		return nil
	}
	user.EmailVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.logger.Info().Str("user_id", userID.String()).Msg("email verified")
	return nil
}

// ResendVerification sends a new link to an unverified address. Unknown or
// already verified addresses are ignored without saying so.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.EmailVerified {
		return nil
	}
	return s.sendVerification(ctx, user)
}

func (s *Service) sendVerification(ctx context.Context, user *User) error {
	token, err := s.tokens.Issue(ctx, PurposeVerifyEmail, user.ID, s.opts.VerificationTTL)
	if err != nil {
		return err
	}
	return s.mailer.SendVerificationEmail(ctx, user.Email, s.link("/verify-email", token))
}

// Login authenticates a verified user with email/password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredential
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if err := VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return nil, nil, ErrInvalidCredential
	}
	if !user.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}
	if needsRehash(user.PasswordHash) {
		s.rehash(ctx, user, req.Password)
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	public := user.Public()
	return &public, tokens, nil
}

// rehash upgrades a stored hash to the current cost. Errors are only logged.
func (s *Service) rehash(ctx context.Context, user *User, password string) {
	hash, err := HashPassword(password)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("password rehash failed")
		return
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("store rehashed password failed")
	}
}

// RefreshToken exchanges a refresh token for a new pair. The old refresh
// token is revoked.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := s.tokens.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.generateTokenPair(user)
}

// ValidateToken validates an access token and returns user claims.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*jwt.Claims, error) {
	claims, err := s.tokenMgr.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) checkRevoked(ctx context.Context, claims *jwt.Claims) error {
	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return jwt.ErrInvalidToken
	}
	return nil
}

// Logout revokes the access token and, when given, the refresh token.
func (s *Service) Logout(ctx context.Context, claims *jwt.Claims, refreshToken string) error {
	if err := s.tokens.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	if refreshToken != "" {
		refresh, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
		if err == nil && refresh.UserID == claims.UserID {
			if err := s.tokens.Revoke(ctx, refresh.ID, refresh.ExpiresAt.Time); err != nil {
				return fmt.Errorf("revoke refresh token: %w", err)
			}
		}
	}
	s.logger.Info().Str("user_id", claims.UserID.String()).Msg("user logged out")
	return nil
}

// RequestPasswordReset emails a reset link. Unknown addresses are not disclosed.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	token, err := s.tokens.Issue(ctx, PurposePasswordReset, user.ID, s.opts.ResetTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, s.link("/reset-password", token)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("password reset requested")
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	userID, err := s.tokens.Consume(ctx, PurposePasswordReset, token)
	if err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info().Str("user_id", userID.String()).Msg("password reset completed")
	return nil
}

// GetUser returns the public user document.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// UsernameAvailable reports whether username can still be claimed.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return false, ErrUsernameRequired
	}
	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *Service) link(path, token string) string {
	return s.opts.PublicURL + path + "?token=" + url.QueryEscape(token)
}

func (s *Service) generateTokenPair(user *User) (*TokenPair, error) {
	sub := jwt.Subject{ID: user.ID, Email: user.Email, Username: user.Username}

	accessToken, err := s.tokenMgr.GenerateAccessToken(sub)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokenMgr.GenerateRefreshToken(sub)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}
