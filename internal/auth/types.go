package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmailRequired     = errors.New("email required")
	ErrUsernameRequired  = errors.New("username required")
	ErrEmailTaken        = errors.New("email already registered")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrEmailNotVerified  = errors.New("email not verified")
	ErrInvalidOneTimeKey = errors.New("invalid or expired token")
)

// User is the stored user document.
type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	Username      string    `json:"username"`
	CreatedAt     time.Time `json:"createdAt"`
	QuizzesTaken  int       `json:"quizzesTaken"`
	AverageScore  float64   `json:"averageScore"`
	EmailVerified bool      `json:"emailVerified"`
	PasswordHash  string    `json:"passwordHash,omitempty"`
}

// Public strips credentials before a user leaves the service.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SignupRequest for email/password registration.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Username string `json:"username"`
}

// LoginRequest for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
