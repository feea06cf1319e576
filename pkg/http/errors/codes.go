package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeInvalidCredentials     = "invalid_credentials"
	ErrCodeEmailNotVerified       = "email_not_verified"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"
	ErrCodeWeakPassword     = "weak_password"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeQuizNotFound  = "quiz_not_found"
	ErrCodeUsernameTaken = "username_taken"
	ErrCodeEmailTaken    = "email_taken"

	// Business logic errors
	ErrCodeSignupFailed  = "signup_failed"
	ErrCodeVerifyFailed  = "verification_failed"
	ErrCodeLoginFailed   = "login_failed"
	ErrCodeRefreshFailed = "refresh_failed"
	ErrCodeResetFailed   = "reset_failed"
	ErrCodeLogoutFailed  = "logout_failed"

	// Quiz attempt errors
	ErrCodeInvalidQuiz      = "invalid_quiz"
	ErrCodeInvalidOption    = "invalid_option"
	ErrCodeNoSelection      = "no_selection"
	ErrCodeQuizCompleted    = "quiz_completed"
	ErrCodeQuizInProgress   = "quiz_in_progress"
	ErrCodeNoActiveAttempt  = "no_active_attempt"
	ErrCodeAttemptFailed    = "attempt_failed"
	ErrCodeCatalogFetchFail = "catalog_fetch_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError = "internal_error"
	ErrCodeUpstreamError = "upstream_error"

	// Feature availability
	ErrCodeFeatureNotAvailable = "feature_not_available"
)
