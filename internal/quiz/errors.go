package quiz

import "errors"

var (
	ErrInvalidQuizDefinition   = errors.New("invalid quiz definition")
	ErrInvalidOption           = errors.New("invalid option")
	ErrSessionAlreadyCompleted = errors.New("session already completed")
	ErrNoSelection             = errors.New("no option selected")
	ErrSessionInProgress       = errors.New("session still in progress")
)
