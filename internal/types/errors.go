package types

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidAlert  = errors.New("invalid alert")
	ErrAlertNotFound = errors.New("alert not found")
	ErrNotAlertOwner = errors.New("alert belongs to another user")
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// UserInputError is an invalid command or argument. Message is shown to the user.
type UserInputError struct {
	Message string
	Err     error
}

func (e *UserInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserInputError) Unwrap() error { return e.Err }

// ExternalServiceError wraps a failure of the price, news or messaging API
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ConfigurationError is fatal at startup
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s %s", e.Key, e.Reason)
}

func NewUserInputError(message string, err error) error {
	return &UserInputError{Message: message, Err: err}
}

func NewExternalServiceError(service string, err error) error {
	return &ExternalServiceError{Service: service, Err: err}
}

func IsUserInput(err error) bool {
	var target *UserInputError
	return errors.As(err, &target)
}

func IsExternalService(err error) bool {
	var target *ExternalServiceError
	return errors.As(err, &target)
}
