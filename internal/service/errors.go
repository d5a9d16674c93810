package service

import (
	"errors"

	"stockroom/internal/policy"
)

// 业务层哨兵错误。NotFound / Forbidden 直接复用策略包的哨兵，
// 这样 errors.Is 在各层之间保持一致。
var (
	ErrNotFound  = policy.ErrNotFound
	ErrForbidden = policy.ErrForbidden

	// ErrConflict means a conditional write matched zero rows after the
	// resource had just been read: someone else deactivated or re-scoped it
	// in between. Surfaced to clients as an absence.
	ErrConflict = errors.New("resource changed concurrently")

	// ErrNoChange means the request was valid but the resource already had
	// the requested state.
	ErrNoChange = errors.New("no changes applied")

	// ErrEmailExists means an active account already uses the address.
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials hides whether the email or the password failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError carries a field-level rejection from the validation rules.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Message: err.Error()}
}

// AsValidation reports whether err is a field validation failure.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
