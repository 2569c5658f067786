package inventory

import "errors"

// ErrNotFound is returned when an item id does not exist so HTTP handlers can respond with 404.
var ErrNotFound = errors.New("inventory item not found")

type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation separates rejected input from storage failures.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}
