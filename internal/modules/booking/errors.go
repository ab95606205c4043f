package booking

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("booking or property not found")
	ErrForbidden    = errors.New("not authorized for this booking")
	ErrUnavailable  = errors.New("property is not available for booking")
	ErrConflict     = errors.New("dates conflict with an existing booking or block")
	ErrInvalidState = errors.New("operation not permitted in current booking state")
)
