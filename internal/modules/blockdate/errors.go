package blockdate

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("blocked date not found")
	ErrForbidden  = errors.New("not authorized for this property")
	ErrConflict   = errors.New("window conflicts with an active booking")
)
