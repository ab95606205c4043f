package review

import "errors"

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("review or property not found")
	ErrForbidden     = errors.New("not authorized for this review")
	ErrAlreadyExists = errors.New("user already reviewed this property")
	ErrNotEligible   = errors.New("no completed stay at this property")
)
