package payment

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("payment or booking not found")
	ErrForbidden    = errors.New("not authorized for this payment")
	ErrInvalidState = errors.New("operation not permitted in current payment state")
	ErrGateway      = errors.New("payment gateway unavailable")
)
