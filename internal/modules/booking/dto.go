package booking

import (
	"time"

	"rentara/internal/domain"
)

type CreateBookingRequest struct {
	PropertyID      int64             `json:"property_id"`
	UserID          int64             `json:"-"`
	CallerRole      domain.UserRole   `json:"-"`
	CheckInDate     time.Time         `json:"check_in_date" binding:"required"`
	CheckOutDate    time.Time         `json:"check_out_date" binding:"required"`
	Guests          domain.GuestCount `json:"guests"`
	SpecialRequests string            `json:"special_requests"`
}

// UpdateBookingRequest is a partial patch; nil fields stay untouched.
type UpdateBookingRequest struct {
	CheckInDate     *time.Time         `json:"check_in_date"`
	CheckOutDate    *time.Time         `json:"check_out_date"`
	Guests          *domain.GuestCount `json:"guests"`
	SpecialRequests *string            `json:"special_requests"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}
