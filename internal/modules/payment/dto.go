package payment

import (
	"rentara/internal/domain"
	"rentara/internal/gateway"
)

// ProcessPaymentRequest initiates a payment against a booking. Details is a
// method-discriminated union: only the fields matching Method are read, and
// those must be present.
type ProcessPaymentRequest struct {
	BookingID  int64                `json:"-"`
	UserID     int64                `json:"-"`
	CallerRole domain.UserRole      `json:"-"`
	Method     domain.PaymentMethod `json:"payment_method" binding:"required"`
	Details    gateway.PayerDetails `json:"payment_details"`
}

// WebhookPayload is what the gateway posts back. transaction_id alone
// identifies the payment; the booking is found through it.
type WebhookPayload struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	Status        string `json:"status" binding:"required"`
	Message       string `json:"message"`
}

type RefundRequest struct {
	// Amount of zero (or omitted) means a full refund.
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}
