package gateway

import (
	"context"
	"errors"

	"rentara/internal/domain"
)

// ErrUnavailable marks transport-level gateway failures (timeouts, 5xx),
// as opposed to a processed-but-declined payment which comes back as a
// failed Result.
var ErrUnavailable = errors.New("payment gateway unavailable")

// PayerDetails carries the method-specific fields; only the fields for the
// request's method are consulted.
type PayerDetails struct {
	Phone   string `json:"phone,omitempty"`
	Network string `json:"network,omitempty"`

	CardNumber string `json:"card_number,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
	CVV        string `json:"cvv,omitempty"`

	AccountNumber string `json:"account_number,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
}

type Request struct {
	Reference string
	Amount    float64
	Currency  string
	Method    domain.PaymentMethod
	Details   PayerDetails
}

type Result struct {
	TransactionID string
	Status        domain.PaymentStatus
	Message       string
	Raw           string
}

// Gateway is the external payment rail. Card and bank rails answer
// synchronously; mobile money may return pending and confirm later via
// status polls or the webhook.
type Gateway interface {
	RequestPayment(ctx context.Context, req Request) (*Result, error)
	QueryStatus(ctx context.Context, transactionID string) (*Result, error)
}
