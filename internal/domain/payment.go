package domain

import "time"

type PaymentMethod string

const (
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodMobileMoney, MethodCreditCard, MethodBankTransfer:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// PaymentStatusRank orders payment statuses by precedence. Gateway callbacks
// arrive at-least-once and possibly out of order; a status may only be
// overwritten by one of strictly higher rank, so a late "failed" can never
// regress an already completed payment.
func PaymentStatusRank(s PaymentStatus) int {
	switch s {
	case PaymentPending:
		return 0
	case PaymentFailed:
		return 1
	case PaymentCompleted:
		return 2
	case PaymentPartiallyRefunded:
		return 3
	case PaymentRefunded:
		return 4
	}
	return -1
}

type Payment struct {
	ID              int64         `json:"id" gorm:"primaryKey"`
	BookingID       int64         `json:"booking_id" gorm:"index;not null"`
	UserID          int64         `json:"user_id" gorm:"index;not null"`
	Amount          float64       `json:"amount" validate:"gte=0"`
	Currency        string        `json:"currency" gorm:"type:varchar(3);default:'RWF'"`
	Method          PaymentMethod `json:"payment_method" gorm:"column:payment_method;type:varchar(20);not null"`
	TransactionID   string        `json:"transaction_id" gorm:"uniqueIndex;not null"`
	Status          PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	GatewayResponse string        `json:"gateway_response,omitempty" gorm:"type:text"`
	FailureReason   string        `json:"failure_reason,omitempty" gorm:"type:text"`
	RefundAmount    *float64      `json:"refund_amount,omitempty"`
	RefundReason    string        `json:"refund_reason,omitempty"`
	RefundedAt      *time.Time    `json:"refunded_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Booking *Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
}

func (Payment) TableName() string { return "payments" }

// PaidAmount is the payment's contribution to the booking's paid total:
// completed payments count in full, partially refunded ones minus the
// refunded part, everything else contributes nothing.
func (p *Payment) PaidAmount() float64 {
	switch p.Status {
	case PaymentCompleted:
		return p.Amount
	case PaymentPartiallyRefunded:
		if p.RefundAmount != nil {
			return p.Amount - *p.RefundAmount
		}
		return p.Amount
	}
	return 0
}
