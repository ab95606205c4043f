package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// IsTerminal reports whether no further status transition is permitted.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// IsActive reports whether the booking still holds its date range.
// Cancelled and completed bookings release their dates.
func (s BookingStatus) IsActive() bool { return !s.IsTerminal() }

// bookingTransitions is the single source of truth for legal lifecycle moves.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled, BookingCompleted},
	BookingConfirmed: {BookingCancelled, BookingCompleted},
	BookingCancelled: {},
	BookingCompleted: {},
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BookingPaymentStatus is a projection over the booking's payment set,
// recomputed from payment rows rather than written independently.
type BookingPaymentStatus string

const (
	BookingPaymentPending       BookingPaymentStatus = "pending"
	BookingPaymentPaid          BookingPaymentStatus = "paid"
	BookingPaymentPartiallyPaid BookingPaymentStatus = "partially_paid"
	BookingPaymentRefunded      BookingPaymentStatus = "refunded"
	BookingPaymentFailed        BookingPaymentStatus = "failed"
)

type GuestCount struct {
	Adults   int `json:"adults" validate:"gte=1"`
	Children int `json:"children" validate:"gte=0"`
	Infants  int `json:"infants" validate:"gte=0"`
}

type Booking struct {
	ID                 int64                `json:"id" gorm:"primaryKey"`
	PropertyID         int64                `json:"property_id" gorm:"index;not null"`
	UserID             int64                `json:"user_id" gorm:"index;not null"`
	CheckInDate        time.Time            `json:"check_in_date" gorm:"not null"`
	CheckOutDate       time.Time            `json:"check_out_date" gorm:"not null"`
	Amount             float64              `json:"amount"`
	Guests             GuestCount           `json:"guests" gorm:"embedded;embeddedPrefix:guest_"`
	Status             BookingStatus        `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentStatus      BookingPaymentStatus `json:"payment_status" gorm:"type:varchar(20);default:'pending'"`
	SpecialRequests    string               `json:"special_requests,omitempty" gorm:"type:text"`
	CancellationReason string               `json:"cancellation_reason,omitempty" gorm:"type:text"`
	CancelledAt        *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`

	User     *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
}

func (Booking) TableName() string { return "bookings" }

// Nights returns the stay length for a half-open [check-in, check-out) range.
func (b *Booking) Nights() float64 {
	return b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24
}
