package payment

import (
	"context"
	"time"

	"rentara/internal/domain"
	"rentara/internal/repository"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error)
	ListRefunds(ctx context.Context) ([]domain.Payment, error)
	ApplyStatus(ctx context.Context, transactionID string, status domain.PaymentStatus, rawResponse string) (*domain.Payment, bool, error)
	MarkRefunded(ctx context.Context, id int64, status domain.PaymentStatus, amount float64, reason string, at time.Time) error
	StatsByStatus(ctx context.Context, landlordID int64) ([]repository.PaymentStatusStat, error)
	StatsByMethod(ctx context.Context, landlordID int64) ([]repository.PaymentMethodStat, error)
}

// BookingStore is the slice of booking storage reconciliation needs: read
// the booking, rewrite its payment-status projection.
type BookingStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.BookingPaymentStatus) (*domain.Booking, error)
}

type PropertyReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Property, error)
}

// NotificationSender fires payment notifications. Fire-and-forget, same as
// the booking side.
type NotificationSender interface {
	NotifyPaymentCompleted(ctx context.Context, p *domain.Payment, b *domain.Booking) error
	NotifyPaymentFailed(ctx context.Context, p *domain.Payment, b *domain.Booking) error
	NotifyPaymentRefunded(ctx context.Context, p *domain.Payment, amount float64) error
}
