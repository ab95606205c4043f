package booking

import (
	"context"
	"time"

	"rentara/internal/domain"
	"rentara/internal/repository"
)

// BookingRepository is the storage surface the lifecycle needs.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	CountOverlapping(ctx context.Context, propertyID int64, checkIn, checkOut time.Time, excludeID int64) (int64, error)
	Update(ctx context.Context, b *domain.Booking) error
	CancelWithReason(ctx context.Context, id int64, reason string, at time.Time) error
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	ListByProperty(ctx context.Context, propertyID int64) ([]domain.Booking, error)
	ListByLandlord(ctx context.Context, landlordID int64) ([]domain.Booking, error)
	Stats(ctx context.Context, landlordID int64) ([]repository.BookingStatusStat, error)
}

// BlockedDateReader answers the blocked-window half of the availability check.
type BlockedDateReader interface {
	CountOverlapping(ctx context.Context, propertyID int64, start, end time.Time, excludeID int64) (int64, error)
}

type PropertyReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Property, error)
	IncTotalBookings(ctx context.Context, id int64, delta int) error
}

// NotificationSender fires booking lifecycle notifications. Calls are
// fire-and-forget: errors are the sender's problem, never the booking's.
type NotificationSender interface {
	NotifyBookingCreated(ctx context.Context, landlordID int64, b *domain.Booking) error
	NotifyBookingCancelled(ctx context.Context, landlordID int64, b *domain.Booking, reason string) error
	NotifyBookingCompleted(ctx context.Context, b *domain.Booking) error
}
