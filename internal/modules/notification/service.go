package notification

import (
	"context"
	"fmt"
	"log"

	"rentara/internal/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

// Mailer delivers a notification out of band. Delivery failure is logged,
// never surfaced to the operation that produced the notification.
type Mailer interface {
	Send(recipient, subject, body string) error
}

type EmailLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type Service struct {
	repo   NotificationRepository
	users  EmailLookup
	mailer Mailer
}

// NewService builds the notification service. users and mailer may be nil;
// then notifications are persisted in-app only.
func NewService(repo NotificationRepository, users EmailLookup, mailer Mailer) *Service {
	return &Service{repo: repo, users: users, mailer: mailer}
}

func (s *Service) Create(ctx context.Context, userID int64, t domain.NotificationType, title, message, relatedType string, relatedID int64) error {
	n := &domain.Notification{
		UserID:      userID,
		Type:        t,
		Title:       title,
		Message:     message,
		RelatedType: relatedType,
		RelatedID:   relatedID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.dispatchEmail(userID, title, message)
	return nil
}

// dispatchEmail sends detached from the request so a slow or failing mail
// backend cannot stall the mutation that produced the notification.
func (s *Service) dispatchEmail(userID int64, subject, body string) {
	if s.mailer == nil || s.users == nil {
		return
	}
	go func() {
		u, err := s.users.GetByID(context.Background(), userID)
		if err != nil {
			log.Printf("notification_email_error user_id=%d err=%v", userID, err)
			return
		}
		if err := s.mailer.Send(u.Email, subject, body); err != nil {
			log.Printf("notification_email_error user_id=%d err=%v", userID, err)
		}
	}()
}

func (s *Service) ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	list, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		unread = 0
	}
	return list, unread, nil
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// Booking lifecycle senders. Callers treat these as fire-and-forget:
// delivery failure never fails the booking operation.

func (s *Service) NotifyBookingCreated(ctx context.Context, landlordID int64, b *domain.Booking) error {
	return s.Create(
		ctx,
		landlordID,
		domain.NotifInfo,
		"New booking request",
		fmt.Sprintf("New booking from %s to %s",
			b.CheckInDate.Format("2006-01-02"), b.CheckOutDate.Format("2006-01-02")),
		"booking",
		b.ID,
	)
}

func (s *Service) NotifyBookingCancelled(ctx context.Context, landlordID int64, b *domain.Booking, reason string) error {
	msg := "A booking for your property was cancelled"
	if reason != "" {
		msg = msg + ". Reason: " + reason
	}
	return s.Create(ctx, landlordID, domain.NotifWarning, "Booking cancelled", msg, "booking", b.ID)
}

func (s *Service) NotifyBookingCompleted(ctx context.Context, b *domain.Booking) error {
	return s.Create(
		ctx,
		b.UserID,
		domain.NotifSuccess,
		"Stay completed",
		"Your stay is complete. You can now leave a review.",
		"booking",
		b.ID,
	)
}

// Payment senders.

func (s *Service) NotifyPaymentCompleted(ctx context.Context, p *domain.Payment, b *domain.Booking) error {
	return s.Create(
		ctx,
		p.UserID,
		domain.NotifSuccess,
		"Payment received",
		fmt.Sprintf("Your payment of %.2f %s was received", p.Amount, p.Currency),
		"payment",
		p.ID,
	)
}

func (s *Service) NotifyPaymentFailed(ctx context.Context, p *domain.Payment, b *domain.Booking) error {
	msg := "Your payment could not be processed"
	if p.FailureReason != "" {
		msg = msg + ": " + p.FailureReason
	}
	return s.Create(ctx, p.UserID, domain.NotifError, "Payment failed", msg, "payment", p.ID)
}

func (s *Service) NotifyPaymentRefunded(ctx context.Context, p *domain.Payment, amount float64) error {
	return s.Create(
		ctx,
		p.UserID,
		domain.NotifInfo,
		"Payment refunded",
		fmt.Sprintf("%.2f %s was refunded to you", amount, p.Currency),
		"payment",
		p.ID,
	)
}
