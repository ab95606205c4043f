package booking

import (
	"context"
	"errors"
	"math"
	"time"

	"rentara/internal/domain"
	"rentara/internal/pkg/validator"
	"rentara/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Service struct {
	bookings   BookingRepository
	blocked    BlockedDateReader
	properties PropertyReader
	notifs     NotificationSender
}

func NewService(
	bookings BookingRepository,
	blocked BlockedDateReader,
	properties PropertyReader,
	notifs NotificationSender,
) *Service {
	return &Service{
		bookings:   bookings,
		blocked:    blocked,
		properties: properties,
		notifs:     notifs,
	}
}

// normalizeDate truncates to UTC midnight so ranges compare by calendar day.
func normalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsRangeFree reports whether [checkIn, checkOut) collides with neither an
// active booking nor a blocked window. excludeBookingID skips one booking,
// for re-validating a booking against its own dates on update.
func (s *Service) IsRangeFree(ctx context.Context, propertyID int64, checkIn, checkOut time.Time, excludeBookingID int64) (bool, error) {
	n, err := s.bookings.CountOverlapping(ctx, propertyID, checkIn, checkOut, excludeBookingID)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	n, err = s.blocked.CountOverlapping(ctx, propertyID, checkIn, checkOut, 0)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func validateRange(checkIn, checkOut time.Time) error {
	if !checkOut.After(checkIn) {
		return ErrValidation
	}
	today := normalizeDate(time.Now())
	if checkIn.Before(today) {
		return ErrValidation
	}
	return nil
}

func computeAmount(pricePerNight float64, checkIn, checkOut time.Time) float64 {
	nights := checkOut.Sub(checkIn).Hours() / 24
	total := pricePerNight * nights
	return math.Round(total*100) / 100
}

func (s *Service) Create(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	checkIn := normalizeDate(req.CheckInDate)
	checkOut := normalizeDate(req.CheckOutDate)

	if err := validateRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	if fields := validator.Validate(req.Guests); fields != nil {
		return nil, ErrValidation
	}

	prop, err := s.properties.GetByID(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !prop.IsAvailable {
		return nil, ErrUnavailable
	}
	if !prop.IsVerified && req.CallerRole != domain.RoleAdmin {
		return nil, ErrUnavailable
	}

	free, err := s.IsRangeFree(ctx, req.PropertyID, checkIn, checkOut, 0)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, ErrConflict
	}

	b := &domain.Booking{
		PropertyID:      req.PropertyID,
		UserID:          req.UserID,
		CheckInDate:     checkIn,
		CheckOutDate:    checkOut,
		Amount:          computeAmount(prop.Price, checkIn, checkOut),
		Guests:          req.Guests,
		Status:          domain.BookingPending,
		PaymentStatus:   domain.BookingPaymentPending,
		SpecialRequests: req.SpecialRequests,
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		if isExclusionViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	_ = s.properties.IncTotalBookings(ctx, prop.ID, 1)

	if s.notifs != nil {
		_ = s.notifs.NotifyBookingCreated(ctx, prop.LandlordID, b)
	}

	return b, nil
}

// isExclusionViolation recognizes the bookings no-overlap constraint firing
// under a concurrent insert that slipped past the pre-check.
func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23P01" && pgErr.Code != "23505" {
		return false
	}
	return pgErr.ConstraintName == "idx_no_double_booking"
}

func (s *Service) Get(ctx context.Context, id, callerID int64, callerRole domain.UserRole) (*domain.Booking, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, b, callerID, callerRole); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) getBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// authorizeView admits the tenant who booked, the landlord of the property,
// and admins.
func (s *Service) authorizeView(ctx context.Context, b *domain.Booking, callerID int64, callerRole domain.UserRole) error {
	if callerRole == domain.RoleAdmin || b.UserID == callerID {
		return nil
	}
	prop, err := s.properties.GetByID(ctx, b.PropertyID)
	if err == nil && prop.LandlordID == callerID {
		return nil
	}
	return ErrForbidden
}

func (s *Service) Update(ctx context.Context, id, callerID int64, callerRole domain.UserRole, req UpdateBookingRequest) (*domain.Booking, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole != domain.RoleAdmin && b.UserID != callerID {
		return nil, ErrForbidden
	}
	if b.Status.IsTerminal() {
		return nil, ErrInvalidState
	}

	checkIn := b.CheckInDate
	checkOut := b.CheckOutDate
	datesChanged := false
	if req.CheckInDate != nil {
		checkIn = normalizeDate(*req.CheckInDate)
		datesChanged = true
	}
	if req.CheckOutDate != nil {
		checkOut = normalizeDate(*req.CheckOutDate)
		datesChanged = true
	}

	if datesChanged {
		if err := validateRange(checkIn, checkOut); err != nil {
			return nil, err
		}
		free, err := s.IsRangeFree(ctx, b.PropertyID, checkIn, checkOut, b.ID)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, ErrConflict
		}

		prop, err := s.properties.GetByID(ctx, b.PropertyID)
		if err != nil {
			return nil, err
		}
		b.CheckInDate = checkIn
		b.CheckOutDate = checkOut
		b.Amount = computeAmount(prop.Price, checkIn, checkOut)
	}

	if req.Guests != nil {
		if fields := validator.Validate(*req.Guests); fields != nil {
			return nil, ErrValidation
		}
		b.Guests = *req.Guests
	}
	if req.SpecialRequests != nil {
		b.SpecialRequests = *req.SpecialRequests
	}

	if err := s.bookings.Update(ctx, b); err != nil {
		if isExclusionViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) Confirm(ctx context.Context, id, callerID int64, callerRole domain.UserRole) (*domain.Booking, error) {
	return s.transition(ctx, id, callerID, callerRole, domain.BookingConfirmed)
}

func (s *Service) Complete(ctx context.Context, id, callerID int64, callerRole domain.UserRole) (*domain.Booking, error) {
	b, err := s.transition(ctx, id, callerID, callerRole, domain.BookingCompleted)
	if err != nil {
		return nil, err
	}
	if s.notifs != nil {
		_ = s.notifs.NotifyBookingCompleted(ctx, b)
	}
	return b, nil
}

// transition applies a landlord-or-admin driven status change, enforcing the
// lifecycle table.
func (s *Service) transition(ctx context.Context, id, callerID int64, callerRole domain.UserRole, to domain.BookingStatus) (*domain.Booking, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if callerRole != domain.RoleAdmin {
		prop, err := s.properties.GetByID(ctx, b.PropertyID)
		if err != nil {
			return nil, err
		}
		if prop.LandlordID != callerID {
			return nil, ErrForbidden
		}
	}

	if !domain.CanTransition(b.Status, to) {
		return nil, ErrInvalidState
	}

	if err := s.bookings.UpdateStatus(ctx, b.ID, to); err != nil {
		return nil, err
	}
	b.Status = to
	return b, nil
}

func (s *Service) Cancel(ctx context.Context, id, callerID int64, callerRole domain.UserRole, reason string) (*domain.Booking, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	// Only the tenant who holds the booking (or an admin) may cancel;
	// the landlord's say stops at confirm/complete.
	if callerRole != domain.RoleAdmin && b.UserID != callerID {
		return nil, ErrForbidden
	}

	if !domain.CanTransition(b.Status, domain.BookingCancelled) {
		return nil, ErrInvalidState
	}

	now := time.Now().UTC()
	if err := s.bookings.CancelWithReason(ctx, b.ID, reason, now); err != nil {
		return nil, err
	}
	b.Status = domain.BookingCancelled
	b.CancellationReason = reason
	b.CancelledAt = &now

	_ = s.properties.IncTotalBookings(ctx, b.PropertyID, -1)

	if s.notifs != nil {
		prop, perr := s.properties.GetByID(ctx, b.PropertyID)
		if perr == nil {
			_ = s.notifs.NotifyBookingCancelled(ctx, prop.LandlordID, b, reason)
		}
	}

	return b, nil
}

// Delete removes a booking record. Tenants may only delete their own
// bookings once these have reached a terminal state; admins may delete
// anything.
func (s *Service) Delete(ctx context.Context, id, callerID int64, callerRole domain.UserRole) error {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return err
	}
	if callerRole != domain.RoleAdmin {
		if b.UserID != callerID {
			return ErrForbidden
		}
		if !b.Status.IsTerminal() {
			return ErrInvalidState
		}
	}
	return s.bookings.Delete(ctx, b.ID)
}

func (s *Service) ListForUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *Service) ListForProperty(ctx context.Context, propertyID, callerID int64, callerRole domain.UserRole) ([]domain.Booking, error) {
	if callerRole != domain.RoleAdmin {
		prop, err := s.properties.GetByID(ctx, propertyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if prop.LandlordID != callerID {
			return nil, ErrForbidden
		}
	}
	return s.bookings.ListByProperty(ctx, propertyID)
}

func (s *Service) ListForLandlord(ctx context.Context, landlordID int64) ([]domain.Booking, error) {
	return s.bookings.ListByLandlord(ctx, landlordID)
}

func (s *Service) Stats(ctx context.Context, landlordID int64) ([]repository.BookingStatusStat, error) {
	return s.bookings.Stats(ctx, landlordID)
}
