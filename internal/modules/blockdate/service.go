package blockdate

import (
	"context"
	"errors"
	"time"

	"rentara/internal/domain"

	"gorm.io/gorm"
)

type BlockedDateRepository interface {
	Create(ctx context.Context, b *domain.BlockedDate) error
	GetByID(ctx context.Context, id int64) (*domain.BlockedDate, error)
	Update(ctx context.Context, b *domain.BlockedDate) error
	Delete(ctx context.Context, id int64) error
	CountOverlapping(ctx context.Context, propertyID int64, start, end time.Time, excludeID int64) (int64, error)
	ListByProperty(ctx context.Context, propertyID int64, start, end *time.Time) ([]domain.BlockedDate, error)
}

type BookingOverlapReader interface {
	CountOverlapping(ctx context.Context, propertyID int64, checkIn, checkOut time.Time, excludeID int64) (int64, error)
}

type PropertyReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Property, error)
}

type Service struct {
	blocked    BlockedDateRepository
	bookings   BookingOverlapReader
	properties PropertyReader
}

func NewService(blocked BlockedDateRepository, bookings BookingOverlapReader, properties PropertyReader) *Service {
	return &Service{blocked: blocked, bookings: bookings, properties: properties}
}

func normalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type CreateBlockRequest struct {
	PropertyID int64     `json:"property_id"`
	StartDate  time.Time `json:"start_date" binding:"required"`
	EndDate    time.Time `json:"end_date" binding:"required"`
	Reason     string    `json:"reason"`
}

// Create blocks a window. Unlike bookings, a window may not even touch an
// existing booking's range: blocking is a landlord action and must never
// pull dates out from under a confirmed stay.
func (s *Service) Create(ctx context.Context, callerID int64, callerRole domain.UserRole, req CreateBlockRequest) (*domain.BlockedDate, error) {
	start := normalizeDate(req.StartDate)
	end := normalizeDate(req.EndDate)
	if end.Before(start) {
		return nil, ErrValidation
	}

	if err := s.authorizeProperty(ctx, req.PropertyID, callerID, callerRole); err != nil {
		return nil, err
	}

	if err := s.checkWindowFree(ctx, req.PropertyID, start, end, 0); err != nil {
		return nil, err
	}

	b := &domain.BlockedDate{
		PropertyID: req.PropertyID,
		StartDate:  start,
		EndDate:    end,
		Reason:     req.Reason,
		BlockedBy:  callerID,
	}
	if err := s.blocked.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// checkWindowFree rejects a window that overlaps another window or any
// active booking. Closed window vs half-open bookings: the booking check
// uses the window's end as an exclusive bound pushed one day out.
func (s *Service) checkWindowFree(ctx context.Context, propertyID int64, start, end time.Time, excludeID int64) error {
	n, err := s.blocked.CountOverlapping(ctx, propertyID, start, end, excludeID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}

	n, err = s.bookings.CountOverlapping(ctx, propertyID, start, end.AddDate(0, 0, 1), 0)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	return nil
}

type UpdateBlockRequest struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Reason    *string    `json:"reason"`
}

// Update edits a window's dates or reason; date edits re-validate that the
// new window overlaps nothing, excluding the window being edited.
func (s *Service) Update(ctx context.Context, id, callerID int64, callerRole domain.UserRole, req UpdateBlockRequest) (*domain.BlockedDate, error) {
	b, err := s.blocked.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.authorizeProperty(ctx, b.PropertyID, callerID, callerRole); err != nil {
		return nil, err
	}

	start, end := b.StartDate, b.EndDate
	if req.StartDate != nil {
		start = normalizeDate(*req.StartDate)
	}
	if req.EndDate != nil {
		end = normalizeDate(*req.EndDate)
	}
	if end.Before(start) {
		return nil, ErrValidation
	}

	if req.StartDate != nil || req.EndDate != nil {
		if err := s.checkWindowFree(ctx, b.PropertyID, start, end, b.ID); err != nil {
			return nil, err
		}
		b.StartDate, b.EndDate = start, end
	}
	if req.Reason != nil {
		b.Reason = *req.Reason
	}

	if err := s.blocked.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, id, callerID int64, callerRole domain.UserRole) error {
	b, err := s.blocked.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.authorizeProperty(ctx, b.PropertyID, callerID, callerRole); err != nil {
		return err
	}
	return s.blocked.Delete(ctx, id)
}

func (s *Service) ListForProperty(ctx context.Context, propertyID int64, start, end *time.Time) ([]domain.BlockedDate, error) {
	if _, err := s.properties.GetByID(ctx, propertyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.blocked.ListByProperty(ctx, propertyID, start, end)
}

func (s *Service) authorizeProperty(ctx context.Context, propertyID, callerID int64, callerRole domain.UserRole) error {
	prop, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if callerRole != domain.RoleAdmin && prop.LandlordID != callerID {
		return ErrForbidden
	}
	return nil
}
