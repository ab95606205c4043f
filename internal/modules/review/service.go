package review

import (
	"context"
	"errors"

	"rentara/internal/domain"

	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, rv *domain.Review) error
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	Update(ctx context.Context, rv *domain.Review) error
	Delete(ctx context.Context, id int64) error
	ListByProperty(ctx context.Context, propertyID int64) ([]domain.Review, error)
	ExistsForUser(ctx context.Context, propertyID, userID int64) (bool, error)
	Average(ctx context.Context, propertyID int64) (*float64, error)
}

type BookingReader interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
}

type PropertyStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Property, error)
	UpdateRating(ctx context.Context, id int64, avg *float64) error
}

type Service struct {
	reviews    ReviewRepository
	bookings   BookingReader
	properties PropertyStore
}

func NewService(reviews ReviewRepository, bookings BookingReader, properties PropertyStore) *Service {
	return &Service{reviews: reviews, bookings: bookings, properties: properties}
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,gte=1,lte=5"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
}

// Create accepts one review per user per property, and only after a
// completed stay there.
func (s *Service) Create(ctx context.Context, propertyID, userID int64, req CreateReviewRequest) (*domain.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrValidation
	}

	if _, err := s.properties.GetByID(ctx, propertyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	exists, err := s.reviews.ExistsForUser(ctx, propertyID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	eligible, err := s.hasCompletedStay(ctx, propertyID, userID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrNotEligible
	}

	rv := &domain.Review{
		PropertyID: propertyID,
		UserID:     userID,
		Rating:     req.Rating,
		Title:      req.Title,
		Comment:    req.Comment,
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}

	if err := s.refreshRating(ctx, propertyID); err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *Service) hasCompletedStay(ctx context.Context, propertyID, userID int64) (bool, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for i := range bookings {
		if bookings[i].PropertyID == propertyID && bookings[i].Status == domain.BookingCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) Update(ctx context.Context, id, callerID int64, callerRole domain.UserRole, req UpdateReviewRequest) (*domain.Review, error) {
	rv, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole != domain.RoleAdmin && rv.UserID != callerID {
		return nil, ErrForbidden
	}

	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return nil, ErrValidation
		}
		rv.Rating = *req.Rating
	}
	if req.Title != nil {
		rv.Title = *req.Title
	}
	if req.Comment != nil {
		rv.Comment = *req.Comment
	}

	if err := s.reviews.Update(ctx, rv); err != nil {
		return nil, err
	}
	if err := s.refreshRating(ctx, rv.PropertyID); err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *Service) Delete(ctx context.Context, id, callerID int64, callerRole domain.UserRole) error {
	rv, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if callerRole != domain.RoleAdmin && rv.UserID != callerID {
		return ErrForbidden
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	return s.refreshRating(ctx, rv.PropertyID)
}

func (s *Service) ListForProperty(ctx context.Context, propertyID int64) ([]domain.Review, error) {
	if _, err := s.properties.GetByID(ctx, propertyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.reviews.ListByProperty(ctx, propertyID)
}

func (s *Service) get(ctx context.Context, id int64) (*domain.Review, error) {
	rv, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rv, nil
}

// refreshRating recomputes the property's average from stored reviews,
// keeping the denormalized field derived rather than incrementally patched.
func (s *Service) refreshRating(ctx context.Context, propertyID int64) error {
	avg, err := s.reviews.Average(ctx, propertyID)
	if err != nil {
		return err
	}
	return s.properties.UpdateRating(ctx, propertyID, avg)
}
