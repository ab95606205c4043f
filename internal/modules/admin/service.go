package admin

import (
	"context"
	"errors"

	"rentara/internal/domain"
	"rentara/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("user not found")
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateRole(ctx context.Context, id int64, role domain.UserRole) error
	Count(ctx context.Context) (int64, error)
}

type PropertyCounter interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, f repository.PropertyFilter) ([]domain.Property, error)
}

type BookingStatsReader interface {
	Stats(ctx context.Context, landlordID int64) ([]repository.BookingStatusStat, error)
}

type PaymentStatsReader interface {
	StatsByStatus(ctx context.Context, landlordID int64) ([]repository.PaymentStatusStat, error)
	StatsByMethod(ctx context.Context, landlordID int64) ([]repository.PaymentMethodStat, error)
}

type Service struct {
	users      UserRepository
	properties PropertyCounter
	bookings   BookingStatsReader
	payments   PaymentStatsReader
}

func NewService(users UserRepository, properties PropertyCounter, bookings BookingStatsReader, payments PaymentStatsReader) *Service {
	return &Service{
		users:      users,
		properties: properties,
		bookings:   bookings,
		payments:   payments,
	}
}

type Dashboard struct {
	TotalUsers      int64                          `json:"total_users"`
	TotalProperties int64                          `json:"total_properties"`
	Bookings        []repository.BookingStatusStat `json:"bookings"`
	Payments        []repository.PaymentStatusStat `json:"payments"`
	PaymentMethods  []repository.PaymentMethodStat `json:"payment_methods"`
}

// Dashboard aggregates platform-wide counts. Landlord-scoped readers take
// zero as "all landlords".
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	properties, err := s.properties.Count(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.Stats(ctx, 0)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.StatsByStatus(ctx, 0)
	if err != nil {
		return nil, err
	}
	methods, err := s.payments.StatsByMethod(ctx, 0)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalUsers:      users,
		TotalProperties: properties,
		Bookings:        bookings,
		Payments:        payments,
		PaymentMethods:  methods,
	}, nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.users.List(ctx, limit, offset)
}

func (s *Service) SetUserRole(ctx context.Context, userID int64, role domain.UserRole) (*domain.User, error) {
	switch role {
	case domain.RoleTenant, domain.RoleLandlord, domain.RoleAdmin:
	default:
		return nil, ErrValidation
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

func (s *Service) ListUnverifiedProperties(ctx context.Context) ([]domain.Property, error) {
	all, err := s.properties.List(ctx, repository.PropertyFilter{})
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if !p.IsVerified {
			out = append(out, p)
		}
	}
	return out, nil
}
