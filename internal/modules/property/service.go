package property

import (
	"context"
	"errors"

	"rentara/internal/domain"
	"rentara/internal/repository"

	"gorm.io/gorm"
)

type Service struct {
	properties PropertyRepository
	currency   string
}

func NewService(properties PropertyRepository, currency string) *Service {
	return &Service{properties: properties, currency: currency}
}

func validPropertyType(t domain.PropertyType) bool {
	switch t {
	case domain.PropertyApartment, domain.PropertyHouse, domain.PropertyStudio, domain.PropertyRoom:
		return true
	}
	return false
}

func (s *Service) Create(ctx context.Context, landlordID int64, req CreatePropertyRequest) (*domain.Property, error) {
	if req.Price <= 0 || !validPropertyType(req.PropertyType) {
		return nil, ErrValidation
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	p := &domain.Property{
		LandlordID:   landlordID,
		Title:        req.Title,
		Description:  req.Description,
		PropertyType: req.PropertyType,
		Address:      req.Address,
		City:         req.City,
		Price:        req.Price,
		Currency:     currency,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		MaxGuests:    req.MaxGuests,
		IsAvailable:  true,
	}
	if err := s.properties.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Property, error) {
	p, err := s.properties.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List is the public catalogue: unverified listings are hidden unless the
// caller asks for their own.
func (s *Service) List(ctx context.Context, f repository.PropertyFilter) ([]domain.Property, error) {
	if f.LandlordID == 0 {
		f.OnlyVerified = true
	}
	return s.properties.List(ctx, f)
}

func (s *Service) ListForLandlord(ctx context.Context, landlordID int64) ([]domain.Property, error) {
	return s.properties.List(ctx, repository.PropertyFilter{LandlordID: landlordID})
}

func (s *Service) Update(ctx context.Context, id, callerID int64, callerRole domain.UserRole, req UpdatePropertyRequest) (*domain.Property, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole != domain.RoleAdmin && p.LandlordID != callerID {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, ErrValidation
		}
		p.Price = *req.Price
	}
	if req.Bedrooms != nil {
		p.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		p.Bathrooms = *req.Bathrooms
	}
	if req.MaxGuests != nil {
		p.MaxGuests = *req.MaxGuests
	}
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}

	if err := s.properties.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id, callerID int64, callerRole domain.UserRole) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if callerRole != domain.RoleAdmin && p.LandlordID != callerID {
		return ErrForbidden
	}
	return s.properties.Delete(ctx, id)
}

// Verify flips the admin moderation flag. Only verified listings are
// bookable by tenants and visible in the public catalogue.
func (s *Service) Verify(ctx context.Context, id int64, verified bool) (*domain.Property, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.properties.SetVerified(ctx, id, verified); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
