package repository

import (
	"context"

	"rentara/internal/domain"

	"gorm.io/gorm"
)

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PropertyRepository) GetByID(ctx context.Context, id int64) (*domain.Property, error) {
	var p domain.Property
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PropertyRepository) Update(ctx context.Context, p *domain.Property) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PropertyRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.Property{}, id).Error
}

type PropertyFilter struct {
	City         string
	LandlordID   int64
	OnlyVerified bool
	MaxPrice     float64
	Limit        int
	Offset       int
}

func (r *PropertyRepository) List(ctx context.Context, f PropertyFilter) ([]domain.Property, error) {
	q := r.db.WithContext(ctx).Model(&domain.Property{}).Order("created_at DESC")
	if f.City != "" {
		q = q.Where("city = ?", f.City)
	}
	if f.LandlordID > 0 {
		q = q.Where("landlord_id = ?", f.LandlordID)
	}
	if f.OnlyVerified {
		q = q.Where("is_verified = ?", true)
	}
	if f.MaxPrice > 0 {
		q = q.Where("price <= ?", f.MaxPrice)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var out []domain.Property
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PropertyRepository) SetVerified(ctx context.Context, id int64, verified bool) error {
	return r.db.WithContext(ctx).Model(&domain.Property{}).
		Where("id = ?", id).
		Update("is_verified", verified).Error
}

func (r *PropertyRepository) UpdateRating(ctx context.Context, id int64, avg *float64) error {
	return r.db.WithContext(ctx).Model(&domain.Property{}).
		Where("id = ?", id).
		Update("average_rating", avg).Error
}

func (r *PropertyRepository) IncTotalBookings(ctx context.Context, id int64, delta int) error {
	return r.db.WithContext(ctx).Model(&domain.Property{}).
		Where("id = ?", id).
		Update("total_bookings", gorm.Expr("total_bookings + ?", delta)).Error
}

func (r *PropertyRepository) Count(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&domain.Property{}).Count(&cnt).Error
	return cnt, err
}
