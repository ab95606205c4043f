package repository

import (
	"context"

	"rentara/internal/domain"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	var rv domain.Review
	if err := r.db.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) error {
	return r.db.WithContext(ctx).Save(rv).Error
}

func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.Review{}, id).Error
}

func (r *ReviewRepository) ListByProperty(ctx context.Context, propertyID int64) ([]domain.Review, error) {
	var out []domain.Review
	if err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReviewRepository) ExistsForUser(ctx context.Context, propertyID, userID int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&domain.Review{}).
		Where("property_id = ? AND user_id = ?", propertyID, userID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// Average returns the mean rating for a property, nil when unreviewed.
func (r *ReviewRepository) Average(ctx context.Context, propertyID int64) (*float64, error) {
	var row struct {
		Avg *float64
		Cnt int64
	}
	if err := r.db.WithContext(ctx).Model(&domain.Review{}).
		Select("AVG(rating) AS avg, COUNT(1) AS cnt").
		Where("property_id = ?", propertyID).
		Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.Cnt == 0 {
		return nil, nil
	}
	return row.Avg, nil
}
