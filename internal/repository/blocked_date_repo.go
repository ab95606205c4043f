package repository

import (
	"context"
	"time"

	"rentara/internal/domain"

	"gorm.io/gorm"
)

type BlockedDateRepository struct {
	db *gorm.DB
}

func NewBlockedDateRepository(db *gorm.DB) *BlockedDateRepository {
	return &BlockedDateRepository{db: db}
}

func (r *BlockedDateRepository) Create(ctx context.Context, b *domain.BlockedDate) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BlockedDateRepository) GetByID(ctx context.Context, id int64) (*domain.BlockedDate, error) {
	var b domain.BlockedDate
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BlockedDateRepository) Update(ctx context.Context, b *domain.BlockedDate) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *BlockedDateRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.BlockedDate{}, id).Error
}

// CountOverlapping counts blocked windows intersecting [start, end] with
// closed-interval semantics: a window touching the range boundary counts
// as a conflict. Deliberately stricter than the booking-vs-booking test.
func (r *BlockedDateRepository) CountOverlapping(ctx context.Context, propertyID int64, start, end time.Time, excludeID int64) (int64, error) {
	var cnt int64
	q := r.db.WithContext(ctx).Model(&domain.BlockedDate{}).
		Where("property_id = ?", propertyID).
		Where("start_date <= ? AND end_date >= ?", end, start)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *BlockedDateRepository) ListByProperty(ctx context.Context, propertyID int64, start, end *time.Time) ([]domain.BlockedDate, error) {
	q := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("start_date ASC")
	if start != nil && end != nil {
		q = q.Where("start_date <= ? AND end_date >= ?", *end, *start)
	}
	var out []domain.BlockedDate
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
