package repository

import (
	"context"
	"time"

	"rentara/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID                 int64      `gorm:"column:id;primaryKey"`
	PropertyID         int64      `gorm:"column:property_id"`
	UserID             int64      `gorm:"column:user_id"`
	CheckInDate        time.Time  `gorm:"column:check_in_date"`
	CheckOutDate       time.Time  `gorm:"column:check_out_date"`
	Amount             float64    `gorm:"column:amount"`
	GuestAdults        int        `gorm:"column:guest_adults"`
	GuestChildren      int        `gorm:"column:guest_children"`
	GuestInfants       int        `gorm:"column:guest_infants"`
	Status             string     `gorm:"column:status"`
	PaymentStatus      string     `gorm:"column:payment_status"`
	SpecialRequests    *string    `gorm:"column:special_requests"`
	CancellationReason *string    `gorm:"column:cancellation_reason"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var requests, reason string
	if m.SpecialRequests != nil {
		requests = *m.SpecialRequests
	}
	if m.CancellationReason != nil {
		reason = *m.CancellationReason
	}

	return &domain.Booking{
		ID:           m.ID,
		PropertyID:   m.PropertyID,
		UserID:       m.UserID,
		CheckInDate:  m.CheckInDate,
		CheckOutDate: m.CheckOutDate,
		Amount:       m.Amount,
		Guests: domain.GuestCount{
			Adults:   m.GuestAdults,
			Children: m.GuestChildren,
			Infants:  m.GuestInfants,
		},
		Status:             domain.BookingStatus(m.Status),
		PaymentStatus:      domain.BookingPaymentStatus(m.PaymentStatus),
		SpecialRequests:    requests,
		CancellationReason: reason,
		CancelledAt:        m.CancelledAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var requests, reason *string
	if b.SpecialRequests != "" {
		v := b.SpecialRequests
		requests = &v
	}
	if b.CancellationReason != "" {
		v := b.CancellationReason
		reason = &v
	}

	return bookingModel{
		ID:                 b.ID,
		PropertyID:         b.PropertyID,
		UserID:             b.UserID,
		CheckInDate:        b.CheckInDate,
		CheckOutDate:       b.CheckOutDate,
		Amount:             b.Amount,
		GuestAdults:        b.Guests.Adults,
		GuestChildren:      b.Guests.Children,
		GuestInfants:       b.Guests.Infants,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		SpecialRequests:    requests,
		CancellationReason: reason,
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

// CountOverlapping counts active bookings whose half-open [check-in,
// check-out) range intersects the given one. Adjacent ranges (one ends
// exactly where the next begins) do not overlap.
func (r *BookingRepository) CountOverlapping(ctx context.Context, propertyID int64, checkIn, checkOut time.Time, excludeID int64) (int64, error) {
	var cnt int64
	q := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("property_id = ?", propertyID).
		Where("status NOT IN ?", []string{string(domain.BookingCancelled), string(domain.BookingCompleted)}).
		Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Save(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	return r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
}

func (r *BookingRepository) CancelWithReason(ctx context.Context, id int64, reason string, at time.Time) error {
	updates := map[string]interface{}{
		"status":       string(domain.BookingCancelled),
		"cancelled_at": at,
	}
	if reason != "" {
		updates["cancellation_reason"] = reason
	}
	return r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdatePaymentStatus writes the projection only when it actually changed.
func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.BookingPaymentStatus) (*domain.Booking, error) {
	tx := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("id = ? AND payment_status <> ?", id, string(status)).
		Update("payment_status", string(status))
	if tx.Error != nil {
		return nil, tx.Error
	}
	return r.GetByID(ctx, id)
}

func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&bookingModel{}, id).Error
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	var ms []bookingModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) ListByProperty(ctx context.Context, propertyID int64) ([]domain.Booking, error) {
	var ms []bookingModel
	if err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("check_in_date ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) ListByLandlord(ctx context.Context, landlordID int64) ([]domain.Booking, error) {
	var ms []bookingModel
	if err := r.db.WithContext(ctx).
		Where("property_id IN (?)", r.db.Model(&domain.Property{}).Select("id").Where("landlord_id = ?", landlordID)).
		Order("created_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func toDomainBookings(ms []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out
}

type BookingStatusStat struct {
	Status      string  `json:"status"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// Stats aggregates per-status booking counts and revenue, optionally
// scoped to one landlord's properties.
func (r *BookingRepository) Stats(ctx context.Context, landlordID int64) ([]BookingStatusStat, error) {
	var rows []BookingStatusStat
	q := r.db.WithContext(ctx).Model(&bookingModel{}).
		Select("status, COUNT(1) AS count, COALESCE(SUM(amount), 0) AS total_amount").
		Group("status")
	if landlordID > 0 {
		q = q.Where("property_id IN (?)", r.db.Model(&domain.Property{}).Select("id").Where("landlord_id = ?", landlordID))
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
