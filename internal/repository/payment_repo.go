package repository

import (
	"context"
	"time"

	"rentara/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PaymentRepository) ListRefunds(ctx context.Context) ([]domain.Payment, error) {
	var out []domain.Payment
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			string(domain.PaymentRefunded),
			string(domain.PaymentPartiallyRefunded),
		}).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyStatus moves a payment to the given status if and only if it ranks
// strictly above the stored one. The read-compare-write runs in a
// transaction with a row lock on PostgreSQL, so the three independent
// writers (direct processing, verification poll, webhook) serialize here.
// Returns the payment after the attempt and whether anything changed:
// duplicate deliveries are a no-op, regressions are refused.
func (r *PaymentRepository) ApplyStatus(ctx context.Context, transactionID string, status domain.PaymentStatus, rawResponse string) (*domain.Payment, bool, error) {
	var out *domain.Payment
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var p domain.Payment
		if err := q.Where("transaction_id = ?", transactionID).First(&p).Error; err != nil {
			return err
		}

		if domain.PaymentStatusRank(status) <= domain.PaymentStatusRank(p.Status) {
			out = &p
			changed = false
			return nil
		}

		updates := map[string]interface{}{"status": string(status)}
		if rawResponse != "" {
			updates["gateway_response"] = rawResponse
		}
		if err := tx.Model(&domain.Payment{}).
			Where("transaction_id = ?", transactionID).
			Updates(updates).Error; err != nil {
			return err
		}

		p.Status = status
		if rawResponse != "" {
			p.GatewayResponse = rawResponse
		}
		out = &p
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, changed, nil
}

func (r *PaymentRepository) MarkRefunded(ctx context.Context, id int64, status domain.PaymentStatus, amount float64, reason string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        string(status),
			"refund_amount": amount,
			"refund_reason": reason,
			"refunded_at":   at,
		}).Error
}

type PaymentStatusStat struct {
	Status      string  `json:"status"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

type PaymentMethodStat struct {
	Method      string  `json:"method" gorm:"column:payment_method"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

func (r *PaymentRepository) StatsByStatus(ctx context.Context, landlordID int64) ([]PaymentStatusStat, error) {
	var rows []PaymentStatusStat
	q := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Select("status, COUNT(1) AS count, COALESCE(SUM(amount), 0) AS total_amount").
		Group("status")
	if landlordID > 0 {
		q = q.Where("booking_id IN (?)", r.landlordBookingIDs(landlordID))
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PaymentRepository) StatsByMethod(ctx context.Context, landlordID int64) ([]PaymentMethodStat, error) {
	var rows []PaymentMethodStat
	q := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Select("payment_method, COUNT(1) AS count, COALESCE(SUM(amount), 0) AS total_amount").
		Group("payment_method")
	if landlordID > 0 {
		q = q.Where("booking_id IN (?)", r.landlordBookingIDs(landlordID))
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PaymentRepository) landlordBookingIDs(landlordID int64) *gorm.DB {
	return r.db.Model(&bookingModel{}).Select("id").
		Where("property_id IN (?)", r.db.Model(&domain.Property{}).Select("id").Where("landlord_id = ?", landlordID))
}
