package domain

import "time"

// BlockedDate is an explicit unavailability window for a property,
// independent of bookings (maintenance, manual block, past-dates sentinel).
type BlockedDate struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	PropertyID int64     `json:"property_id" gorm:"not null;uniqueIndex:idx_blocked_window"`
	StartDate  time.Time `json:"start_date" gorm:"not null;uniqueIndex:idx_blocked_window"`
	EndDate    time.Time `json:"end_date" gorm:"not null;uniqueIndex:idx_blocked_window"`
	Reason     string    `json:"reason,omitempty" gorm:"type:varchar(200)"`
	BlockedBy  int64     `json:"blocked_by" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (BlockedDate) TableName() string { return "blocked_dates" }
