package domain

import "time"

type Review struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	PropertyID int64     `json:"property_id" gorm:"not null;uniqueIndex:idx_one_review_per_user"`
	UserID     int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_one_review_per_user"`
	Rating     int       `json:"rating" validate:"required,gte=1,lte=5"`
	Title      string    `json:"title,omitempty" gorm:"type:varchar(100)"`
	Comment    string    `json:"comment,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Review) TableName() string { return "reviews" }
