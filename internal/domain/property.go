package domain

import "time"

type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyStudio    PropertyType = "studio"
	PropertyRoom      PropertyType = "room"
)

type Property struct {
	ID            int64        `json:"id" gorm:"primaryKey"`
	LandlordID    int64        `json:"landlord_id" gorm:"index;not null"`
	Title         string       `json:"title" validate:"required"`
	Description   string       `json:"description,omitempty" gorm:"type:text"`
	PropertyType  PropertyType `json:"property_type" gorm:"type:varchar(20)"`
	Address       string       `json:"address,omitempty"`
	City          string       `json:"city,omitempty" gorm:"index"`
	Price         float64      `json:"price" validate:"required,gte=0"`
	Currency      string       `json:"currency" gorm:"type:varchar(3);default:'RWF'"`
	Bedrooms      int          `json:"bedrooms"`
	Bathrooms     int          `json:"bathrooms"`
	MaxGuests     int          `json:"max_guests"`
	IsAvailable   bool         `json:"is_available" gorm:"default:true"`
	IsVerified    bool         `json:"is_verified" gorm:"default:false;index"`
	AverageRating *float64     `json:"average_rating,omitempty"`
	TotalBookings int64        `json:"total_bookings"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	Landlord *User `json:"landlord,omitempty" gorm:"foreignKey:LandlordID"`
}

func (Property) TableName() string { return "properties" }
