package property

import "rentara/internal/domain"

type CreatePropertyRequest struct {
	Title        string              `json:"title" binding:"required"`
	Description  string              `json:"description"`
	PropertyType domain.PropertyType `json:"property_type" binding:"required"`
	Address      string              `json:"address"`
	City         string              `json:"city" binding:"required"`
	Price        float64             `json:"price" binding:"required,gt=0"`
	Currency     string              `json:"currency"`
	Bedrooms     int                 `json:"bedrooms"`
	Bathrooms    int                 `json:"bathrooms"`
	MaxGuests    int                 `json:"max_guests"`
}

// UpdatePropertyRequest is a partial patch; nil fields stay untouched.
type UpdatePropertyRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Address     *string  `json:"address"`
	City        *string  `json:"city"`
	Price       *float64 `json:"price"`
	Bedrooms    *int     `json:"bedrooms"`
	Bathrooms   *int     `json:"bathrooms"`
	MaxGuests   *int     `json:"max_guests"`
	IsAvailable *bool    `json:"is_available"`
}
