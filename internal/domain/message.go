package domain

import "time"

// Conversation is a tenant/landlord thread scoped to one property.
type Conversation struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	PropertyID int64     `json:"property_id" gorm:"not null;uniqueIndex:idx_conversation_pair"`
	TenantID   int64     `json:"tenant_id" gorm:"not null;uniqueIndex:idx_conversation_pair"`
	LandlordID int64     `json:"landlord_id" gorm:"index;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }

type Message struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	ConversationID int64     `json:"conversation_id" gorm:"index;not null"`
	SenderID       int64     `json:"sender_id" gorm:"not null"`
	Body           string    `json:"body" gorm:"type:text;not null"`
	IsRead         bool      `json:"is_read" gorm:"default:false"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Message) TableName() string { return "messages" }
