package domain

import "time"

type NotificationType string

const (
	NotifInfo    NotificationType = "info"
	NotifSuccess NotificationType = "success"
	NotifWarning NotificationType = "warning"
	NotifError   NotificationType = "error"
)

type Notification struct {
	ID          int64            `json:"id" gorm:"primaryKey"`
	UserID      int64            `json:"user_id" gorm:"index;not null"`
	Type        NotificationType `json:"type" gorm:"type:varchar(10);default:'info'"`
	Title       string           `json:"title" gorm:"type:varchar(100)"`
	Message     string           `json:"message" gorm:"type:text"`
	RelatedType string           `json:"related_type,omitempty" gorm:"type:varchar(20)"`
	RelatedID   int64            `json:"related_id,omitempty"`
	IsRead      bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
