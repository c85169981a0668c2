package model

import (
	"time"

	"github.com/google/uuid"
)

// Device stores an FCM registration token for push notifications
type Device struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	FCMToken   string    `json:"fcm_token" gorm:"size:500;uniqueIndex;not null"`
	DeviceType string    `json:"device_type" gorm:"size:20"` // ios, android, web
	CreatedAt  time.Time `json:"created_at"`
}
