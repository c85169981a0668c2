package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the slice of the account the messaging engine needs. Registration,
// credentials and sessions live in the external identity service.
type User struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name     string    `json:"name" gorm:"size:100;not null"`
	Username string    `json:"username" gorm:"uniqueIndex;size:100;not null"`
	Avatar   string    `json:"avatar" gorm:"size:500;default:''"`

	// Notification settings consumed by the dispatcher
	NotifyMessages bool       `json:"notify_messages" gorm:"default:true"`
	MuteAllUntil   *time.Time `json:"mute_all_until,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Block records that blocker no longer accepts direct messages from blocked.
// Either direction of a pair is enough to forbid a direct send.
type Block struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BlockerID uuid.UUID `json:"blocker_id" gorm:"type:uuid;uniqueIndex:idx_block_pair;not null"`
	BlockedID uuid.UUID `json:"blocked_id" gorm:"type:uuid;uniqueIndex:idx_block_pair;not null"`
	CreatedAt time.Time `json:"created_at"`
}
