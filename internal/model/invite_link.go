package model

import (
	"time"

	"github.com/google/uuid"
)

// InviteLink is a time- and use-limited join token for a group or channel.
// Expiry and usage are checked at redemption time, never swept proactively.
type InviteLink struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code           string     `json:"code" gorm:"uniqueIndex;size:64;not null"`
	ConversationID uuid.UUID  `json:"conversation_id" gorm:"type:uuid;index;not null"`
	CreatorID      uuid.UUID  `json:"creator_id" gorm:"type:uuid;not null"`
	UsageLimit     *int       `json:"usage_limit,omitempty"`
	UsedCount      int        `json:"used_count" gorm:"default:0"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Exhausted reports whether the usage limit has been reached
func (l *InviteLink) Exhausted() bool {
	return l.UsageLimit != nil && l.UsedCount >= *l.UsageLimit
}

// Expired reports whether the link has passed its expiry
func (l *InviteLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
