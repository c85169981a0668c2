package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is the persisted offline notification created by the
// dispatcher when a recipient is not looking at the conversation.
type Notification struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RecipientID    uuid.UUID  `json:"recipient_id" gorm:"type:uuid;index;not null"`
	Kind           string     `json:"kind" gorm:"size:50;not null"` // e.g. new_message
	Text           string     `json:"text" gorm:"type:text"`
	ActorID        uuid.UUID  `json:"actor_id" gorm:"type:uuid"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty" gorm:"type:uuid"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
