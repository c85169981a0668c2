package model

import (
	"time"

	"github.com/google/uuid"
)

// ConversationKind defines the kind of conversation
type ConversationKind string

const (
	KindDirect  ConversationKind = "direct"
	KindGroup   ConversationKind = "group"
	KindChannel ConversationKind = "channel"
)

// Conversation represents a direct chat, group or broadcast channel
type Conversation struct {
	ID        uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Kind      ConversationKind `json:"kind" gorm:"type:varchar(20);default:'direct';index"`
	Title     string           `json:"title" gorm:"size:100"`                      // empty for direct
	Slug      *string          `json:"slug,omitempty" gorm:"uniqueIndex;size:100"` // public channel handle
	Avatar    string           `json:"avatar,omitempty" gorm:"size:500"`
	OwnerID   *uuid.UUID       `json:"owner_id,omitempty" gorm:"type:uuid"` // channel creator
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"` // bumped on new message and pin/unpin

	// Relations
	Participants []Participant `json:"participants,omitempty" gorm:"foreignKey:ConversationID"`
	LastMessage  *Message      `json:"last_message,omitempty" gorm:"-"` // populated manually
}

// IsGroup reports whether the conversation has group semantics (group or channel)
func (c *Conversation) IsGroup() bool {
	return c.Kind != KindDirect
}
