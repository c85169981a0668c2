package model

import (
	"time"

	"github.com/google/uuid"
)

// MessageType distinguishes user posts from synthetic lifecycle records
type MessageType string

const (
	MessageTypeRegular MessageType = "regular"
	MessageTypeSystem  MessageType = "system"
)

// Message represents a message in a conversation.
// CreatedAt is immutable and defines ordering; edits only set EditedAt.
type Message struct {
	ID             uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID uuid.UUID   `json:"conversation_id" gorm:"type:uuid;index;not null"`
	SenderID       uuid.UUID   `json:"sender_id" gorm:"type:uuid;index;not null"`
	Content        string      `json:"content" gorm:"type:text"`
	Images         []string    `json:"images,omitempty" gorm:"serializer:json"`
	Type           MessageType `json:"type" gorm:"type:varchar(20);default:'regular'"`
	ReplyToID      *uuid.UUID  `json:"reply_to_id,omitempty" gorm:"type:uuid"`
	// ForwardedFromID points to the original author, not the immediate
	// forwarder, so attribution survives multi-hop forwards.
	ForwardedFromID *uuid.UUID `json:"forwarded_from_id,omitempty" gorm:"type:uuid"`
	IsPinned        bool       `json:"is_pinned" gorm:"default:false"`
	IsAnonymous     bool       `json:"is_anonymous" gorm:"default:false"` // channel posts hide the sender
	ViewsCount      int64      `json:"views_count" gorm:"default:0"`      // channel-only
	EditedAt        *time.Time `json:"edited_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at" gorm:"index"`

	// Relations
	Sender        User       `json:"sender" gorm:"foreignKey:SenderID"`
	ForwardedFrom *User      `json:"forwarded_from,omitempty" gorm:"foreignKey:ForwardedFromID"`
	ReplyTo       *Message   `json:"reply_to,omitempty" gorm:"foreignKey:ReplyToID"`
	Reactions     []Reaction `json:"reactions,omitempty" gorm:"foreignKey:MessageID"`
}

// Reaction is the single emoji a user has placed on a message.
// The (message, user) pair is unique: reacting again toggles or replaces.
type Reaction struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageID uuid.UUID `json:"message_id" gorm:"type:uuid;uniqueIndex:idx_reaction_msg_user;not null"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_reaction_msg_user;not null"`
	Emoji     string    `json:"emoji" gorm:"size:32;not null"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID"`
}

// ReadStatus marks a message as read by a user. Existence implies read;
// rows are never created for the message's own sender.
type ReadStatus struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageID uuid.UUID `json:"message_id" gorm:"type:uuid;uniqueIndex:idx_read_msg_user;not null"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_read_msg_user;not null"`
	ReadAt    time.Time `json:"read_at" gorm:"not null"`
}

// MessageDeletion is a per-viewer tombstone ("delete for me"). The message
// itself stays untouched for everyone else.
type MessageDeletion struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageID uuid.UUID `json:"message_id" gorm:"type:uuid;uniqueIndex:idx_del_msg_user;not null"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_del_msg_user;not null"`
	CreatedAt time.Time `json:"created_at"`
}
