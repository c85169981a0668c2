package model

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantRole defines the role of a participant in a conversation
type ParticipantRole string

const (
	RoleAdmin     ParticipantRole = "admin"
	RoleModerator ParticipantRole = "moderator"
	RoleMember    ParticipantRole = "member"
)

// ParticipantStatus tracks membership state. Rows are never hard-deleted while
// the conversation exists, so read-history attribution survives departures.
type ParticipantStatus string

const (
	StatusActive ParticipantStatus = "active"
	StatusLeft   ParticipantStatus = "left"
	StatusKicked ParticipantStatus = "kicked"
)

// Permission is a bitset of per-participant grants. Meaningful chiefly for
// channel members, where posting is off by default.
type Permission uint8

const (
	PermPost Permission = 1 << iota
	PermEdit
	PermDelete
	PermInvite
)

// Has reports whether all bits in perm are granted
func (p Permission) Has(perm Permission) bool {
	return p&perm == perm
}

// Participant represents a user's membership in a conversation
type Participant struct {
	ID             uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID uuid.UUID         `json:"conversation_id" gorm:"type:uuid;uniqueIndex:idx_conv_user;not null"`
	UserID         uuid.UUID         `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_conv_user;not null"`
	Role           ParticipantRole   `json:"role" gorm:"type:varchar(20);default:'member'"`
	Perms          Permission        `json:"perms" gorm:"default:0"`
	Status         ParticipantStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	KickedAt       *time.Time        `json:"kicked_at,omitempty"` // set when status is left or kicked
	Banned         bool              `json:"banned" gorm:"default:false"` // blocks re-join via invite or slug

	// Per-user conversation-list state
	IsPinned         bool       `json:"is_pinned" gorm:"default:false"`
	PinOrder         int        `json:"pin_order" gorm:"default:0"`
	IsArchived       bool       `json:"is_archived" gorm:"default:false"`
	IsHidden         bool       `json:"is_hidden" gorm:"default:false"` // removed from the list without deleting data
	IsManuallyUnread bool       `json:"is_manually_unread" gorm:"default:false"`
	Muted            bool       `json:"muted" gorm:"default:false"`
	MutedUntil       *time.Time `json:"muted_until,omitempty"`

	// ClearedHistoryAt is the exclusive lower bound of the visible message
	// window; it advances when the user deletes the conversation for themselves.
	ClearedHistoryAt *time.Time `json:"cleared_history_at,omitempty"`

	JoinedAt  time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User         User         `json:"user" gorm:"foreignKey:UserID"`
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID"`
}

// IsActive reports whether the participant is currently a member
func (p *Participant) IsActive() bool {
	return p.Status == StatusActive
}

// IsMutedAt reports whether notifications are muted at the given instant
func (p *Participant) IsMutedAt(now time.Time) bool {
	if p.Muted {
		return true
	}
	return p.MutedUntil != nil && now.Before(*p.MutedUntil)
}
