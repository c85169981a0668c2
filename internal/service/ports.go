package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
)

// The stores below are the persistence gateway the services are written
// against. internal/repository implements them over gorm; the tests implement
// them in memory. They hold no business rules.

// ConversationStore persists conversations
type ConversationStore interface {
	Create(conv *model.Conversation) error
	FindByID(id uuid.UUID) (*model.Conversation, error)
	FindBySlug(slug string) (*model.Conversation, error)
	// FindDirectByPair finds a direct conversation by the unordered user pair.
	// A self pair (a == b) matches the single-row favorites conversation.
	FindDirectByPair(a, b uuid.UUID) (*model.Conversation, error)
	Update(id uuid.UUID, fields map[string]interface{}) error
	SetUpdatedAt(id uuid.UUID, t time.Time) error
	// Delete hard-removes the conversation and all dependent rows
	Delete(id uuid.UUID) error
}

// ParticipantStore persists participant rows
type ParticipantStore interface {
	Create(p *model.Participant) error
	Find(conversationID, userID uuid.UUID) (*model.Participant, error)
	ListByConversation(conversationID uuid.UUID) ([]model.Participant, error)
	ListActive(conversationID uuid.UUID) ([]model.Participant, error)
	ListForUser(userID uuid.UUID) ([]model.Participant, error)
	Update(id uuid.UUID, fields map[string]interface{}) error
	CountActive(conversationID uuid.UUID) (int64, error)
	// ResurfaceForOthers clears is_hidden and is_manually_unread for every
	// participant except the sender, and is_archived for the unmuted ones,
	// so a new message always brings the chat back into their lists.
	ResurfaceForOthers(conversationID, exceptUserID uuid.UUID) error
}

// MessageStore persists messages, per-viewer tombstones and view counts.
// Every listing/count takes the viewer's visibility window and excludes
// messages individually deleted for that viewer.
type MessageStore interface {
	Create(m *model.Message) error
	FindByID(id uuid.UUID) (*model.Message, error)
	Update(id uuid.UUID, fields map[string]interface{}) error
	// Delete hard-removes the message with its reactions and read statuses
	Delete(id uuid.UUID) error
	ListWindow(conversationID, viewerID uuid.UUID, w Window, beforeID *uuid.UUID, limit int) ([]model.Message, error)
	CountWindow(conversationID, viewerID uuid.UUID, w Window) (int64, error)
	CountUnread(conversationID, viewerID uuid.UUID, w Window) (int64, error)
	ListUnreadIDs(conversationID, viewerID uuid.UUID, w Window) ([]uuid.UUID, error)
	// Last returns the newest message regardless of any viewer, or nil
	Last(conversationID uuid.UUID) (*model.Message, error)
	// LastVisible returns the newest message inside the viewer's window, or nil
	LastVisible(conversationID, viewerID uuid.UUID, w Window) (*model.Message, error)
	// IncrementViews bumps views_count for the given ids, touching only
	// messages that belong to channel conversations
	IncrementViews(ids []uuid.UUID) error
	MarkDeletedFor(messageID, userID uuid.UUID) error
	IsDeletedFor(messageID, userID uuid.UUID) (bool, error)
}

// ReactionStore persists the one-per-(message,user) reactions
type ReactionStore interface {
	Find(messageID, userID uuid.UUID) (*model.Reaction, error)
	Upsert(r *model.Reaction) error
	Delete(messageID, userID uuid.UUID) error
	ListByMessage(messageID uuid.UUID) ([]model.Reaction, error)
}

// ReadStore persists read receipts
type ReadStore interface {
	Exists(messageID, userID uuid.UUID) (bool, error)
	// BulkCreate inserts the given rows, silently skipping duplicates
	BulkCreate(rows []model.ReadStatus) error
}

// InviteStore persists invite links
type InviteStore interface {
	Create(l *model.InviteLink) error
	FindByCode(code string) (*model.InviteLink, error)
	ListByConversation(conversationID uuid.UUID) ([]model.InviteLink, error)
	// IncrementUsed atomically bumps used_count
	IncrementUsed(id uuid.UUID) error
	Delete(id uuid.UUID) error
}

// UserStore persists user rows, block pairs and push devices
type UserStore interface {
	FindByID(id uuid.UUID) (*model.User, error)
	// BlockExists reports whether either user has blocked the other
	BlockExists(a, b uuid.UUID) (bool, error)
	// CreateBlock records a block; re-blocking is a no-op
	CreateBlock(blockerID, blockedID uuid.UUID) error
	DeleteBlock(blockerID, blockedID uuid.UUID) error
	// RegisterDevice stores an FCM token, reassigning a stale row with the
	// same token to its new owner
	RegisterDevice(device *model.Device) error
}

// Notifier delivers an event to the live connections of a user.
// Delivery is best-effort, at-most-once, and never blocks the caller;
// services publish only after the persistence write has returned.
type Notifier interface {
	Publish(userID uuid.UUID, event string, payload interface{})
}

// Dispatcher creates offline/async notifications. Implementations honor the
// recipient's user-level settings; per-conversation mutes are applied by the
// caller before dispatching.
type Dispatcher interface {
	Create(ctx context.Context, recipientID uuid.UUID, kind, text string, actorID uuid.UUID, conversationID *uuid.UUID) error
}
