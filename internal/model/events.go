package model

import "github.com/google/uuid"

// Event is the envelope delivered to live connections
type Event struct {
	Name    string      `json:"name"`
	Payload interface{} `json:"payload"`
}

// Realtime event names. Every mutating operation publishes the authoritative
// post-commit state under one of these.
const (
	EventMessageReceived     = "message_received"
	EventMessageUpdated      = "message_updated"
	EventMessageDeleted      = "message_deleted"
	EventConversationUpdated = "conversation_updated"
	EventConversationDeleted = "conversation_deleted"
	EventMessagesRead        = "messages_read"
	EventUnreadReaction      = "unread_reaction"
)

// MessageEvent carries a message together with the recipient's own read state
type MessageEvent struct {
	Message *Message `json:"message"`
	IsRead  bool     `json:"is_read"`
}

// MessageDeletedEvent is published on delete-for-all only
type MessageDeletedEvent struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

// ConversationUpdatedEvent carries the id plus the fields that changed
type ConversationUpdatedEvent struct {
	ConversationID uuid.UUID              `json:"conversation_id"`
	Fields         map[string]interface{} `json:"fields,omitempty"`
}

// ConversationDeletedEvent is published on delete-for-all of a conversation
type ConversationDeletedEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

// MessagesReadEvent tells the other side of a direct chat their messages were read
type MessagesReadEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	ReaderID       uuid.UUID `json:"reader_id"`
}

// UnreadReactionEvent signals the message sender that someone reacted
type UnreadReactionEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}
