package model

import (
	"time"

	"github.com/google/uuid"
)

// ========== Message DTOs ==========

type SendMessageRequest struct {
	Content   string     `json:"content" binding:"required_without=Images"`
	Images    []string   `json:"images,omitempty"`
	ReplyToID *uuid.UUID `json:"reply_to_id"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// DeleteMessageRequest selects delete-for-me (default) or delete-for-all
type DeleteMessageRequest struct {
	ForAll bool `json:"for_all"`
}

type ForwardMessageRequest struct {
	ConversationIDs []uuid.UUID `json:"conversation_ids" binding:"required,min=1"`
}

type ToggleReactionRequest struct {
	Emoji string `json:"emoji" binding:"required,max=32"`
}

type IncrementViewsRequest struct {
	MessageIDs []uuid.UUID `json:"message_ids" binding:"required,min=1"`
}

type MessageListRequest struct {
	Before string `form:"before"` // cursor for pagination (message ID)
	Limit  int    `form:"limit,default=50"`
}

// MessageResponse is a message with the viewer-specific read projection
type MessageResponse struct {
	Message
	IsRead bool `json:"is_read"`
}

// ========== Conversation DTOs ==========

type CreateGroupRequest struct {
	Title     string      `json:"title" binding:"required,max=100"`
	Avatar    string      `json:"avatar" binding:"max=500"`
	MemberIDs []uuid.UUID `json:"member_ids" binding:"required,min=2"`
}

type CreateChannelRequest struct {
	Title  string  `json:"title" binding:"required,max=100"`
	Slug   *string `json:"slug" binding:"omitempty,max=100"`
	Avatar string  `json:"avatar" binding:"max=500"`
}

type DirectConversationRequest struct {
	PartnerID uuid.UUID `json:"partner_id" binding:"required"`
}

type UpdateConversationRequest struct {
	Title  *string `json:"title" binding:"omitempty,max=100"`
	Avatar *string `json:"avatar" binding:"omitempty,max=500"`
}

type AddParticipantRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

type KickRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Ban    bool      `json:"ban"`
}

// LeaveRequest names the admin successor when the leaving admin is the last one
type LeaveRequest struct {
	SuccessorID *uuid.UUID `json:"successor_id"`
}

type DeleteConversationRequest struct {
	ForAll bool `json:"for_all"`
}

type PinOrderRequest struct {
	PinOrder int `json:"pin_order" binding:"min=0"`
}

type MuteRequest struct {
	Muted bool       `json:"muted"`
	Until *time.Time `json:"until"`
}

// ConversationResponse is a conversation with the viewer's unread count
type ConversationResponse struct {
	Conversation
	UnreadCount int `json:"unread_count"`
}

// ConversationStats summarizes a conversation within the caller's visible window
type ConversationStats struct {
	ConversationID   uuid.UUID `json:"conversation_id"`
	MessageCount     int64     `json:"message_count"`
	ParticipantCount int64     `json:"participant_count"`
	UnreadCount      int64     `json:"unread_count"`
}

// ========== Invite DTOs ==========

type CreateInviteRequest struct {
	UsageLimit *int `json:"usage_limit" binding:"omitempty,min=1"`
	TTLMinutes *int `json:"ttl_minutes" binding:"omitempty,min=1"`
}

type RedeemInviteRequest struct {
	Code string `json:"code" binding:"required"`
}

// ========== User DTOs ==========

type RegisterDeviceRequest struct {
	FCMToken   string `json:"fcm_token" binding:"required,max=500"`
	DeviceType string `json:"device_type" binding:"omitempty,oneof=ios android web"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
