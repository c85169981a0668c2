package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/pkg/apperr"
)

// MessageService owns the message lifecycle: send, edit, delete (for me or
// for everyone), pin/unpin and forwarding, together with the system-message
// side effects and the post-commit fan-out.
type MessageService struct {
	convs      ConversationStore
	parts      ParticipantStore
	msgs       MessageStore
	reads      ReadStore
	users      UserStore
	notifier   Notifier
	dispatcher Dispatcher
}

func NewMessageService(
	convs ConversationStore,
	parts ParticipantStore,
	msgs MessageStore,
	reads ReadStore,
	users UserStore,
	notifier Notifier,
	dispatcher Dispatcher,
) *MessageService {
	return &MessageService{
		convs:      convs,
		parts:      parts,
		msgs:       msgs,
		reads:      reads,
		users:      users,
		notifier:   notifier,
		dispatcher: dispatcher,
	}
}

// Send posts a new message to a conversation
func (s *MessageService) Send(senderID, convID uuid.UUID, req model.SendMessageRequest) (*model.Message, error) {
	conv, err := s.convs.FindByID(convID)
	if err != nil {
		return nil, apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(convID, senderID)
	if err := Can(conv, p, ActionPost); err != nil {
		return nil, err
	}
	if conv.Kind == model.KindDirect {
		if err := s.checkDirectBlock(conv, senderID); err != nil {
			return nil, err
		}
	}

	msg := &model.Message{
		ConversationID: convID,
		SenderID:       senderID,
		Content:        req.Content,
		Images:         req.Images,
		Type:           model.MessageTypeRegular,
		ReplyToID:      req.ReplyToID,
		IsAnonymous:    conv.Kind == model.KindChannel,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.msgs.Create(msg); err != nil {
		return nil, apperr.Internal("failed to send message", err)
	}

	s.afterPost(conv, msg)

	full, err := s.msgs.FindByID(msg.ID)
	if err != nil {
		full = msg
	}
	publishMessage(s.parts, s.reads, s.notifier, model.EventMessageReceived, full)
	s.dispatchNotifications(conv, full)
	return full, nil
}

// Edit changes the content of a message. Only the original sender may edit;
// the edit never changes created_at or ordering.
func (s *MessageService) Edit(userID, msgID uuid.UUID, req model.EditMessageRequest) (*model.Message, error) {
	msg, err := s.msgs.FindByID(msgID)
	if err != nil {
		return nil, apperr.NotFound("message not found")
	}
	if msg.SenderID != userID {
		return nil, apperr.Forbidden("only the original sender may edit a message")
	}
	if msg.Type == model.MessageTypeSystem {
		return nil, apperr.Forbidden("system messages cannot be edited")
	}
	conv, err := s.convs.FindByID(msg.ConversationID)
	if err != nil {
		return nil, apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(conv.ID, userID)
	if err := Can(conv, p, ActionEditOwnMessage); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.msgs.Update(msgID, map[string]interface{}{
		"content":   req.Content,
		"edited_at": now,
	}); err != nil {
		return nil, apperr.Internal("failed to edit message", err)
	}

	full, err := s.msgs.FindByID(msgID)
	if err != nil {
		return nil, apperr.Internal("failed to reload message", err)
	}
	publishMessage(s.parts, s.reads, s.notifier, model.EventMessageUpdated, full)
	return full, nil
}

// DeleteForMe marks a per-viewer tombstone. Nothing changes for anyone else.
func (s *MessageService) DeleteForMe(userID, msgID uuid.UUID) error {
	msg, err := s.msgs.FindByID(msgID)
	if err != nil {
		return apperr.NotFound("message not found")
	}
	p, _ := s.parts.Find(msg.ConversationID, userID)
	if p == nil {
		return apperr.Forbidden("not a participant of this conversation")
	}
	if !VisibleWindow(p).Contains(msg.CreatedAt) {
		return apperr.NotFound("message not found")
	}
	if err := s.msgs.MarkDeletedFor(msgID, userID); err != nil {
		return apperr.Internal("failed to delete message", err)
	}
	return nil
}

// DeleteForAll hard-removes a message for every participant. Allowed for the
// sender, or for an admin of a group/channel. The conversation's updated_at
// is recomputed from the most recent remaining message, not set to now.
func (s *MessageService) DeleteForAll(userID, msgID uuid.UUID) error {
	msg, err := s.msgs.FindByID(msgID)
	if err != nil {
		return apperr.NotFound("message not found")
	}
	conv, err := s.convs.FindByID(msg.ConversationID)
	if err != nil {
		return apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(conv.ID, userID)
	action := ActionDeleteAnyMessage
	if msg.SenderID == userID {
		action = ActionDeleteOwnMessage
	}
	if err := Can(conv, p, action); err != nil {
		return err
	}

	if err := s.msgs.Delete(msgID); err != nil {
		return apperr.Internal("failed to delete message", err)
	}

	last, _ := s.msgs.Last(conv.ID)
	touched := conv.CreatedAt
	if last != nil {
		touched = last.CreatedAt
	}
	_ = s.convs.SetUpdatedAt(conv.ID, touched)

	deleted := model.MessageDeletedEvent{MessageID: msgID, ConversationID: conv.ID}
	publishToActive(s.parts, s.notifier, conv.ID, model.EventMessageDeleted, func(*model.Participant) interface{} {
		return deleted
	})
	return nil
}

// TogglePin flips a message's pin state. Either side of a direct chat may
// pin; groups and channels require an admin. Groups and direct chats record
// the action as a system message; channels never do.
func (s *MessageService) TogglePin(userID, msgID uuid.UUID) (*model.Message, error) {
	msg, err := s.msgs.FindByID(msgID)
	if err != nil {
		return nil, apperr.NotFound("message not found")
	}
	conv, err := s.convs.FindByID(msg.ConversationID)
	if err != nil {
		return nil, apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(conv.ID, userID)
	if err := Can(conv, p, ActionPin); err != nil {
		return nil, err
	}

	pinned := !msg.IsPinned
	if err := s.msgs.Update(msgID, map[string]interface{}{"is_pinned": pinned}); err != nil {
		return nil, apperr.Internal("failed to toggle pin", err)
	}
	_ = s.convs.SetUpdatedAt(conv.ID, time.Now().UTC())

	full, err := s.msgs.FindByID(msgID)
	if err != nil {
		return nil, apperr.Internal("failed to reload message", err)
	}
	publishMessage(s.parts, s.reads, s.notifier, model.EventMessageUpdated, full)

	if conv.Kind != model.KindChannel {
		verb := "закрепил(а)"
		if !pinned {
			verb = "открепил(а)"
		}
		actor, _ := s.users.FindByID(userID)
		name := "Участник"
		if actor != nil {
			name = actor.Name
		}
		text := fmt.Sprintf("%s %s сообщение: «%s»", name, verb, messageSnippet(full))
		postSystemMessage(s.convs, s.parts, s.msgs, s.reads, s.notifier, conv, userID, text)
	}
	return full, nil
}

// Forward copies a message into each target conversation as a new message,
// keeping the chain's original author. Targets where the requester cannot
// post are skipped individually instead of failing the batch.
func (s *MessageService) Forward(userID, msgID uuid.UUID, targetConvIDs []uuid.UUID) ([]model.Message, error) {
	orig, err := s.msgs.FindByID(msgID)
	if err != nil {
		return nil, apperr.NotFound("message not found")
	}
	src, _ := s.parts.Find(orig.ConversationID, userID)
	if src == nil {
		return nil, apperr.Forbidden("not a participant of the source conversation")
	}
	if !VisibleWindow(src).Contains(orig.CreatedAt) {
		return nil, apperr.NotFound("message not found")
	}

	originAuthor := orig.SenderID
	if orig.ForwardedFromID != nil {
		originAuthor = *orig.ForwardedFromID
	}

	created := make([]model.Message, 0, len(targetConvIDs))
	for _, convID := range targetConvIDs {
		conv, err := s.convs.FindByID(convID)
		if err != nil {
			continue
		}
		p, _ := s.parts.Find(convID, userID)
		if Can(conv, p, ActionPost) != nil {
			continue
		}
		if conv.Kind == model.KindDirect && s.checkDirectBlock(conv, userID) != nil {
			continue
		}

		msg := &model.Message{
			ConversationID:  convID,
			SenderID:        userID,
			Content:         orig.Content,
			Images:          orig.Images,
			Type:            model.MessageTypeRegular,
			ForwardedFromID: &originAuthor,
			IsAnonymous:     conv.Kind == model.KindChannel,
			CreatedAt:       time.Now().UTC(),
		}
		if err := s.msgs.Create(msg); err != nil {
			log.Printf("⚠️  Forward to conversation %s failed: %v", convID, err)
			continue
		}
		s.afterPost(conv, msg)

		full, err := s.msgs.FindByID(msg.ID)
		if err != nil {
			full = msg
		}
		publishMessage(s.parts, s.reads, s.notifier, model.EventMessageReceived, full)
		s.dispatchNotifications(conv, full)
		created = append(created, *full)
	}
	return created, nil
}

// List returns the viewer's page of messages, newest first, filtered to the
// viewer's visibility window and their per-message tombstones.
func (s *MessageService) List(userID, convID uuid.UUID, beforeID *uuid.UUID, limit int) ([]model.MessageResponse, error) {
	p, _ := s.parts.Find(convID, userID)
	if p == nil {
		return nil, apperr.Forbidden("not a participant of this conversation")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	w := VisibleWindow(p)
	msgs, err := s.msgs.ListWindow(convID, userID, w, beforeID, limit)
	if err != nil {
		return nil, apperr.Internal("failed to list messages", err)
	}

	out := make([]model.MessageResponse, 0, len(msgs))
	for i := range msgs {
		clipReactions(&msgs[i], w)
		isRead := msgs[i].SenderID == userID
		if !isRead {
			isRead, _ = s.reads.Exists(msgs[i].ID, userID)
		}
		out = append(out, model.MessageResponse{Message: msgs[i], IsRead: isRead})
	}
	return out, nil
}

// Get fetches a single message by id, applying the same window rules as
// listing: a kicked viewer never sees a post-departure message even by id.
func (s *MessageService) Get(userID, msgID uuid.UUID) (*model.MessageResponse, error) {
	msg, err := s.msgs.FindByID(msgID)
	if err != nil {
		return nil, apperr.NotFound("message not found")
	}
	p, _ := s.parts.Find(msg.ConversationID, userID)
	if p == nil {
		return nil, apperr.Forbidden("not a participant of this conversation")
	}
	w := VisibleWindow(p)
	if !w.Contains(msg.CreatedAt) {
		return nil, apperr.NotFound("message not found")
	}
	if deleted, _ := s.msgs.IsDeletedFor(msgID, userID); deleted {
		return nil, apperr.NotFound("message not found")
	}
	clipReactions(msg, w)
	isRead := msg.SenderID == userID
	if !isRead {
		isRead, _ = s.reads.Exists(msgID, userID)
	}
	return &model.MessageResponse{Message: *msg, IsRead: isRead}, nil
}

// afterPost applies the shared commit-side effects of a new message: bump the
// conversation's updated_at to the message time and resurface the chat for
// everyone else (unless this is the sender's own favorites chat).
func (s *MessageService) afterPost(conv *model.Conversation, msg *model.Message) {
	_ = s.convs.SetUpdatedAt(conv.ID, msg.CreatedAt)
	if !s.isSelfChat(conv) {
		_ = s.parts.ResurfaceForOthers(conv.ID, msg.SenderID)
	}
}

// isSelfChat reports whether conv is a user's single-row favorites chat
func (s *MessageService) isSelfChat(conv *model.Conversation) bool {
	if conv.Kind != model.KindDirect {
		return false
	}
	rows, err := s.parts.ListByConversation(conv.ID)
	return err == nil && len(rows) <= 1
}

// checkDirectBlock forbids a direct send when either side blocks the other
func (s *MessageService) checkDirectBlock(conv *model.Conversation, senderID uuid.UUID) error {
	rows, err := s.parts.ListByConversation(conv.ID)
	if err != nil {
		return apperr.Internal("failed to load participants", err)
	}
	for _, row := range rows {
		if row.UserID == senderID {
			continue
		}
		blocked, err := s.users.BlockExists(senderID, row.UserID)
		if err != nil {
			return apperr.Internal("failed to check block", err)
		}
		if blocked {
			return apperr.Forbidden("messaging is blocked between these users")
		}
	}
	return nil
}

// dispatchNotifications hands the message to the offline dispatcher for every
// active, unmuted recipient. Dispatch never blocks the send path.
func (s *MessageService) dispatchNotifications(conv *model.Conversation, msg *model.Message) {
	active, err := s.parts.ListActive(conv.ID)
	if err != nil {
		return
	}
	now := time.Now().UTC()
	text := msg.Content
	if text == "" && len(msg.Images) > 0 {
		text = "фото"
	}
	for _, p := range active {
		if p.UserID == msg.SenderID || p.IsMutedAt(now) {
			continue
		}
		recipientID := p.UserID
		go func() {
			if err := s.dispatcher.Create(context.Background(), recipientID, "new_message", text, msg.SenderID, &conv.ID); err != nil {
				log.Printf("⚠️  Notification dispatch failed for %s: %v", recipientID, err)
			}
		}()
	}
}

// messageSnippet returns the first ~20 characters of a message's text, or a
// generic photo label when it has no text.
func messageSnippet(m *model.Message) string {
	if m.Content == "" {
		return "фото"
	}
	runes := []rune(m.Content)
	if len(runes) <= 20 {
		return m.Content
	}
	return string(runes[:20]) + "…"
}
