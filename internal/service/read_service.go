package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/pkg/apperr"
)

// ReadService tracks idempotent read receipts, the manual unread override and
// channel view counts.
type ReadService struct {
	convs    ConversationStore
	parts    ParticipantStore
	msgs     MessageStore
	reads    ReadStore
	notifier Notifier
}

func NewReadService(
	convs ConversationStore,
	parts ParticipantStore,
	msgs MessageStore,
	reads ReadStore,
	notifier Notifier,
) *ReadService {
	return &ReadService{
		convs:    convs,
		parts:    parts,
		msgs:     msgs,
		reads:    reads,
		notifier: notifier,
	}
}

// MarkRead inserts read receipts for every visible unread message not sent by
// the caller and clears the manual unread flag. Calling it twice produces the
// same state and never errors. Only direct chats notify the other side; group
// and channel reads stay quiet to avoid O(n) fan-out noise.
func (s *ReadService) MarkRead(userID, convID uuid.UUID) error {
	conv, err := s.convs.FindByID(convID)
	if err != nil {
		return apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(convID, userID)
	if p == nil {
		return apperr.Forbidden("not a participant of this conversation")
	}

	w := VisibleWindow(p)
	ids, err := s.msgs.ListUnreadIDs(convID, userID, w)
	if err != nil {
		return apperr.Internal("failed to find unread messages", err)
	}
	if len(ids) > 0 {
		now := time.Now().UTC()
		rows := make([]model.ReadStatus, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, model.ReadStatus{MessageID: id, UserID: userID, ReadAt: now})
		}
		if err := s.reads.BulkCreate(rows); err != nil {
			return apperr.Internal("failed to save read statuses", err)
		}
	}
	if p.IsManuallyUnread {
		if err := s.parts.Update(p.ID, map[string]interface{}{"is_manually_unread": false}); err != nil {
			return apperr.Internal("failed to clear unread flag", err)
		}
	}

	if conv.Kind == model.KindDirect && len(ids) > 0 {
		all, _ := s.parts.ListByConversation(convID)
		for _, row := range all {
			if row.UserID != userID {
				s.notifier.Publish(row.UserID, model.EventMessagesRead, model.MessagesReadEvent{
					ConversationID: convID,
					ReaderID:       userID,
				})
			}
		}
	}
	return nil
}

// MarkUnread sets the manual unread override unconditionally. It is
// independent of actual read state and wins over the computed count.
func (s *ReadService) MarkUnread(userID, convID uuid.UUID) error {
	if _, err := s.convs.FindByID(convID); err != nil {
		return apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(convID, userID)
	if p == nil {
		return apperr.Forbidden("not a participant of this conversation")
	}
	if err := s.parts.Update(p.ID, map[string]interface{}{"is_manually_unread": true}); err != nil {
		return apperr.Internal("failed to mark unread", err)
	}
	return nil
}

// IncrementViews bumps view counters for channel posts. Messages of direct
// and group conversations are left untouched.
func (s *ReadService) IncrementViews(userID uuid.UUID, messageIDs []uuid.UUID) error {
	if len(messageIDs) == 0 {
		return nil
	}
	first, err := s.msgs.FindByID(messageIDs[0])
	if err != nil {
		return apperr.NotFound("message not found")
	}
	p, _ := s.parts.Find(first.ConversationID, userID)
	if p == nil {
		return apperr.Forbidden("not a participant of this conversation")
	}
	if err := s.msgs.IncrementViews(messageIDs); err != nil {
		return apperr.Internal("failed to increment views", err)
	}
	return nil
}
