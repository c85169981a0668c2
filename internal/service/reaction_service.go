package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/pkg/apperr"
)

// ReactionService keeps the idempotent per-(message,user) reaction state:
// at most one reaction per user per message, toggled rather than appended.
type ReactionService struct {
	convs     ConversationStore
	parts     ParticipantStore
	msgs      MessageStore
	reactions ReactionStore
	reads     ReadStore
	notifier  Notifier
}

func NewReactionService(
	convs ConversationStore,
	parts ParticipantStore,
	msgs MessageStore,
	reactions ReactionStore,
	reads ReadStore,
	notifier Notifier,
) *ReactionService {
	return &ReactionService{
		convs:     convs,
		parts:     parts,
		msgs:      msgs,
		reactions: reactions,
		reads:     reads,
		notifier:  notifier,
	}
}

// Toggle adds, replaces or removes the caller's reaction on a message. The
// same emoji toggles off; a different emoji replaces the previous one. After
// the change the authoritative reaction set is rebroadcast to every active
// participant with their own read projection.
func (s *ReactionService) Toggle(userID, msgID uuid.UUID, emoji string) ([]model.Reaction, error) {
	msg, err := s.msgs.FindByID(msgID)
	if err != nil {
		return nil, apperr.NotFound("message not found")
	}
	conv, err := s.convs.FindByID(msg.ConversationID)
	if err != nil {
		return nil, apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(conv.ID, userID)
	if err := Can(conv, p, ActionReact); err != nil {
		return nil, err
	}
	if !VisibleWindow(p).Contains(msg.CreatedAt) {
		return nil, apperr.NotFound("message not found")
	}
	if deleted, _ := s.msgs.IsDeletedFor(msgID, userID); deleted {
		return nil, apperr.NotFound("message not found")
	}

	existing, _ := s.reactions.Find(msgID, userID)
	added := false
	switch {
	case existing != nil && existing.Emoji == emoji:
		if err := s.reactions.Delete(msgID, userID); err != nil {
			return nil, apperr.Internal("failed to remove reaction", err)
		}
	default:
		if err := s.reactions.Upsert(&model.Reaction{
			MessageID: msgID,
			UserID:    userID,
			Emoji:     emoji,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return nil, apperr.Internal("failed to save reaction", err)
		}
		added = true
	}

	if added && msg.SenderID != userID {
		s.notifier.Publish(msg.SenderID, model.EventUnreadReaction, model.UnreadReactionEvent{
			ConversationID: conv.ID,
		})
	}

	// Re-read post-commit state; client-optimistic merges are never trusted
	full, err := s.msgs.FindByID(msgID)
	if err != nil {
		return nil, apperr.Internal("failed to reload message", err)
	}
	set, err := s.reactions.ListByMessage(msgID)
	if err != nil {
		return nil, apperr.Internal("failed to load reactions", err)
	}
	full.Reactions = set
	publishMessage(s.parts, s.reads, s.notifier, model.EventMessageUpdated, full)
	return set, nil
}
