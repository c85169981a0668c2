package service

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
)

// publishToActive fans an event out to every active participant. Fan-out is
// best-effort and runs only after the persistence write has committed.
func publishToActive(parts ParticipantStore, notifier Notifier, conversationID uuid.UUID, event string, payload func(p *model.Participant) interface{}) {
	active, err := parts.ListActive(conversationID)
	if err != nil {
		log.Printf("⚠️  Fan-out skipped for conversation %s: %v", conversationID, err)
		return
	}
	for i := range active {
		notifier.Publish(active[i].UserID, event, payload(&active[i]))
	}
}

// publishMessage broadcasts a message with each recipient's own read projection
func publishMessage(parts ParticipantStore, reads ReadStore, notifier Notifier, event string, msg *model.Message) {
	publishToActive(parts, notifier, msg.ConversationID, event, func(p *model.Participant) interface{} {
		isRead := p.UserID == msg.SenderID
		if !isRead {
			isRead, _ = reads.Exists(msg.ID, p.UserID)
		}
		return model.MessageEvent{Message: msg, IsRead: isRead}
	})
}

// postSystemMessage synthesizes a system message recording a lifecycle event
// and broadcasts it. Channels never emit system posts.
func postSystemMessage(convs ConversationStore, parts ParticipantStore, msgs MessageStore, reads ReadStore, notifier Notifier, conv *model.Conversation, actorID uuid.UUID, text string) {
	if conv.Kind == model.KindChannel {
		return
	}
	m := &model.Message{
		ConversationID: conv.ID,
		SenderID:       actorID,
		Content:        text,
		Type:           model.MessageTypeSystem,
		CreatedAt:      time.Now().UTC(),
	}
	if err := msgs.Create(m); err != nil {
		log.Printf("⚠️  Could not create system message: %v", err)
		return
	}
	_ = convs.SetUpdatedAt(conv.ID, m.CreatedAt)
	publishMessage(parts, reads, notifier, model.EventMessageReceived, m)
}

// clipReactions trims reaction rows to those inside the viewer's window, so a
// departed member never observes post-departure activity on messages they can
// still see.
func clipReactions(msg *model.Message, w Window) {
	if w.Until == nil || len(msg.Reactions) == 0 {
		return
	}
	kept := msg.Reactions[:0]
	for _, r := range msg.Reactions {
		if !r.CreatedAt.After(*w.Until) {
			kept = append(kept, r)
		}
	}
	msg.Reactions = kept
}
