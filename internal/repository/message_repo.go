package repository

import (
	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/internal/service"
	"gorm.io/gorm"
)

// MessageRepository handles database operations for Message, the per-viewer
// tombstones and channel view counts. Every listing and count applies the
// viewer's visibility window so all read paths share identical rules.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message
func (r *MessageRepository) Create(msg *model.Message) error {
	return r.db.Create(msg).Error
}

// FindByID finds a message by ID with sender and reactions
func (r *MessageRepository) FindByID(id uuid.UUID) (*model.Message, error) {
	var msg model.Message
	err := r.db.
		Preload("Sender").
		Preload("Reactions").
		Preload("Reactions.User").
		Where("id = ?", id).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Update applies the given fields to a message
func (r *MessageRepository) Update(id uuid.UUID, fields map[string]interface{}) error {
	return r.db.Model(&model.Message{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete hard-removes a message with its reactions, read statuses and
// tombstones
func (r *MessageRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&model.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", id).Delete(&model.ReadStatus{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", id).Delete(&model.MessageDeletion{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Message{}).Error
	})
}

// windowed scopes a query to the viewer's visible message set
func (r *MessageRepository) windowed(conversationID, viewerID uuid.UUID, w service.Window) *gorm.DB {
	q := r.db.Model(&model.Message{}).
		Where("conversation_id = ?", conversationID).
		Where("created_at > ?", w.After).
		Where("id NOT IN (SELECT message_id FROM message_deletions WHERE user_id = ?)", viewerID)
	if w.Until != nil {
		q = q.Where("created_at <= ?", *w.Until)
	}
	return q
}

// ListWindow returns a page of visible messages, newest first, ordered by
// (created_at, id)
func (r *MessageRepository) ListWindow(conversationID, viewerID uuid.UUID, w service.Window, beforeID *uuid.UUID, limit int) ([]model.Message, error) {
	messages := []model.Message{}
	query := r.windowed(conversationID, viewerID, w).
		Preload("Sender").
		Preload("Reactions").
		Preload("Reactions.User").
		Order("created_at DESC, id DESC").
		Limit(limit)

	// Cursor-based pagination: messages strictly before the cursor message
	if beforeID != nil {
		var cursor model.Message
		if err := r.db.Select("created_at", "id").Where("id = ?", beforeID).First(&cursor).Error; err != nil {
			return nil, err
		}
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	err := query.Find(&messages).Error
	return messages, err
}

// CountWindow counts the viewer's visible messages
func (r *MessageRepository) CountWindow(conversationID, viewerID uuid.UUID, w service.Window) (int64, error) {
	var count int64
	err := r.windowed(conversationID, viewerID, w).Count(&count).Error
	return count, err
}

// unread scopes a windowed query to countable unread messages: sent by someone
// else, not a system post, and without a read receipt from the viewer
func (r *MessageRepository) unread(conversationID, viewerID uuid.UUID, w service.Window) *gorm.DB {
	return r.windowed(conversationID, viewerID, w).
		Where("sender_id <> ?", viewerID).
		Where("type <> ?", model.MessageTypeSystem).
		Where("id NOT IN (SELECT message_id FROM read_statuses WHERE user_id = ?)", viewerID)
}

// CountUnread counts the viewer's unread messages
func (r *MessageRepository) CountUnread(conversationID, viewerID uuid.UUID, w service.Window) (int64, error) {
	var count int64
	err := r.unread(conversationID, viewerID, w).Count(&count).Error
	return count, err
}

// ListUnreadIDs returns the ids CountUnread would count
func (r *MessageRepository) ListUnreadIDs(conversationID, viewerID uuid.UUID, w service.Window) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.unread(conversationID, viewerID, w).Pluck("id", &ids).Error
	return ids, err
}

// Last returns the newest message of a conversation regardless of viewer
func (r *MessageRepository) Last(conversationID uuid.UUID) (*model.Message, error) {
	var msg model.Message
	err := r.db.
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// LastVisible returns the newest message inside the viewer's window, or nil
func (r *MessageRepository) LastVisible(conversationID, viewerID uuid.UUID, w service.Window) (*model.Message, error) {
	var msg model.Message
	err := r.windowed(conversationID, viewerID, w).
		Preload("Sender").
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// IncrementViews bumps views_count for the given ids; the subquery keeps the
// update channel-only
func (r *MessageRepository) IncrementViews(ids []uuid.UUID) error {
	return r.db.Model(&model.Message{}).
		Where("id IN ?", ids).
		Where("conversation_id IN (SELECT id FROM conversations WHERE kind = ?)", model.KindChannel).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

// MarkDeletedFor records a per-viewer tombstone; re-deleting is a no-op
func (r *MessageRepository) MarkDeletedFor(messageID, userID uuid.UUID) error {
	deletion := model.MessageDeletion{MessageID: messageID, UserID: userID}
	return r.db.Where(model.MessageDeletion{MessageID: messageID, UserID: userID}).
		FirstOrCreate(&deletion).Error
}

// IsDeletedFor reports whether the viewer has deleted the message for themselves
func (r *MessageRepository) IsDeletedFor(messageID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.MessageDeletion{}).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Count(&count).Error
	return count > 0, err
}
