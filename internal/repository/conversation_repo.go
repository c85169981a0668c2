package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"gorm.io/gorm"
)

// ConversationRepository handles database operations for Conversation
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create creates a new conversation
func (r *ConversationRepository) Create(conv *model.Conversation) error {
	return r.db.Create(conv).Error
}

// FindByID finds a conversation by ID with participants
func (r *ConversationRepository) FindByID(id uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.
		Preload("Participants.User").
		Where("id = ?", id).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindBySlug finds a channel by its public slug
func (r *ConversationRepository) FindBySlug(slug string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.
		Preload("Participants.User").
		Where("slug = ?", slug).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindDirectByPair finds the direct conversation of the unordered user pair.
// A self pair matches the single-row favorites conversation.
func (r *ConversationRepository) FindDirectByPair(a, b uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	if a == b {
		err := r.db.
			Table("conversations").
			Joins("JOIN participants p ON p.conversation_id = conversations.id").
			Where("conversations.kind = ?", model.KindDirect).
			Where("p.user_id = ?", a).
			Where("(SELECT COUNT(*) FROM participants p2 WHERE p2.conversation_id = conversations.id) = 1").
			Preload("Participants.User").
			First(&conv).Error
		if err != nil {
			return nil, err
		}
		return &conv, nil
	}
	err := r.db.
		Table("conversations").
		Joins("JOIN participants p1 ON p1.conversation_id = conversations.id").
		Joins("JOIN participants p2 ON p2.conversation_id = conversations.id").
		Where("conversations.kind = ?", model.KindDirect).
		Where("p1.user_id = ?", a).
		Where("p2.user_id = ?", b).
		Preload("Participants.User").
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// Update applies the given fields to a conversation
func (r *ConversationRepository) Update(id uuid.UUID, fields map[string]interface{}) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// SetUpdatedAt pins updated_at to an explicit instant. Sends set it to the
// message time; deletes recompute it from the newest remaining message.
func (r *ConversationRepository) SetUpdatedAt(id uuid.UUID, t time.Time) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", t).Error
}

// Delete hard-removes the conversation and every dependent row in one
// transaction
func (r *ConversationRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		msgIDs := tx.Model(&model.Message{}).Select("id").Where("conversation_id = ?", id)
		if err := tx.Where("message_id IN (?)", msgIDs).Delete(&model.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id IN (?)", msgIDs).Delete(&model.ReadStatus{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id IN (?)", msgIDs).Delete(&model.MessageDeletion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&model.InviteLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&model.Participant{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Conversation{}).Error
	})
}
