package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"gorm.io/gorm"
)

// ParticipantRepository handles database operations for Participant
type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Create inserts a new participant row
func (r *ParticipantRepository) Create(p *model.Participant) error {
	return r.db.Create(p).Error
}

// Find returns the participant row for (conversation, user), if any
func (r *ParticipantRepository) Find(conversationID, userID uuid.UUID) (*model.Participant, error) {
	var p model.Participant
	err := r.db.
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByConversation returns every participant row, departed ones included
func (r *ParticipantRepository) ListByConversation(conversationID uuid.UUID) ([]model.Participant, error) {
	var rows []model.Participant
	err := r.db.
		Preload("User").
		Where("conversation_id = ?", conversationID).
		Find(&rows).Error
	return rows, err
}

// ListActive returns the currently active participants
func (r *ParticipantRepository) ListActive(conversationID uuid.UUID) ([]model.Participant, error) {
	var rows []model.Participant
	err := r.db.
		Preload("User").
		Where("conversation_id = ? AND status = ?", conversationID, model.StatusActive).
		Find(&rows).Error
	return rows, err
}

// ListForUser returns the user's participant rows ordered by conversation
// activity, pinned chats first
func (r *ParticipantRepository) ListForUser(userID uuid.UUID) ([]model.Participant, error) {
	var rows []model.Participant
	err := r.db.
		Joins("JOIN conversations ON conversations.id = participants.conversation_id").
		Where("participants.user_id = ?", userID).
		Order("participants.is_pinned DESC, participants.pin_order ASC, conversations.updated_at DESC").
		Find(&rows).Error
	return rows, err
}

// Update applies the given fields to a participant row
func (r *ParticipantRepository) Update(id uuid.UUID, fields map[string]interface{}) error {
	return r.db.Model(&model.Participant{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// CountActive counts the active participants of a conversation
func (r *ParticipantRepository) CountActive(conversationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Participant{}).
		Where("conversation_id = ? AND status = ?", conversationID, model.StatusActive).
		Count(&count).Error
	return count, err
}

// ResurfaceForOthers clears the list flags that would keep a new message out
// of sight: is_hidden and is_manually_unread for everyone but the sender, and
// is_archived for the unmuted ones.
func (r *ParticipantRepository) ResurfaceForOthers(conversationID, exceptUserID uuid.UUID) error {
	if err := r.db.Model(&model.Participant{}).
		Where("conversation_id = ? AND user_id <> ?", conversationID, exceptUserID).
		Updates(map[string]interface{}{
			"is_hidden":          false,
			"is_manually_unread": false,
		}).Error; err != nil {
		return err
	}
	return r.db.Model(&model.Participant{}).
		Where("conversation_id = ? AND user_id <> ?", conversationID, exceptUserID).
		Where("muted = false AND (muted_until IS NULL OR muted_until < ?)", time.Now().UTC()).
		Update("is_archived", false).Error
}
