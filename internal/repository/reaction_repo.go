package repository

import (
	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository handles database operations for Reaction and ReadStatus
type ReactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Find returns the user's reaction on a message, if any
func (r *ReactionRepository) Find(messageID, userID uuid.UUID) (*model.Reaction, error) {
	var reaction model.Reaction
	err := r.db.
		Where("message_id = ? AND user_id = ?", messageID, userID).
		First(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// Upsert inserts the reaction or replaces the user's previous emoji on the
// same message. The (message, user) unique index carries the one-per-user rule.
func (r *ReactionRepository) Upsert(reaction *model.Reaction) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"emoji", "created_at"}),
	}).Create(reaction).Error
}

// Delete removes the user's reaction on a message
func (r *ReactionRepository) Delete(messageID, userID uuid.UUID) error {
	return r.db.
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Delete(&model.Reaction{}).Error
}

// ListByMessage returns the full reaction set of a message
func (r *ReactionRepository) ListByMessage(messageID uuid.UUID) ([]model.Reaction, error) {
	var rows []model.Reaction
	err := r.db.
		Preload("User").
		Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ReadRepository handles database operations for ReadStatus
type ReadRepository struct {
	db *gorm.DB
}

func NewReadRepository(db *gorm.DB) *ReadRepository {
	return &ReadRepository{db: db}
}

// Exists reports whether the user has read the message
func (r *ReadRepository) Exists(messageID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.ReadStatus{}).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Count(&count).Error
	return count > 0, err
}

// BulkCreate inserts read statuses, silently skipping rows that already exist
func (r *ReadRepository) BulkCreate(rows []model.ReadStatus) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&rows).Error
}
