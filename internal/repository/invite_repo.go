package repository

import (
	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"gorm.io/gorm"
)

// InviteRepository handles database operations for InviteLink
type InviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create inserts a new invite link
func (r *InviteRepository) Create(link *model.InviteLink) error {
	return r.db.Create(link).Error
}

// FindByCode finds an invite link by its code
func (r *InviteRepository) FindByCode(code string) (*model.InviteLink, error) {
	var link model.InviteLink
	err := r.db.Where("code = ?", code).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// ListByConversation returns a conversation's invite links
func (r *InviteRepository) ListByConversation(conversationID uuid.UUID) ([]model.InviteLink, error) {
	var links []model.InviteLink
	err := r.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Find(&links).Error
	return links, err
}

// IncrementUsed atomically bumps used_count
func (r *InviteRepository) IncrementUsed(id uuid.UUID) error {
	return r.db.Model(&model.InviteLink{}).
		Where("id = ?", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error
}

// Delete removes an invite link
func (r *InviteRepository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&model.InviteLink{}).Error
}
