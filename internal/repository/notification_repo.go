package repository

import (
	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"gorm.io/gorm"
)

// NotificationRepository handles database operations for Notification
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification row
func (r *NotificationRepository) Create(n *model.Notification) error {
	return r.db.Create(n).Error
}

// ListForUser returns the user's notifications, newest first
func (r *NotificationRepository) ListForUser(userID uuid.UUID, limit int) ([]model.Notification, error) {
	var rows []model.Notification
	err := r.db.
		Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
