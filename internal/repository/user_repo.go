package repository

import (
	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"gorm.io/gorm"
)

// UserRepository handles database operations for User, Block and Device
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// BlockExists reports whether either user has blocked the other
func (r *UserRepository) BlockExists(a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// CreateBlock records a block; re-blocking is a no-op
func (r *UserRepository) CreateBlock(blockerID, blockedID uuid.UUID) error {
	block := model.Block{BlockerID: blockerID, BlockedID: blockedID}
	return r.db.Where(model.Block{BlockerID: blockerID, BlockedID: blockedID}).
		FirstOrCreate(&block).Error
}

// DeleteBlock removes a block
func (r *UserRepository) DeleteBlock(blockerID, blockedID uuid.UUID) error {
	return r.db.
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&model.Block{}).Error
}

// GetUserDevices returns the user's registered push devices
func (r *UserRepository) GetUserDevices(userID uuid.UUID) ([]model.Device, error) {
	var devices []model.Device
	err := r.db.Where("user_id = ?", userID).Find(&devices).Error
	return devices, err
}

// RegisterDevice stores an FCM token, replacing a stale row with the same token
func (r *UserRepository) RegisterDevice(device *model.Device) error {
	return r.db.
		Where("fcm_token = ?", device.FCMToken).
		Assign(map[string]interface{}{"user_id": device.UserID, "device_type": device.DeviceType}).
		FirstOrCreate(device).Error
}
