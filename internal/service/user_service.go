package service

import (
	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/pkg/apperr"
)

// UserService owns the user-level state the engine maintains itself: direct
// message blocks and push device registration.
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Block stops direct messages between the caller and the target, in both
// directions. Blocking twice is a no-op.
func (s *UserService) Block(blockerID, targetID uuid.UUID) error {
	if blockerID == targetID {
		return apperr.BadRequest("cannot block yourself")
	}
	if _, err := s.users.FindByID(targetID); err != nil {
		return apperr.NotFound("user not found")
	}
	if err := s.users.CreateBlock(blockerID, targetID); err != nil {
		return apperr.Internal("failed to block user", err)
	}
	return nil
}

// Unblock lifts the caller's own block. The target's block, if any, stays.
func (s *UserService) Unblock(blockerID, targetID uuid.UUID) error {
	if _, err := s.users.FindByID(targetID); err != nil {
		return apperr.NotFound("user not found")
	}
	if err := s.users.DeleteBlock(blockerID, targetID); err != nil {
		return apperr.Internal("failed to unblock user", err)
	}
	return nil
}

// RegisterDevice stores the caller's FCM token for the push dispatcher. A
// token re-registered from another account moves to the caller.
func (s *UserService) RegisterDevice(userID uuid.UUID, req model.RegisterDeviceRequest) error {
	device := &model.Device{
		UserID:     userID,
		FCMToken:   req.FCMToken,
		DeviceType: req.DeviceType,
	}
	if err := s.users.RegisterDevice(device); err != nil {
		return apperr.Internal("failed to register device", err)
	}
	return nil
}
