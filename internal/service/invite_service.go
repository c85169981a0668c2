package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/pkg/apperr"
)

// InviteService issues and redeems time- and use-limited join tokens for
// groups and channels. Expiry and usage are checked at redemption time; there
// is no proactive sweep.
type InviteService struct {
	convs    ConversationStore
	parts    ParticipantStore
	msgs     MessageStore
	reads    ReadStore
	users    UserStore
	invites  InviteStore
	notifier Notifier
}

func NewInviteService(
	convs ConversationStore,
	parts ParticipantStore,
	msgs MessageStore,
	reads ReadStore,
	users UserStore,
	invites InviteStore,
	notifier Notifier,
) *InviteService {
	return &InviteService{
		convs:    convs,
		parts:    parts,
		msgs:     msgs,
		reads:    reads,
		users:    users,
		invites:  invites,
		notifier: notifier,
	}
}

// Create issues a new invite link. Only an admin of a group or channel may
// create one.
func (s *InviteService) Create(creatorID, convID uuid.UUID, req model.CreateInviteRequest) (*model.InviteLink, error) {
	conv, err := s.convs.FindByID(convID)
	if err != nil {
		return nil, apperr.NotFound("conversation not found")
	}
	if !conv.IsGroup() {
		return nil, apperr.BadRequest("direct conversations have no invite links")
	}
	p, _ := s.parts.Find(convID, creatorID)
	if err := Can(conv, p, ActionCreateInvite); err != nil {
		return nil, err
	}

	code, err := generateInviteCode()
	if err != nil {
		return nil, apperr.Internal("failed to generate invite code", err)
	}
	link := &model.InviteLink{
		Code:           code,
		ConversationID: convID,
		CreatorID:      creatorID,
		UsageLimit:     req.UsageLimit,
		CreatedAt:      time.Now().UTC(),
	}
	if req.TTLMinutes != nil {
		expires := time.Now().UTC().Add(time.Duration(*req.TTLMinutes) * time.Minute)
		link.ExpiresAt = &expires
	}
	if err := s.invites.Create(link); err != nil {
		return nil, apperr.Internal("failed to save invite link", err)
	}
	return link, nil
}

// Redeem joins the caller via an invite code. Redemption fails for unknown,
// expired or exhausted links and for banned users; it is an idempotent no-op
// when the caller is already an active participant.
func (s *InviteService) Redeem(userID uuid.UUID, code string) (*model.Conversation, error) {
	link, err := s.invites.FindByCode(code)
	if err != nil {
		return nil, apperr.NotFound("invite link not found")
	}
	now := time.Now().UTC()
	if link.Expired(now) {
		return nil, apperr.BadRequest("invite link has expired")
	}
	if link.Exhausted() {
		return nil, apperr.BadRequest("invite link usage limit exhausted")
	}
	conv, err := s.convs.FindByID(link.ConversationID)
	if err != nil {
		return nil, apperr.NotFound("conversation not found")
	}

	existing, _ := s.parts.Find(conv.ID, userID)
	if existing != nil {
		if existing.Banned {
			return nil, apperr.Forbidden("banned from this conversation")
		}
		if existing.IsActive() {
			return conv, nil
		}
		if err := s.parts.Update(existing.ID, map[string]interface{}{
			"status":    model.StatusActive,
			"kicked_at": nil,
			"is_hidden": false,
			"role":      model.RoleMember,
		}); err != nil {
			return nil, apperr.Internal("failed to rejoin conversation", err)
		}
	} else {
		if err := s.parts.Create(&model.Participant{
			ConversationID: conv.ID,
			UserID:         userID,
			Role:           model.RoleMember,
			Status:         model.StatusActive,
			JoinedAt:       now,
		}); err != nil {
			return nil, apperr.Internal("failed to join conversation", err)
		}
	}
	if err := s.invites.IncrementUsed(link.ID); err != nil {
		return nil, apperr.Internal("failed to update invite usage", err)
	}

	if joined, _ := s.users.FindByID(userID); joined != nil {
		text := fmt.Sprintf("%s присоединился(ась) к беседе", joined.Name)
		postSystemMessage(s.convs, s.parts, s.msgs, s.reads, s.notifier, conv, userID, text)
	}
	return conv, nil
}

// Revoke deletes an invite link. Admin only.
func (s *InviteService) Revoke(actorID uuid.UUID, code string) error {
	link, err := s.invites.FindByCode(code)
	if err != nil {
		return apperr.NotFound("invite link not found")
	}
	conv, err := s.convs.FindByID(link.ConversationID)
	if err != nil {
		return apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(conv.ID, actorID)
	if err := Can(conv, p, ActionCreateInvite); err != nil {
		return err
	}
	if err := s.invites.Delete(link.ID); err != nil {
		return apperr.Internal("failed to revoke invite link", err)
	}
	return nil
}

// List returns a conversation's invite links. Admin only.
func (s *InviteService) List(actorID, convID uuid.UUID) ([]model.InviteLink, error) {
	conv, err := s.convs.FindByID(convID)
	if err != nil {
		return nil, apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(convID, actorID)
	if err := Can(conv, p, ActionCreateInvite); err != nil {
		return nil, err
	}
	return s.invites.ListByConversation(convID)
}

// generateInviteCode returns an unguessable 32-character token
func generateInviteCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
