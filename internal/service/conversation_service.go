package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/pkg/apperr"
)

// ConversationService owns conversation creation, membership changes and the
// admin-succession rules that keep every active group/channel administered.
type ConversationService struct {
	convs    ConversationStore
	parts    ParticipantStore
	msgs     MessageStore
	reads    ReadStore
	users    UserStore
	notifier Notifier
}

func NewConversationService(
	convs ConversationStore,
	parts ParticipantStore,
	msgs MessageStore,
	reads ReadStore,
	users UserStore,
	notifier Notifier,
) *ConversationService {
	return &ConversationService{
		convs:    convs,
		parts:    parts,
		msgs:     msgs,
		reads:    reads,
		users:    users,
		notifier: notifier,
	}
}

// GetOrCreateDirect finds or creates the direct conversation for the
// unordered user pair. A self pair yields the user's favorites chat with a
// single participant row.
func (s *ConversationService) GetOrCreateDirect(myID, partnerID uuid.UUID) (*model.Conversation, error) {
	if conv, err := s.convs.FindDirectByPair(myID, partnerID); err == nil {
		// Resurface the chat if the caller had hidden it earlier
		if p, _ := s.parts.Find(conv.ID, myID); p != nil && p.IsHidden {
			_ = s.parts.Update(p.ID, map[string]interface{}{"is_hidden": false})
		}
		return conv, nil
	}

	if _, err := s.users.FindByID(partnerID); err != nil {
		return nil, apperr.NotFound("user not found")
	}

	conv := &model.Conversation{Kind: model.KindDirect}
	if err := s.convs.Create(conv); err != nil {
		return nil, apperr.Internal("failed to create conversation", err)
	}
	now := time.Now().UTC()
	members := []uuid.UUID{myID}
	if partnerID != myID {
		members = append(members, partnerID)
	}
	for _, uid := range members {
		p := &model.Participant{
			ConversationID: conv.ID,
			UserID:         uid,
			Role:           model.RoleMember,
			Status:         model.StatusActive,
			JoinedAt:       now,
		}
		if err := s.parts.Create(p); err != nil {
			return nil, apperr.Internal("failed to add participant", err)
		}
	}
	return s.convs.FindByID(conv.ID)
}

// CreateGroup creates a group of the creator plus at least two other members.
// The creator becomes the sole admin.
func (s *ConversationService) CreateGroup(creatorID uuid.UUID, req model.CreateGroupRequest) (*model.Conversation, error) {
	others := dedupExcluding(req.MemberIDs, creatorID)
	if len(others) < 2 {
		return nil, apperr.BadRequest("a group needs the creator and at least 2 other members")
	}

	conv := &model.Conversation{
		Kind:   model.KindGroup,
		Title:  req.Title,
		Avatar: req.Avatar,
	}
	if err := s.convs.Create(conv); err != nil {
		return nil, apperr.Internal("failed to create conversation", err)
	}
	now := time.Now().UTC()
	if err := s.parts.Create(&model.Participant{
		ConversationID: conv.ID,
		UserID:         creatorID,
		Role:           model.RoleAdmin,
		Status:         model.StatusActive,
		JoinedAt:       now,
	}); err != nil {
		return nil, apperr.Internal("failed to add creator", err)
	}
	for _, uid := range others {
		if err := s.parts.Create(&model.Participant{
			ConversationID: conv.ID,
			UserID:         uid,
			Role:           model.RoleMember,
			Status:         model.StatusActive,
			JoinedAt:       now,
		}); err != nil {
			return nil, apperr.Internal("failed to add participant", err)
		}
	}

	postSystemMessage(s.convs, s.parts, s.msgs, s.reads, s.notifier, conv, creatorID, "Беседа создана")
	return s.convs.FindByID(conv.ID)
}

// CreateChannel creates a broadcast channel owned by its creator. An optional
// unique slug makes the channel joinable without an invite.
func (s *ConversationService) CreateChannel(creatorID uuid.UUID, req model.CreateChannelRequest) (*model.Conversation, error) {
	if req.Slug != nil {
		if _, err := s.convs.FindBySlug(*req.Slug); err == nil {
			return nil, apperr.Conflict("channel slug is already taken")
		}
	}

	conv := &model.Conversation{
		Kind:    model.KindChannel,
		Title:   req.Title,
		Slug:    req.Slug,
		Avatar:  req.Avatar,
		OwnerID: &creatorID,
	}
	if err := s.convs.Create(conv); err != nil {
		return nil, apperr.Conflict("channel slug is already taken")
	}
	if err := s.parts.Create(&model.Participant{
		ConversationID: conv.ID,
		UserID:         creatorID,
		Role:           model.RoleAdmin,
		Perms:          model.PermPost | model.PermEdit | model.PermDelete | model.PermInvite,
		Status:         model.StatusActive,
		JoinedAt:       time.Now().UTC(),
	}); err != nil {
		return nil, apperr.Internal("failed to add creator", err)
	}
	return s.convs.FindByID(conv.ID)
}

// JoinChannel joins a public channel by slug. Re-joining reactivates a
// previously departed row; banned users are refused.
func (s *ConversationService) JoinChannel(userID uuid.UUID, slug string) (*model.Conversation, error) {
	conv, err := s.convs.FindBySlug(slug)
	if err != nil {
		return nil, apperr.NotFound("channel not found")
	}
	if err := s.activateParticipant(conv, userID); err != nil {
		return nil, err
	}
	return conv, nil
}

// AddParticipant adds (or reactivates) a member. Group members may add;
// channels require an admin.
func (s *ConversationService) AddParticipant(actorID, convID, userID uuid.UUID) error {
	conv, err := s.convs.FindByID(convID)
	if err != nil {
		return apperr.NotFound("conversation not found")
	}
	actor, _ := s.parts.Find(convID, actorID)
	if err := Can(conv, actor, ActionAddParticipant); err != nil {
		return err
	}
	if _, err := s.users.FindByID(userID); err != nil {
		return apperr.NotFound("user not found")
	}
	if err := s.activateParticipant(conv, userID); err != nil {
		return err
	}

	target, _ := s.users.FindByID(userID)
	actorUser, _ := s.users.FindByID(actorID)
	if target != nil && actorUser != nil {
		text := fmt.Sprintf("%s добавил(а) %s", actorUser.Name, target.Name)
		postSystemMessage(s.convs, s.parts, s.msgs, s.reads, s.notifier, conv, actorID, text)
	}
	return nil
}

// Leave removes the caller from a group or channel. The last admin of a group
// with other active members must name a successor; an admin-less active group
// is an invariant violation and is rejected. The row is flagged, never
// deleted, and the chat is hidden from the leaver's list.
func (s *ConversationService) Leave(userID, convID uuid.UUID, successorID *uuid.UUID) error {
	conv, err := s.convs.FindByID(convID)
	if err != nil {
		return apperr.NotFound("conversation not found")
	}
	if conv.Kind == model.KindDirect {
		return apperr.BadRequest("direct conversations cannot be left; delete them instead")
	}
	p, _ := s.parts.Find(convID, userID)
	if p == nil || !p.IsActive() {
		return apperr.Forbidden("not an active participant of this conversation")
	}

	if p.Role == model.RoleAdmin {
		if err := s.ensureSuccession(conv, p, successorID); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	if err := s.parts.Update(p.ID, map[string]interface{}{
		"status":    model.StatusLeft,
		"kicked_at": now,
		"is_hidden": true,
	}); err != nil {
		return apperr.Internal("failed to leave conversation", err)
	}

	if leaver, _ := s.users.FindByID(userID); leaver != nil {
		text := fmt.Sprintf("%s вышел(а) из беседы", leaver.Name)
		postSystemMessage(s.convs, s.parts, s.msgs, s.reads, s.notifier, conv, userID, text)
	}
	return nil
}

// Kick removes another participant. Admins may never be kicked; the row keeps
// its history attribution via the kicked status and timestamp.
func (s *ConversationService) Kick(actorID, convID, targetID uuid.UUID, ban bool) error {
	if actorID == targetID {
		return apperr.BadRequest("cannot kick yourself; leave the conversation instead")
	}
	conv, err := s.convs.FindByID(convID)
	if err != nil {
		return apperr.NotFound("conversation not found")
	}
	actor, _ := s.parts.Find(convID, actorID)
	if err := Can(conv, actor, ActionKick); err != nil {
		return err
	}
	target, _ := s.parts.Find(convID, targetID)
	if target == nil || !target.IsActive() {
		return apperr.NotFound("participant not found")
	}
	if target.Role == model.RoleAdmin {
		return apperr.Forbidden("cannot kick an admin")
	}

	now := time.Now().UTC()
	fields := map[string]interface{}{
		"status":    model.StatusKicked,
		"kicked_at": now,
	}
	if ban {
		fields["banned"] = true
	}
	if err := s.parts.Update(target.ID, fields); err != nil {
		return apperr.Internal("failed to kick participant", err)
	}

	s.notifier.Publish(targetID, model.EventConversationUpdated, model.ConversationUpdatedEvent{
		ConversationID: convID,
		Fields:         map[string]interface{}{"kicked": true},
	})

	actorUser, _ := s.users.FindByID(actorID)
	targetUser, _ := s.users.FindByID(targetID)
	if actorUser != nil && targetUser != nil {
		text := fmt.Sprintf("%s исключил(а) %s", actorUser.Name, targetUser.Name)
		postSystemMessage(s.convs, s.parts, s.msgs, s.reads, s.notifier, conv, actorID, text)
	}
	return nil
}

// DeleteForMe hides the conversation from the caller's list and advances
// their cleared-history bound. No other participant's view changes. A group
// admin must transfer or leave instead, so a group is never silently orphaned.
func (s *ConversationService) DeleteForMe(userID, convID uuid.UUID) error {
	conv, err := s.convs.FindByID(convID)
	if err != nil {
		return apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(convID, userID)
	if p == nil {
		return apperr.Forbidden("not a participant of this conversation")
	}
	if conv.Kind == model.KindGroup && p.Role == model.RoleAdmin {
		return apperr.Forbidden("a group admin must transfer adminship, leave, or delete for everyone")
	}
	now := time.Now().UTC()
	if err := s.parts.Update(p.ID, map[string]interface{}{
		"is_hidden":          true,
		"cleared_history_at": now,
	}); err != nil {
		return apperr.Internal("failed to hide conversation", err)
	}
	return nil
}

// DeleteForAll hard-deletes the conversation and all dependent rows, then
// fans a deletion event out to every participant. Direct chats may be deleted
// by either side except the favorites chat; groups and channels require an
// admin.
func (s *ConversationService) DeleteForAll(userID, convID uuid.UUID) error {
	conv, err := s.convs.FindByID(convID)
	if err != nil {
		return apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(convID, userID)
	if p == nil {
		return apperr.Forbidden("not a participant of this conversation")
	}
	all, err := s.parts.ListByConversation(convID)
	if err != nil {
		return apperr.Internal("failed to load participants", err)
	}

	switch conv.Kind {
	case model.KindDirect:
		if len(all) <= 1 {
			return apperr.Forbidden("the favorites conversation cannot be deleted")
		}
	default:
		if err := Can(conv, p, ActionEditSettings); err != nil {
			return err
		}
	}

	if err := s.convs.Delete(convID); err != nil {
		return apperr.Internal("failed to delete conversation", err)
	}
	event := model.ConversationDeletedEvent{ConversationID: convID}
	for _, row := range all {
		s.notifier.Publish(row.UserID, model.EventConversationDeleted, event)
	}
	return nil
}

// UpdateGroup changes a group's or channel's title/avatar
func (s *ConversationService) UpdateGroup(actorID, convID uuid.UUID, req model.UpdateConversationRequest) (*model.Conversation, error) {
	conv, err := s.convs.FindByID(convID)
	if err != nil {
		return nil, apperr.NotFound("conversation not found")
	}
	if !conv.IsGroup() {
		return nil, apperr.BadRequest("direct conversations have no editable settings")
	}
	p, _ := s.parts.Find(convID, actorID)
	if err := Can(conv, p, ActionEditSettings); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	changed := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
		changed["title"] = *req.Title
	}
	if req.Avatar != nil {
		fields["avatar"] = *req.Avatar
		changed["avatar"] = *req.Avatar
	}
	if len(fields) == 0 {
		return conv, nil
	}
	if err := s.convs.Update(convID, fields); err != nil {
		return nil, apperr.Internal("failed to update conversation", err)
	}

	publishToActive(s.parts, s.notifier, convID, model.EventConversationUpdated, func(*model.Participant) interface{} {
		return model.ConversationUpdatedEvent{ConversationID: convID, Fields: changed}
	})
	return s.convs.FindByID(convID)
}

// TogglePin flips the conversation's pinned flag in the caller's own list
func (s *ConversationService) TogglePin(userID, convID uuid.UUID) error {
	p, err := s.findParticipant(convID, userID)
	if err != nil {
		return err
	}
	return s.updateFlags(p, map[string]interface{}{"is_pinned": !p.IsPinned})
}

// UpdatePinOrder reorders the conversation within the caller's pinned set
func (s *ConversationService) UpdatePinOrder(userID, convID uuid.UUID, order int) error {
	p, err := s.findParticipant(convID, userID)
	if err != nil {
		return err
	}
	return s.updateFlags(p, map[string]interface{}{"pin_order": order})
}

// ToggleArchive flips the archived flag in the caller's own list
func (s *ConversationService) ToggleArchive(userID, convID uuid.UUID) error {
	p, err := s.findParticipant(convID, userID)
	if err != nil {
		return err
	}
	return s.updateFlags(p, map[string]interface{}{"is_archived": !p.IsArchived})
}

// ToggleMute mutes or unmutes notifications, optionally until an instant
func (s *ConversationService) ToggleMute(userID, convID uuid.UUID, req model.MuteRequest) error {
	p, err := s.findParticipant(convID, userID)
	if err != nil {
		return err
	}
	fields := map[string]interface{}{"muted": req.Muted}
	if req.Muted && req.Until != nil {
		fields["muted"] = false
		fields["muted_until"] = *req.Until
	} else if !req.Muted {
		fields["muted_until"] = nil
	}
	return s.updateFlags(p, fields)
}

// List returns the caller's visible conversations with unread counts, newest
// activity first. A manual unread mark takes priority over the computed count.
func (s *ConversationService) List(userID uuid.UUID) ([]model.ConversationResponse, error) {
	rows, err := s.parts.ListForUser(userID)
	if err != nil {
		return nil, apperr.Internal("failed to list conversations", err)
	}

	result := []model.ConversationResponse{}
	for i := range rows {
		p := &rows[i]
		if p.IsHidden {
			continue
		}
		conv, err := s.convs.FindByID(p.ConversationID)
		if err != nil {
			continue
		}
		w := VisibleWindow(p)
		unread, _ := s.msgs.CountUnread(conv.ID, userID, w)
		if p.IsManuallyUnread && unread == 0 {
			unread = 1
		}
		conv.LastMessage, _ = s.msgs.LastVisible(conv.ID, userID, w)
		result = append(result, model.ConversationResponse{
			Conversation: *conv,
			UnreadCount:  int(unread),
		})
	}
	return result, nil
}

// Stats summarizes the conversation within the caller's visible window
func (s *ConversationService) Stats(userID, convID uuid.UUID) (*model.ConversationStats, error) {
	p, _ := s.parts.Find(convID, userID)
	if p == nil {
		return nil, apperr.Forbidden("not a participant of this conversation")
	}
	w := VisibleWindow(p)
	msgCount, err := s.msgs.CountWindow(convID, userID, w)
	if err != nil {
		return nil, apperr.Internal("failed to count messages", err)
	}
	partCount, err := s.parts.CountActive(convID)
	if err != nil {
		return nil, apperr.Internal("failed to count participants", err)
	}
	unread, _ := s.msgs.CountUnread(convID, userID, w)
	return &model.ConversationStats{
		ConversationID:   convID,
		MessageCount:     msgCount,
		ParticipantCount: partCount,
		UnreadCount:      unread,
	}, nil
}

// Get returns a single conversation with the caller's unread count
func (s *ConversationService) Get(userID, convID uuid.UUID) (*model.ConversationResponse, error) {
	p, _ := s.parts.Find(convID, userID)
	if p == nil {
		return nil, apperr.Forbidden("not a participant of this conversation")
	}
	conv, err := s.convs.FindByID(convID)
	if err != nil {
		return nil, apperr.NotFound("conversation not found")
	}
	w := VisibleWindow(p)
	unread, _ := s.msgs.CountUnread(convID, userID, w)
	if p.IsManuallyUnread && unread == 0 {
		unread = 1
	}
	conv.LastMessage, _ = s.msgs.LastVisible(convID, userID, w)
	return &model.ConversationResponse{Conversation: *conv, UnreadCount: int(unread)}, nil
}

// Participants returns the active participant roster
func (s *ConversationService) Participants(userID, convID uuid.UUID) ([]model.Participant, error) {
	conv, err := s.convs.FindByID(convID)
	if err != nil {
		return nil, apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(convID, userID)
	if err := Can(conv, p, ActionListParticipants); err != nil {
		return nil, err
	}
	active, err := s.parts.ListActive(convID)
	if err != nil {
		return nil, apperr.Internal("failed to load participants", err)
	}
	return active, nil
}

// ActiveMemberIDs returns the user ids of the active participants
func (s *ConversationService) ActiveMemberIDs(convID uuid.UUID) ([]uuid.UUID, error) {
	active, err := s.parts.ListActive(convID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(active))
	for _, a := range active {
		ids = append(ids, a.UserID)
	}
	return ids, nil
}

// ensureSuccession promotes a successor before the last admin of a group or
// channel with other active members leaves
func (s *ConversationService) ensureSuccession(conv *model.Conversation, leaving *model.Participant, successorID *uuid.UUID) error {
	active, err := s.parts.ListActive(conv.ID)
	if err != nil {
		return apperr.Internal("failed to load participants", err)
	}
	others := 0
	otherAdmins := 0
	for _, a := range active {
		if a.UserID == leaving.UserID {
			continue
		}
		others++
		if a.Role == model.RoleAdmin {
			otherAdmins++
		}
	}
	if others == 0 || otherAdmins > 0 {
		return nil
	}
	if successorID == nil {
		return apperr.BadRequest("the last admin must name a successor before leaving")
	}
	successor, _ := s.parts.Find(conv.ID, *successorID)
	if successor == nil || !successor.IsActive() || successor.UserID == leaving.UserID {
		return apperr.BadRequest("the successor must be another active participant")
	}
	if err := s.parts.Update(successor.ID, map[string]interface{}{"role": model.RoleAdmin}); err != nil {
		return apperr.Internal("failed to promote successor", err)
	}
	return nil
}

// activateParticipant creates a member row or reactivates a departed one
func (s *ConversationService) activateParticipant(conv *model.Conversation, userID uuid.UUID) error {
	existing, _ := s.parts.Find(conv.ID, userID)
	if existing != nil {
		if existing.Banned {
			return apperr.Forbidden("banned from this conversation")
		}
		if existing.IsActive() {
			return nil
		}
		return s.parts.Update(existing.ID, map[string]interface{}{
			"status":    model.StatusActive,
			"kicked_at": nil,
			"is_hidden": false,
			"role":      model.RoleMember,
		})
	}
	return s.parts.Create(&model.Participant{
		ConversationID: conv.ID,
		UserID:         userID,
		Role:           model.RoleMember,
		Status:         model.StatusActive,
		JoinedAt:       time.Now().UTC(),
	})
}

func (s *ConversationService) findParticipant(convID, userID uuid.UUID) (*model.Participant, error) {
	if _, err := s.convs.FindByID(convID); err != nil {
		return nil, apperr.NotFound("conversation not found")
	}
	p, _ := s.parts.Find(convID, userID)
	if p == nil {
		return nil, apperr.Forbidden("not a participant of this conversation")
	}
	return p, nil
}

func (s *ConversationService) updateFlags(p *model.Participant, fields map[string]interface{}) error {
	if err := s.parts.Update(p.ID, fields); err != nil {
		return apperr.Internal("failed to update conversation flags", err)
	}
	return nil
}

// dedupExcluding returns ids without duplicates and without the excluded id
func dedupExcluding(ids []uuid.UUID, exclude uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]bool{exclude: true}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
