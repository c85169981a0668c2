package service

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"gorm.io/gorm"
)

// memStore is an in-memory implementation of every store port, so the
// services can be exercised without a database.
type memStore struct {
	mu        sync.Mutex
	convs     map[uuid.UUID]*model.Conversation
	parts     map[uuid.UUID]*model.Participant
	msgs      map[uuid.UUID]*model.Message
	reactions map[uuid.UUID]*model.Reaction
	reads     map[uuid.UUID]*model.ReadStatus
	deletions map[uuid.UUID]*model.MessageDeletion
	invites   map[uuid.UUID]*model.InviteLink
	users     map[uuid.UUID]*model.User
	devices   map[uuid.UUID]*model.Device
	blocks    []model.Block
}

func newMemStore() *memStore {
	return &memStore{
		convs:     map[uuid.UUID]*model.Conversation{},
		parts:     map[uuid.UUID]*model.Participant{},
		msgs:      map[uuid.UUID]*model.Message{},
		reactions: map[uuid.UUID]*model.Reaction{},
		reads:     map[uuid.UUID]*model.ReadStatus{},
		deletions: map[uuid.UUID]*model.MessageDeletion{},
		invites:   map[uuid.UUID]*model.InviteLink{},
		users:     map[uuid.UUID]*model.User{},
		devices:   map[uuid.UUID]*model.Device{},
	}
}

// ---------- ConversationStore ----------

func (s *memStore) Create(conv *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = now
	}
	cp := *conv
	s.convs[conv.ID] = &cp
	return nil
}

func (s *memStore) FindByID(id uuid.UUID) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *conv
	return &cp, nil
}

func (s *memStore) FindBySlug(slug string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range s.convs {
		if conv.Slug != nil && *conv.Slug == slug {
			cp := *conv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) FindDirectByPair(a, b uuid.UUID) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range s.convs {
		if conv.Kind != model.KindDirect {
			continue
		}
		var rows []*model.Participant
		for _, p := range s.parts {
			if p.ConversationID == conv.ID {
				rows = append(rows, p)
			}
		}
		if a == b {
			if len(rows) == 1 && rows[0].UserID == a {
				cp := *conv
				return &cp, nil
			}
			continue
		}
		if len(rows) == 2 {
			hasA, hasB := false, false
			for _, r := range rows {
				hasA = hasA || r.UserID == a
				hasB = hasB || r.UserID == b
			}
			if hasA && hasB {
				cp := *conv
				return &cp, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) Update(id uuid.UUID, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			conv.Title = v.(string)
		case "avatar":
			conv.Avatar = v.(string)
		}
	}
	conv.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStore) SetUpdatedAt(id uuid.UUID, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	conv.UpdatedAt = t
	return nil
}

func (s *memStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, id)
	for pid, p := range s.parts {
		if p.ConversationID == id {
			delete(s.parts, pid)
		}
	}
	for mid, m := range s.msgs {
		if m.ConversationID == id {
			s.purgeMessageLocked(mid)
		}
	}
	for lid, l := range s.invites {
		if l.ConversationID == id {
			delete(s.invites, lid)
		}
	}
	return nil
}

func (s *memStore) purgeMessageLocked(id uuid.UUID) {
	delete(s.msgs, id)
	for rid, r := range s.reactions {
		if r.MessageID == id {
			delete(s.reactions, rid)
		}
	}
	for rid, r := range s.reads {
		if r.MessageID == id {
			delete(s.reads, rid)
		}
	}
	for did, d := range s.deletions {
		if d.MessageID == id {
			delete(s.deletions, did)
		}
	}
}

// ---------- ParticipantStore ----------

func (s *memStore) CreateParticipant(p *model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = model.StatusActive
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	cp := *p
	s.parts[p.ID] = &cp
	return nil
}

func (s *memStore) Find(conversationID, userID uuid.UUID) (*model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.parts {
		if p.ConversationID == conversationID && p.UserID == userID {
			cp := *p
			if u, ok := s.users[p.UserID]; ok {
				cp.User = *u
			}
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) ListByConversation(conversationID uuid.UUID) ([]model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPartsLocked(conversationID, false), nil
}

func (s *memStore) ListActive(conversationID uuid.UUID) ([]model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPartsLocked(conversationID, true), nil
}

func (s *memStore) listPartsLocked(conversationID uuid.UUID, activeOnly bool) []model.Participant {
	out := []model.Participant{}
	for _, p := range s.parts {
		if p.ConversationID != conversationID {
			continue
		}
		if activeOnly && p.Status != model.StatusActive {
			continue
		}
		cp := *p
		if u, ok := s.users[p.UserID]; ok {
			cp.User = *u
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

func (s *memStore) ListForUser(userID uuid.UUID) ([]model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Participant{}
	for _, p := range s.parts {
		if p.UserID == userID {
			cp := *p
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if a.IsPinned && a.PinOrder != b.PinOrder {
			return a.PinOrder < b.PinOrder
		}
		ca, cb := s.convs[a.ConversationID], s.convs[b.ConversationID]
		if ca == nil || cb == nil {
			return ca != nil
		}
		return ca.UpdatedAt.After(cb.UpdatedAt)
	})
	return out, nil
}

func (s *memStore) UpdateParticipant(id uuid.UUID, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			p.Status = v.(model.ParticipantStatus)
		case "role":
			p.Role = v.(model.ParticipantRole)
		case "perms":
			p.Perms = v.(model.Permission)
		case "kicked_at":
			p.KickedAt = toTimePtr(v)
		case "banned":
			p.Banned = v.(bool)
		case "is_pinned":
			p.IsPinned = v.(bool)
		case "pin_order":
			p.PinOrder = v.(int)
		case "is_archived":
			p.IsArchived = v.(bool)
		case "is_hidden":
			p.IsHidden = v.(bool)
		case "is_manually_unread":
			p.IsManuallyUnread = v.(bool)
		case "muted":
			p.Muted = v.(bool)
		case "muted_until":
			p.MutedUntil = toTimePtr(v)
		case "cleared_history_at":
			p.ClearedHistoryAt = toTimePtr(v)
		}
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func toTimePtr(v interface{}) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return &t
	case *time.Time:
		return t
	}
	return nil
}

func (s *memStore) CountActive(conversationID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.parts {
		if p.ConversationID == conversationID && p.Status == model.StatusActive {
			n++
		}
	}
	return n, nil
}

func (s *memStore) ResurfaceForOthers(conversationID, exceptUserID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, p := range s.parts {
		if p.ConversationID != conversationID || p.UserID == exceptUserID {
			continue
		}
		p.IsHidden = false
		p.IsManuallyUnread = false
		if !p.Muted && (p.MutedUntil == nil || p.MutedUntil.Before(now)) {
			p.IsArchived = false
		}
	}
	return nil
}

// ---------- MessageStore ----------

func (s *memStore) CreateMessage(m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	cp := *m
	s.msgs[m.ID] = &cp
	return nil
}

func (s *memStore) FindMessage(id uuid.UUID) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.msgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.hydrateLocked(m), nil
}

func (s *memStore) hydrateLocked(m *model.Message) *model.Message {
	cp := *m
	if u, ok := s.users[m.SenderID]; ok {
		cp.Sender = *u
	}
	cp.Reactions = s.reactionsForLocked(m.ID)
	return &cp
}

func (s *memStore) reactionsForLocked(messageID uuid.UUID) []model.Reaction {
	var out []model.Reaction
	for _, r := range s.reactions {
		if r.MessageID == messageID {
			cp := *r
			if u, ok := s.users[r.UserID]; ok {
				cp.User = *u
			}
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *memStore) UpdateMessage(id uuid.UUID, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.msgs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "content":
			m.Content = v.(string)
		case "edited_at":
			m.EditedAt = toTimePtr(v)
		case "is_pinned":
			m.IsPinned = v.(bool)
		}
	}
	return nil
}

func (s *memStore) DeleteMessage(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeMessageLocked(id)
	return nil
}

func (s *memStore) visibleLocked(conversationID, viewerID uuid.UUID, w Window) []*model.Message {
	var out []*model.Message
	for _, m := range s.msgs {
		if m.ConversationID != conversationID {
			continue
		}
		if !w.Contains(m.CreatedAt) {
			continue
		}
		if s.deletedForLocked(m.ID, viewerID) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	return out
}

func (s *memStore) deletedForLocked(messageID, userID uuid.UUID) bool {
	for _, d := range s.deletions {
		if d.MessageID == messageID && d.UserID == userID {
			return true
		}
	}
	return false
}

func (s *memStore) ListWindow(conversationID, viewerID uuid.UUID, w Window, beforeID *uuid.UUID, limit int) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	visible := s.visibleLocked(conversationID, viewerID, w)
	out := []model.Message{}
	skipping := beforeID != nil
	for _, m := range visible {
		if skipping {
			if m.ID == *beforeID {
				skipping = false
			}
			continue
		}
		out = append(out, *s.hydrateLocked(m))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) CountWindow(conversationID, viewerID uuid.UUID, w Window) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.visibleLocked(conversationID, viewerID, w))), nil
}

func (s *memStore) CountUnread(conversationID, viewerID uuid.UUID, w Window) (int64, error) {
	ids, err := s.ListUnreadIDs(conversationID, viewerID, w)
	return int64(len(ids)), err
}

func (s *memStore) ListUnreadIDs(conversationID, viewerID uuid.UUID, w Window) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, m := range s.visibleLocked(conversationID, viewerID, w) {
		if m.SenderID == viewerID || m.Type == model.MessageTypeSystem {
			continue
		}
		if s.readExistsLocked(m.ID, viewerID) {
			continue
		}
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (s *memStore) Last(conversationID uuid.UUID) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *model.Message
	for _, m := range s.msgs {
		if m.ConversationID != conversationID {
			continue
		}
		if last == nil || m.CreatedAt.After(last.CreatedAt) {
			last = m
		}
	}
	if last == nil {
		return nil, nil
	}
	return s.hydrateLocked(last), nil
}

func (s *memStore) LastVisible(conversationID, viewerID uuid.UUID, w Window) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	visible := s.visibleLocked(conversationID, viewerID, w)
	if len(visible) == 0 {
		return nil, nil
	}
	return s.hydrateLocked(visible[0]), nil
}

func (s *memStore) IncrementViews(ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		m, ok := s.msgs[id]
		if !ok {
			continue
		}
		conv, ok := s.convs[m.ConversationID]
		if !ok || conv.Kind != model.KindChannel {
			continue
		}
		m.ViewsCount++
	}
	return nil
}

func (s *memStore) MarkDeletedFor(messageID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deletedForLocked(messageID, userID) {
		return nil
	}
	id := uuid.New()
	s.deletions[id] = &model.MessageDeletion{ID: id, MessageID: messageID, UserID: userID, CreatedAt: time.Now().UTC()}
	return nil
}

func (s *memStore) IsDeletedFor(messageID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletedForLocked(messageID, userID), nil
}

// ---------- ReactionStore ----------

func (s *memStore) FindReaction(messageID, userID uuid.UUID) (*model.Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reactions {
		if r.MessageID == messageID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) Upsert(r *model.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reactions {
		if existing.MessageID == r.MessageID && existing.UserID == r.UserID {
			existing.Emoji = r.Emoji
			existing.CreatedAt = r.CreatedAt
			return nil
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	cp := *r
	s.reactions[r.ID] = &cp
	return nil
}

func (s *memStore) DeleteReaction(messageID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.reactions {
		if r.MessageID == messageID && r.UserID == userID {
			delete(s.reactions, id)
		}
	}
	return nil
}

func (s *memStore) ListByMessage(messageID uuid.UUID) ([]model.Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.reactionsForLocked(messageID)
	if out == nil {
		out = []model.Reaction{}
	}
	return out, nil
}

// ---------- ReadStore ----------

func (s *memStore) Exists(messageID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readExistsLocked(messageID, userID), nil
}

func (s *memStore) readExistsLocked(messageID, userID uuid.UUID) bool {
	for _, r := range s.reads {
		if r.MessageID == messageID && r.UserID == userID {
			return true
		}
	}
	return false
}

func (s *memStore) BulkCreate(rows []model.ReadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		if s.readExistsLocked(row.MessageID, row.UserID) {
			continue
		}
		cp := row
		if cp.ID == uuid.Nil {
			cp.ID = uuid.New()
		}
		s.reads[cp.ID] = &cp
	}
	return nil
}

// ---------- InviteStore ----------

func (s *memStore) CreateInvite(l *model.InviteLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	s.invites[l.ID] = &cp
	return nil
}

func (s *memStore) FindByCode(code string) (*model.InviteLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.invites {
		if l.Code == code {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) ListInvites(conversationID uuid.UUID) ([]model.InviteLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.InviteLink{}
	for _, l := range s.invites {
		if l.ConversationID == conversationID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *memStore) IncrementUsed(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.invites[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.UsedCount++
	return nil
}

func (s *memStore) DeleteInvite(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.invites, id)
	return nil
}

// ---------- UserStore ----------

func (s *memStore) FindUser(id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) BlockExists(a, b uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bl := range s.blocks {
		if (bl.BlockerID == a && bl.BlockedID == b) || (bl.BlockerID == b && bl.BlockedID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreateBlock(blockerID, blockedID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bl := range s.blocks {
		if bl.BlockerID == blockerID && bl.BlockedID == blockedID {
			return nil
		}
	}
	s.blocks = append(s.blocks, model.Block{ID: uuid.New(), BlockerID: blockerID, BlockedID: blockedID, CreatedAt: time.Now().UTC()})
	return nil
}

func (s *memStore) DeleteBlock(blockerID, blockedID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.blocks[:0]
	for _, bl := range s.blocks {
		if bl.BlockerID == blockerID && bl.BlockedID == blockedID {
			continue
		}
		kept = append(kept, bl)
	}
	s.blocks = kept
	return nil
}

func (s *memStore) RegisterDevice(device *model.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d.FCMToken == device.FCMToken {
			d.UserID = device.UserID
			d.DeviceType = device.DeviceType
			return nil
		}
	}
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	cp := *device
	s.devices[device.ID] = &cp
	return nil
}

// addUser seeds a user row and returns its id
func (s *memStore) addUser(name string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = &model.User{ID: id, Name: name, Username: name, NotifyMessages: true}
	return id
}

func (s *memStore) addBlock(blocker, blocked uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, model.Block{BlockerID: blocker, BlockedID: blocked})
}

// Adapters split the single memStore into the per-port interfaces the
// services expect, resolving the method-name collisions between ports.

type convStoreAdapter struct{ *memStore }

type partStoreAdapter struct{ *memStore }

func (a partStoreAdapter) Create(p *model.Participant) error { return a.CreateParticipant(p) }
func (a partStoreAdapter) Update(id uuid.UUID, fields map[string]interface{}) error {
	return a.UpdateParticipant(id, fields)
}

type msgStoreAdapter struct{ *memStore }

func (a msgStoreAdapter) Create(m *model.Message) error { return a.CreateMessage(m) }
func (a msgStoreAdapter) FindByID(id uuid.UUID) (*model.Message, error) {
	return a.FindMessage(id)
}
func (a msgStoreAdapter) Update(id uuid.UUID, fields map[string]interface{}) error {
	return a.UpdateMessage(id, fields)
}
func (a msgStoreAdapter) Delete(id uuid.UUID) error { return a.DeleteMessage(id) }

type reactionStoreAdapter struct{ *memStore }

func (a reactionStoreAdapter) Find(messageID, userID uuid.UUID) (*model.Reaction, error) {
	return a.FindReaction(messageID, userID)
}
func (a reactionStoreAdapter) Delete(messageID, userID uuid.UUID) error {
	return a.DeleteReaction(messageID, userID)
}

type inviteStoreAdapter struct{ *memStore }

func (a inviteStoreAdapter) Create(l *model.InviteLink) error { return a.CreateInvite(l) }
func (a inviteStoreAdapter) ListByConversation(conversationID uuid.UUID) ([]model.InviteLink, error) {
	return a.ListInvites(conversationID)
}
func (a inviteStoreAdapter) Delete(id uuid.UUID) error { return a.DeleteInvite(id) }

type userStoreAdapter struct{ *memStore }

func (a userStoreAdapter) FindByID(id uuid.UUID) (*model.User, error) { return a.FindUser(id) }

// captureNotifier records every published event
type captureNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	UserID  uuid.UUID
	Event   string
	Payload interface{}
}

func (n *captureNotifier) Publish(userID uuid.UUID, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{UserID: userID, Event: event, Payload: payload})
}

func (n *captureNotifier) forUser(userID uuid.UUID, event string) []publishedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []publishedEvent
	for _, e := range n.events {
		if e.UserID == userID && e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (n *captureNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.Event == event {
			c++
		}
	}
	return c
}

func (n *captureNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

// captureDispatcher records offline notification requests
type captureDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

type dispatchCall struct {
	RecipientID uuid.UUID
	Kind        string
	Text        string
	ActorID     uuid.UUID
}

func (d *captureDispatcher) Create(_ context.Context, recipientID uuid.UUID, kind, text string, actorID uuid.UUID, _ *uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{RecipientID: recipientID, Kind: kind, Text: text, ActorID: actorID})
	return nil
}

func (d *captureDispatcher) forRecipient(recipientID uuid.UUID) []dispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []dispatchCall
	for _, c := range d.calls {
		if c.RecipientID == recipientID {
			out = append(out, c)
		}
	}
	return out
}

// fixture wires every service over a shared memStore
type fixture struct {
	store      *memStore
	notifier   *captureNotifier
	dispatcher *captureDispatcher

	conversations *ConversationService
	messages      *MessageService
	reactions     *ReactionService
	reads         *ReadService
	invites       *InviteService
	users         *UserService
}

func newFixture() *fixture {
	store := newMemStore()
	notifier := &captureNotifier{}
	dispatcher := &captureDispatcher{}

	convs := convStoreAdapter{store}
	parts := partStoreAdapter{store}
	msgs := msgStoreAdapter{store}
	reactions := reactionStoreAdapter{store}
	invitesStore := inviteStoreAdapter{store}
	users := userStoreAdapter{store}

	return &fixture{
		store:         store,
		notifier:      notifier,
		dispatcher:    dispatcher,
		conversations: NewConversationService(convs, parts, msgs, store, users, notifier),
		messages:      NewMessageService(convs, parts, msgs, store, users, notifier, dispatcher),
		reactions:     NewReactionService(convs, parts, msgs, reactions, store, notifier),
		reads:         NewReadService(convs, parts, msgs, store, notifier),
		invites:       NewInviteService(convs, parts, msgs, store, users, invitesStore, notifier),
		users:         NewUserService(users),
	}
}

// group creates a group with the first user as admin and returns it
func (f *fixture) group(admin uuid.UUID, members ...uuid.UUID) *model.Conversation {
	conv, err := f.conversations.CreateGroup(admin, model.CreateGroupRequest{
		Title:     "test group",
		MemberIDs: members,
	})
	if err != nil {
		panic(err)
	}
	f.notifier.reset()
	return conv
}

// direct creates (or finds) the direct conversation of a pair
func (f *fixture) direct(a, b uuid.UUID) *model.Conversation {
	conv, err := f.conversations.GetOrCreateDirect(a, b)
	if err != nil {
		panic(err)
	}
	f.notifier.reset()
	return conv
}

// channel creates a channel owned by the creator
func (f *fixture) channel(creator uuid.UUID, slug string) *model.Conversation {
	conv, err := f.conversations.CreateChannel(creator, model.CreateChannelRequest{
		Title: "test channel",
		Slug:  &slug,
	})
	if err != nil {
		panic(err)
	}
	f.notifier.reset()
	return conv
}
