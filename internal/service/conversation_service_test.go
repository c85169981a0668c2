package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/pkg/apperr"
)

func TestCreateGroupNeedsThreeMembers(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")

	_, err := f.conversations.CreateGroup(alice, model.CreateGroupRequest{
		Title:     "too small",
		MemberIDs: []uuid.UUID{bob},
	})
	assert.True(t, apperr.Is(err, apperr.CodeBadRequest))

	// duplicates and the creator's own id do not count toward the minimum
	_, err = f.conversations.CreateGroup(alice, model.CreateGroupRequest{
		Title:     "still too small",
		MemberIDs: []uuid.UUID{bob, bob, alice},
	})
	assert.True(t, apperr.Is(err, apperr.CodeBadRequest))

	conv, err := f.conversations.CreateGroup(alice, model.CreateGroupRequest{
		Title:     "team",
		MemberIDs: []uuid.UUID{bob, carol},
	})
	require.NoError(t, err)

	// the creator is the sole admin
	p, err := f.store.Find(conv.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, p.Role)
	p, err = f.store.Find(conv.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, p.Role)

	// creation is announced as a system message
	list, err := f.messages.List(bob, conv.ID, nil, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.MessageTypeSystem, list[0].Type)
	assert.Equal(t, "Беседа создана", list[0].Content)
}

func TestGetOrCreateDirectIsIdempotent(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")

	first, err := f.conversations.GetOrCreateDirect(alice, bob)
	require.NoError(t, err)

	// the pair is unordered
	second, err := f.conversations.GetOrCreateDirect(bob, alice)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// re-opening a hidden chat resurfaces it
	p, err := f.store.Find(first.ID, alice)
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateParticipant(p.ID, map[string]interface{}{"is_hidden": true}))
	_, err = f.conversations.GetOrCreateDirect(alice, bob)
	require.NoError(t, err)
	p, _ = f.store.Find(first.ID, alice)
	assert.False(t, p.IsHidden)

	_, err = f.conversations.GetOrCreateDirect(alice, uuid.New())
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestFavoritesSelfChat(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")

	conv, err := f.conversations.GetOrCreateDirect(alice, alice)
	require.NoError(t, err)

	rows, err := f.store.ListByConversation(conv.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	again, err := f.conversations.GetOrCreateDirect(alice, alice)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	// the favorites chat can never be deleted for all
	err = f.conversations.DeleteForAll(alice, conv.ID)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
}

func TestCreateChannelSlugConflict(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	f.channel(alice, "news")

	slug := "news"
	_, err := f.conversations.CreateChannel(bob, model.CreateChannelRequest{Title: "copycat", Slug: &slug})
	assert.True(t, apperr.Is(err, apperr.CodeConflict))

	// the owner joins with the full permission set
	conv, _ := f.store.FindBySlug("news")
	p, err := f.store.Find(conv.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, p.Role)
	assert.True(t, p.Perms.Has(model.PermPost|model.PermEdit|model.PermDelete|model.PermInvite))
}

func TestJoinChannelReactivatesAndRefusesBanned(t *testing.T) {
	f := newFixture()
	owner := f.store.addUser("owner")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	conv := f.channel(owner, "lobby")

	_, err := f.conversations.JoinChannel(bob, "lobby")
	require.NoError(t, err)

	// leaving and rejoining reuses the same row
	require.NoError(t, f.conversations.Leave(bob, conv.ID, nil))
	p, _ := f.store.Find(conv.ID, bob)
	assert.Equal(t, model.StatusLeft, p.Status)

	_, err = f.conversations.JoinChannel(bob, "lobby")
	require.NoError(t, err)
	p, _ = f.store.Find(conv.ID, bob)
	assert.Equal(t, model.StatusActive, p.Status)
	assert.Nil(t, p.KickedAt)

	// a ban survives departure and blocks the public join path
	_, err = f.conversations.JoinChannel(carol, "lobby")
	require.NoError(t, err)
	require.NoError(t, f.conversations.Kick(owner, conv.ID, carol, true))
	_, err = f.conversations.JoinChannel(carol, "lobby")
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	_, err = f.conversations.JoinChannel(bob, "no-such-slug")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestAddParticipantAnnouncesAndReactivates(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	dave := f.store.addUser("dave")
	conv := f.group(alice, bob, carol)

	// group members may add
	require.NoError(t, f.conversations.AddParticipant(bob, conv.ID, dave))
	p, err := f.store.Find(conv.ID, dave)
	require.NoError(t, err)
	assert.True(t, p.IsActive())

	list, err := f.messages.List(alice, conv.ID, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "bob добавил(а) dave", list[0].Content)

	// adding an active member is a no-op, not an error
	require.NoError(t, f.conversations.AddParticipant(bob, conv.ID, dave))

	err = f.conversations.AddParticipant(bob, conv.ID, uuid.New())
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	// outsiders cannot add anyone
	eve := f.store.addUser("eve")
	err = f.conversations.AddParticipant(eve, conv.ID, dave)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
}

func TestLeaveRules(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")

	direct := f.direct(alice, bob)
	assert.True(t, apperr.Is(f.conversations.Leave(alice, direct.ID, nil), apperr.CodeBadRequest))

	conv := f.group(alice, bob, carol)

	// a plain member leaves freely; the row is flagged and hidden
	require.NoError(t, f.conversations.Leave(bob, conv.ID, nil))
	p, _ := f.store.Find(conv.ID, bob)
	assert.Equal(t, model.StatusLeft, p.Status)
	assert.NotNil(t, p.KickedAt)
	assert.True(t, p.IsHidden)

	list, err := f.messages.List(alice, conv.ID, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "bob вышел(а) из беседы", list[0].Content)

	// leaving twice is refused
	assert.True(t, apperr.Is(f.conversations.Leave(bob, conv.ID, nil), apperr.CodeForbidden))
}

func TestLeaveAdminSuccession(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	conv := f.group(alice, bob, carol)

	// the last admin cannot walk away from a populated group
	err := f.conversations.Leave(alice, conv.ID, nil)
	assert.True(t, apperr.Is(err, apperr.CodeBadRequest))

	// the successor must be an active member
	stranger := f.store.addUser("stranger")
	err = f.conversations.Leave(alice, conv.ID, &stranger)
	assert.True(t, apperr.Is(err, apperr.CodeBadRequest))

	require.NoError(t, f.conversations.Leave(alice, conv.ID, &bob))
	p, _ := f.store.Find(conv.ID, bob)
	assert.Equal(t, model.RoleAdmin, p.Role)
}

func TestLeaveLastAdminAloneNeedsNoSuccessor(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	conv := f.group(alice, bob, carol)

	require.NoError(t, f.conversations.Leave(bob, conv.ID, nil))
	require.NoError(t, f.conversations.Leave(carol, conv.ID, nil))

	// nobody is left behind, so no successor is required
	require.NoError(t, f.conversations.Leave(alice, conv.ID, nil))
}

func TestKickRules(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	conv := f.group(alice, bob, carol)

	assert.True(t, apperr.Is(f.conversations.Kick(alice, conv.ID, alice, false), apperr.CodeBadRequest))
	assert.True(t, apperr.Is(f.conversations.Kick(bob, conv.ID, carol, false), apperr.CodeForbidden))
	assert.True(t, apperr.Is(f.conversations.Kick(bob, conv.ID, alice, false), apperr.CodeForbidden))

	f.notifier.reset()
	require.NoError(t, f.conversations.Kick(alice, conv.ID, bob, false))
	p, _ := f.store.Find(conv.ID, bob)
	assert.Equal(t, model.StatusKicked, p.Status)
	require.NotNil(t, p.KickedAt)
	assert.False(t, p.Banned)

	// the target is told directly; everyone else learns via the system message
	kicked := f.notifier.forUser(bob, model.EventConversationUpdated)
	require.Len(t, kicked, 1)
	payload := kicked[0].Payload.(model.ConversationUpdatedEvent)
	assert.Equal(t, conv.ID, payload.ConversationID)
	assert.Equal(t, true, payload.Fields["kicked"])

	list, err := f.messages.List(alice, conv.ID, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice исключил(а) bob", list[0].Content)

	// kicking a departed member again finds nothing
	assert.True(t, apperr.Is(f.conversations.Kick(alice, conv.ID, bob, false), apperr.CodeNotFound))
}

func TestDeleteForMeClearsHistory(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	conv := f.direct(alice, bob)

	_, err := f.messages.Send(alice, conv.ID, model.SendMessageRequest{Content: "old"})
	require.NoError(t, err)

	require.NoError(t, f.conversations.DeleteForMe(bob, conv.ID))
	p, _ := f.store.Find(conv.ID, bob)
	assert.True(t, p.IsHidden)
	require.NotNil(t, p.ClearedHistoryAt)

	// history before the cut is gone for bob, intact for alice
	list, err := f.messages.List(bob, conv.ID, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = f.messages.List(alice, conv.ID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// a new message resurfaces the chat past the cut
	msg, err := f.messages.Send(alice, conv.ID, model.SendMessageRequest{Content: "new"})
	require.NoError(t, err)
	list, err = f.messages.List(bob, conv.ID, nil, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, msg.ID, list[0].ID)
}

func TestDeleteForMeGroupAdminRefused(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	conv := f.group(alice, bob, carol)

	err := f.conversations.DeleteForMe(alice, conv.ID)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
	require.NoError(t, f.conversations.DeleteForMe(bob, conv.ID))
}

func TestDeleteForAllNotifiesEveryRow(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	conv := f.group(alice, bob, carol)

	assert.True(t, apperr.Is(f.conversations.DeleteForAll(bob, conv.ID), apperr.CodeForbidden))

	// even a departed member hears about the deletion
	require.NoError(t, f.conversations.Leave(carol, conv.ID, nil))
	f.notifier.reset()

	require.NoError(t, f.conversations.DeleteForAll(alice, conv.ID))
	for _, uid := range []uuid.UUID{alice, bob, carol} {
		events := f.notifier.forUser(uid, model.EventConversationDeleted)
		require.Len(t, events, 1, uid.String())
		assert.Equal(t, conv.ID, events[0].Payload.(model.ConversationDeletedEvent).ConversationID)
	}

	_, err := f.store.FindByID(conv.ID)
	assert.Error(t, err)
}

func TestUpdateGroupBroadcastsChangedFields(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	conv := f.group(alice, bob, carol)

	title := "renamed"
	_, err := f.conversations.UpdateGroup(bob, conv.ID, model.UpdateConversationRequest{Title: &title})
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	updated, err := f.conversations.UpdateGroup(alice, conv.ID, model.UpdateConversationRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	events := f.notifier.forUser(carol, model.EventConversationUpdated)
	require.Len(t, events, 1)
	fields := events[0].Payload.(model.ConversationUpdatedEvent).Fields
	assert.Equal(t, "renamed", fields["title"])
	_, avatarChanged := fields["avatar"]
	assert.False(t, avatarChanged)

	// an empty update is a no-op
	f.notifier.reset()
	_, err = f.conversations.UpdateGroup(alice, conv.ID, model.UpdateConversationRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, f.notifier.count(model.EventConversationUpdated))

	direct := f.direct(alice, bob)
	_, err = f.conversations.UpdateGroup(alice, direct.ID, model.UpdateConversationRequest{Title: &title})
	assert.True(t, apperr.Is(err, apperr.CodeBadRequest))
}

func TestToggleMuteUntil(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	conv := f.direct(alice, bob)

	until := time.Now().UTC().Add(time.Hour)
	require.NoError(t, f.conversations.ToggleMute(bob, conv.ID, model.MuteRequest{Muted: true, Until: &until}))
	p, _ := f.store.Find(conv.ID, bob)
	assert.False(t, p.Muted)
	require.NotNil(t, p.MutedUntil)
	assert.True(t, p.IsMutedAt(time.Now().UTC()))
	assert.False(t, p.IsMutedAt(until.Add(time.Minute)))

	// indefinite mute
	require.NoError(t, f.conversations.ToggleMute(bob, conv.ID, model.MuteRequest{Muted: true}))
	p, _ = f.store.Find(conv.ID, bob)
	assert.True(t, p.Muted)

	require.NoError(t, f.conversations.ToggleMute(bob, conv.ID, model.MuteRequest{Muted: false}))
	p, _ = f.store.Find(conv.ID, bob)
	assert.False(t, p.Muted)
	assert.Nil(t, p.MutedUntil)
}

func TestListOrderingAndUnread(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")

	withBob := f.direct(alice, bob)
	time.Sleep(time.Millisecond)
	withCarol := f.direct(alice, carol)

	_, err := f.messages.Send(bob, withBob.ID, model.SendMessageRequest{Content: "one"})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = f.messages.Send(carol, withCarol.ID, model.SendMessageRequest{Content: "two"})
	require.NoError(t, err)

	list, err := f.conversations.List(alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, withCarol.ID, list[0].ID)
	assert.Equal(t, 1, list[0].UnreadCount)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "two", list[0].LastMessage.Content)

	// pinned chats come first regardless of activity
	require.NoError(t, f.conversations.TogglePin(alice, withBob.ID))
	list, err = f.conversations.List(alice)
	require.NoError(t, err)
	assert.Equal(t, withBob.ID, list[0].ID)

	// hidden chats are skipped
	require.NoError(t, f.conversations.DeleteForMe(alice, withCarol.ID))
	list, err = f.conversations.List(alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, withBob.ID, list[0].ID)
}

func TestUnreadNeverCountsSystemMessages(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	conv := f.group(alice, bob, carol)

	// the "Беседа создана" announcement alone leaves the chat read
	got, err := f.conversations.Get(bob, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnreadCount)

	_, err = f.messages.Send(alice, conv.ID, model.SendMessageRequest{Content: "hi"})
	require.NoError(t, err)
	got, err = f.conversations.Get(bob, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UnreadCount)

	// lifecycle announcements keep the count untouched too
	dave := f.store.addUser("dave")
	require.NoError(t, f.conversations.AddParticipant(alice, conv.ID, dave))
	got, err = f.conversations.Get(bob, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UnreadCount)

	require.NoError(t, f.reads.MarkRead(bob, conv.ID))
	got, err = f.conversations.Get(bob, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnreadCount)
}

func TestLastMessageRespectsViewerWindow(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	conv := f.group(alice, bob, carol)

	visible, err := f.messages.Send(alice, conv.ID, model.SendMessageRequest{Content: "while bob was here"})
	require.NoError(t, err)

	require.NoError(t, f.conversations.Kick(alice, conv.ID, bob, false))
	_, err = f.messages.Send(alice, conv.ID, model.SendMessageRequest{Content: "after the kick"})
	require.NoError(t, err)

	// bob's list and single fetch stop at his departure
	got, err := f.conversations.Get(bob, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, visible.ID, got.LastMessage.ID)

	list, err := f.conversations.List(bob)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, visible.ID, list[0].LastMessage.ID)

	// an active member sees the newest message
	got, err = f.conversations.Get(carol, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "after the kick", got.LastMessage.Content)

	// cleared history leaves no last message behind
	direct := f.direct(alice, carol)
	_, err = f.messages.Send(alice, direct.ID, model.SendMessageRequest{Content: "old"})
	require.NoError(t, err)
	require.NoError(t, f.conversations.DeleteForMe(carol, direct.ID))
	got, err = f.conversations.Get(carol, direct.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastMessage)
}

func TestManualUnreadFloor(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	conv := f.direct(alice, bob)

	require.NoError(t, f.reads.MarkUnread(alice, conv.ID))
	got, err := f.conversations.Get(alice, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UnreadCount)

	// real unread messages win over the floor
	_, err = f.messages.Send(bob, conv.ID, model.SendMessageRequest{Content: "a"})
	require.NoError(t, err)
	_, err = f.messages.Send(bob, conv.ID, model.SendMessageRequest{Content: "b"})
	require.NoError(t, err)
	got, err = f.conversations.Get(alice, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UnreadCount)
}

func TestStatsRespectsWindow(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	conv := f.group(alice, bob, carol)

	_, err := f.messages.Send(alice, conv.ID, model.SendMessageRequest{Content: "one"})
	require.NoError(t, err)

	outsider := f.store.addUser("outsider")
	_, err = f.conversations.Stats(outsider, conv.ID)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	stats, err := f.conversations.Stats(bob, conv.ID)
	require.NoError(t, err)
	// the creation system message is visible and counted, but never unread
	assert.Equal(t, int64(2), stats.MessageCount)
	assert.Equal(t, int64(3), stats.ParticipantCount)
	assert.Equal(t, int64(1), stats.UnreadCount)

	require.NoError(t, f.conversations.Kick(alice, conv.ID, bob, false))
	_, err = f.messages.Send(alice, conv.ID, model.SendMessageRequest{Content: "after"})
	require.NoError(t, err)

	// bob's window stops at the kick; the kick announcement itself is outside it
	stats, err = f.conversations.Stats(bob, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.MessageCount)
	assert.Equal(t, int64(2), stats.ParticipantCount)
}

func TestParticipantsRosterGate(t *testing.T) {
	f := newFixture()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	conv := f.group(alice, bob, carol)

	roster, err := f.conversations.Participants(bob, conv.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 3)

	require.NoError(t, f.conversations.Leave(carol, conv.ID, nil))
	roster, err = f.conversations.Participants(bob, conv.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 2)

	outsider := f.store.addUser("outsider")
	_, err = f.conversations.Participants(outsider, conv.ID)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
}
