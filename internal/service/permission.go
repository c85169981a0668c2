package service

import (
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/pkg/apperr"
)

// Action is something a participant may attempt in a conversation
type Action string

const (
	ActionPost             Action = "post"
	ActionEditSettings     Action = "edit_settings"
	ActionPin              Action = "pin"
	ActionKick             Action = "kick"
	ActionAddParticipant   Action = "add_participant"
	ActionCreateInvite     Action = "create_invite"
	ActionReact            Action = "react"
	ActionEditOwnMessage   Action = "edit_own_message"
	ActionDeleteOwnMessage Action = "delete_own_message"
	ActionDeleteAnyMessage Action = "delete_any_message"
	ActionListParticipants Action = "list_participants"
)

// Can resolves whether the participant may perform the action given the
// conversation kind, their role and permission bits. It performs no side
// effects; a denial names the violated rule.
func Can(conv *model.Conversation, p *model.Participant, action Action) error {
	if p == nil {
		return apperr.Forbidden("not a participant of this conversation")
	}
	if !p.IsActive() {
		return apperr.Forbidden("no longer an active participant of this conversation")
	}

	switch conv.Kind {
	case model.KindDirect:
		return canDirect(action)
	case model.KindGroup:
		return canGroup(p, action)
	case model.KindChannel:
		return canChannel(p, action)
	}
	return apperr.Forbidden("unknown conversation kind")
}

// canDirect: both participants are peers; there is no kick/admin concept and
// neither side deletes the other's messages for everyone.
func canDirect(action Action) error {
	switch action {
	case ActionPost, ActionReact, ActionPin, ActionEditOwnMessage, ActionDeleteOwnMessage, ActionListParticipants:
		return nil
	case ActionKick:
		return apperr.Forbidden("direct conversations have no kick")
	case ActionDeleteAnyMessage:
		return apperr.Forbidden("direct participants cannot delete each other's messages")
	default:
		return apperr.Forbidden("action not available in a direct conversation")
	}
}

func canGroup(p *model.Participant, action Action) error {
	if p.Role == model.RoleAdmin {
		return nil
	}
	switch action {
	case ActionPost, ActionReact, ActionEditOwnMessage, ActionDeleteOwnMessage, ActionListParticipants, ActionAddParticipant:
		return nil
	case ActionPin:
		return apperr.Forbidden("only a group admin may pin messages")
	case ActionKick:
		return apperr.Forbidden("only a group admin may kick participants")
	case ActionEditSettings:
		return apperr.Forbidden("only a group admin may edit conversation settings")
	case ActionDeleteAnyMessage:
		return apperr.Forbidden("only a group admin may delete others' messages")
	case ActionCreateInvite:
		return apperr.Forbidden("only a group admin may manage invite links")
	default:
		return apperr.Forbidden("insufficient role for this action")
	}
}

// canChannel: members act only through explicitly granted permission bits;
// moderators carry the full bitset implicitly.
func canChannel(p *model.Participant, action Action) error {
	if p.Role == model.RoleAdmin {
		return nil
	}
	perms := p.Perms
	if p.Role == model.RoleModerator {
		perms = model.PermPost | model.PermEdit | model.PermDelete | model.PermInvite
	}
	switch action {
	case ActionPost:
		if !perms.Has(model.PermPost) {
			return apperr.Forbidden("channel members need the post permission")
		}
		return nil
	case ActionEditOwnMessage:
		if !perms.Has(model.PermEdit) {
			return apperr.Forbidden("channel members need the edit permission")
		}
		return nil
	case ActionDeleteOwnMessage:
		if !perms.Has(model.PermDelete) {
			return apperr.Forbidden("channel members need the delete permission")
		}
		return nil
	case ActionCreateInvite:
		if !perms.Has(model.PermInvite) {
			return apperr.Forbidden("only a channel admin may manage invites")
		}
		return nil
	case ActionReact:
		return nil
	case ActionPin:
		return apperr.Forbidden("only a channel admin may pin messages")
	case ActionKick:
		return apperr.Forbidden("only a channel admin may kick participants")
	case ActionEditSettings:
		return apperr.Forbidden("only a channel admin may edit channel settings")
	case ActionDeleteAnyMessage:
		return apperr.Forbidden("only a channel admin may delete others' messages")
	case ActionAddParticipant:
		return apperr.Forbidden("only a channel admin may add participants")
	case ActionListParticipants:
		return apperr.Forbidden("only a channel admin may view the participant list")
	default:
		return apperr.Forbidden("insufficient role for this action")
	}
}
