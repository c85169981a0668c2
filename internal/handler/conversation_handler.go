package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/internal/service"
)

// ConversationHandler handles conversation and membership HTTP endpoints
type ConversationHandler struct {
	convService *service.ConversationService
	readService *service.ReadService
}

func NewConversationHandler(convService *service.ConversationService, readService *service.ReadService) *ConversationHandler {
	return &ConversationHandler{convService: convService, readService: readService}
}

// GetOrCreateDirect godoc
// @Summary Get or create direct conversation
// @Description Find the existing direct chat with a user, or create it. Passing your own ID yields your favorites chat.
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.DirectConversationRequest true "Partner ID"
// @Success 200 {object} model.Conversation
// @Failure 400 {object} model.ErrorResponse
// @Router /conversations/direct [post]
func (h *ConversationHandler) GetOrCreateDirect(c *gin.Context) {
	var req model.DirectConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	conv, err := h.convService.GetOrCreateDirect(currentUserID(c), req.PartnerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// CreateGroup godoc
// @Summary Create a group conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateGroupRequest true "Create group request"
// @Success 201 {object} model.Conversation
// @Failure 400 {object} model.ErrorResponse
// @Router /conversations/groups [post]
func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	var req model.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	conv, err := h.convService.CreateGroup(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, conv)
}

// CreateChannel godoc
// @Summary Create a channel
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateChannelRequest true "Create channel request"
// @Success 201 {object} model.Conversation
// @Failure 409 {object} model.ErrorResponse
// @Router /conversations/channels [post]
func (h *ConversationHandler) CreateChannel(c *gin.Context) {
	var req model.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	conv, err := h.convService.CreateChannel(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, conv)
}

// JoinChannel godoc
// @Summary Join a channel by slug
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Channel slug"
// @Success 200 {object} model.Conversation
// @Failure 404 {object} model.ErrorResponse
// @Router /channels/{slug}/join [post]
func (h *ConversationHandler) JoinChannel(c *gin.Context) {
	conv, err := h.convService.JoinChannel(currentUserID(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// GetConversations godoc
// @Summary Get all conversations for the current user
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.ConversationResponse
// @Router /conversations [get]
func (h *ConversationHandler) GetConversations(c *gin.Context) {
	conversations, err := h.convService.List(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, conversations)
}

// GetConversation godoc
// @Summary Get a specific conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.ConversationResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /conversations/{id} [get]
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	conv, err := h.convService.Get(currentUserID(c), convID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// GetStats godoc
// @Summary Get conversation statistics within the caller's visible window
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.ConversationStats
// @Router /conversations/{id}/stats [get]
func (h *ConversationHandler) GetStats(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	stats, err := h.convService.Stats(currentUserID(c), convID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetParticipants godoc
// @Summary Get the active participants of a conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {array} model.Participant
// @Router /conversations/{id}/participants [get]
func (h *ConversationHandler) GetParticipants(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	participants, err := h.convService.Participants(currentUserID(c), convID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, participants)
}

// UpdateConversation godoc
// @Summary Update conversation title or avatar
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body model.UpdateConversationRequest true "Fields to update"
// @Success 200 {object} model.Conversation
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{id} [patch]
func (h *ConversationHandler) UpdateConversation(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	conv, err := h.convService.UpdateGroup(currentUserID(c), convID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// AddParticipant godoc
// @Summary Add a participant to a group or channel
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body model.AddParticipantRequest true "User to add"
// @Success 200 {object} model.SuccessResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{id}/participants [post]
func (h *ConversationHandler) AddParticipant(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	if err := h.convService.AddParticipant(currentUserID(c), convID, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Participant added"})
}

// Leave godoc
// @Summary Leave a group or channel
// @Description The last admin of a group or channel with other members must name a successor.
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body model.LeaveRequest false "Optional admin successor"
// @Success 200 {object} model.SuccessResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /conversations/{id}/leave [post]
func (h *ConversationHandler) Leave(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.LeaveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
			return
		}
	}

	if err := h.convService.Leave(currentUserID(c), convID, req.SuccessorID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Left conversation"})
}

// Kick godoc
// @Summary Kick a participant from a group or channel
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body model.KickRequest true "Target user and optional ban"
// @Success 200 {object} model.SuccessResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{id}/kick [post]
func (h *ConversationHandler) Kick(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.KickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	if err := h.convService.Kick(currentUserID(c), convID, req.UserID, req.Ban); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Participant kicked"})
}

// DeleteConversation godoc
// @Summary Delete a conversation for yourself or for everyone
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param for_all query bool false "Delete for everyone"
// @Success 200 {object} model.SuccessResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{id} [delete]
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	userID := currentUserID(c)
	var err error
	if c.Query("for_all") == "true" {
		err = h.convService.DeleteForAll(userID, convID)
	} else {
		err = h.convService.DeleteForMe(userID, convID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Conversation deleted"})
}

// TogglePin godoc
// @Summary Toggle pinning a conversation in your chat list
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{id}/pin [post]
func (h *ConversationHandler) TogglePin(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.convService.TogglePin(currentUserID(c), convID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Pin toggled"})
}

// UpdatePinOrder godoc
// @Summary Set the manual order of a pinned conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body model.PinOrderRequest true "New pin order"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{id}/pin-order [put]
func (h *ConversationHandler) UpdatePinOrder(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.PinOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	if err := h.convService.UpdatePinOrder(currentUserID(c), convID, req.PinOrder); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Pin order updated"})
}

// ToggleArchive godoc
// @Summary Toggle archiving a conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{id}/archive [post]
func (h *ConversationHandler) ToggleArchive(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.convService.ToggleArchive(currentUserID(c), convID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Archive toggled"})
}

// Mute godoc
// @Summary Mute or unmute a conversation, optionally until a deadline
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body model.MuteRequest true "Mute settings"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{id}/mute [post]
func (h *ConversationHandler) Mute(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.MuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	if err := h.convService.ToggleMute(currentUserID(c), convID, req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Mute settings updated"})
}

// MarkAsRead godoc
// @Summary Mark all visible messages in a conversation as read
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{id}/read [post]
func (h *ConversationHandler) MarkAsRead(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.readService.MarkRead(currentUserID(c), convID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Messages marked as read"})
}

// MarkAsUnread godoc
// @Summary Flag a conversation as manually unread
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{id}/unread [post]
func (h *ConversationHandler) MarkAsUnread(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.readService.MarkUnread(currentUserID(c), convID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Conversation marked unread"})
}
