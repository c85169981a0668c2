package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/internal/service"
)

// MessageHandler handles message, reaction and read-receipt HTTP endpoints
type MessageHandler struct {
	msgService      *service.MessageService
	reactionService *service.ReactionService
	readService     *service.ReadService
}

func NewMessageHandler(msgService *service.MessageService, reactionService *service.ReactionService, readService *service.ReadService) *MessageHandler {
	return &MessageHandler{
		msgService:      msgService,
		reactionService: reactionService,
		readService:     readService,
	}
}

// SendMessage godoc
// @Summary Send a message to a conversation
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body model.SendMessageRequest true "Send message request"
// @Success 201 {object} model.Message
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{id}/messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	msg, err := h.msgService.Send(currentUserID(c), convID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// GetMessages godoc
// @Summary Get messages for a conversation
// @Description Returns the caller's visible slice, newest first. Use the before cursor for older pages.
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param before query string false "Cursor: message ID to get messages before"
// @Param limit query int false "Number of messages to return (default: 50)"
// @Success 200 {array} model.MessageResponse
// @Router /conversations/{id}/messages [get]
func (h *MessageHandler) GetMessages(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.MessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request"})
		return
	}

	var before *uuid.UUID
	if req.Before != "" {
		parsed, err := uuid.Parse(req.Before)
		if err == nil {
			before = &parsed
		}
	}

	messages, err := h.msgService.List(currentUserID(c), convID, before, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// GetMessage godoc
// @Summary Get a single message
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} model.MessageResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /messages/{id} [get]
func (h *MessageHandler) GetMessage(c *gin.Context) {
	msgID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	msg, err := h.msgService.Get(currentUserID(c), msgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

// EditMessage godoc
// @Summary Edit your own message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Param body body model.EditMessageRequest true "New content"
// @Success 200 {object} model.Message
// @Failure 403 {object} model.ErrorResponse
// @Router /messages/{id} [patch]
func (h *MessageHandler) EditMessage(c *gin.Context) {
	msgID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	msg, err := h.msgService.Edit(currentUserID(c), msgID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

// DeleteMessage godoc
// @Summary Delete a message for yourself or for everyone
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Param for_all query bool false "Delete for everyone"
// @Success 200 {object} model.SuccessResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /messages/{id} [delete]
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	msgID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	userID := currentUserID(c)
	var err error
	if c.Query("for_all") == "true" {
		err = h.msgService.DeleteForAll(userID, msgID)
	} else {
		err = h.msgService.DeleteForMe(userID, msgID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Message deleted"})
}

// TogglePin godoc
// @Summary Toggle pinning a message
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} model.Message
// @Failure 403 {object} model.ErrorResponse
// @Router /messages/{id}/pin [post]
func (h *MessageHandler) TogglePin(c *gin.Context) {
	msgID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	msg, err := h.msgService.TogglePin(currentUserID(c), msgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

// ForwardMessage godoc
// @Summary Forward a message to other conversations
// @Description Targets the caller cannot post to are skipped, not failed.
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Param body body model.ForwardMessageRequest true "Target conversations"
// @Success 200 {array} model.Message
// @Failure 404 {object} model.ErrorResponse
// @Router /messages/{id}/forward [post]
func (h *MessageHandler) ForwardMessage(c *gin.Context) {
	msgID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.ForwardMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	messages, err := h.msgService.Forward(currentUserID(c), msgID, req.ConversationIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// ToggleReaction godoc
// @Summary Toggle your reaction on a message
// @Description Same emoji removes the reaction, a different emoji replaces it. Returns the full reaction set.
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Param body body model.ToggleReactionRequest true "Emoji"
// @Success 200 {array} model.Reaction
// @Failure 403 {object} model.ErrorResponse
// @Router /messages/{id}/reactions [post]
func (h *MessageHandler) ToggleReaction(c *gin.Context) {
	msgID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	reactions, err := h.reactionService.Toggle(currentUserID(c), msgID, req.Emoji)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reactions)
}

// IncrementViews godoc
// @Summary Record channel message views
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.IncrementViewsRequest true "Viewed message IDs"
// @Success 200 {object} model.SuccessResponse
// @Router /messages/views [post]
func (h *MessageHandler) IncrementViews(c *gin.Context) {
	var req model.IncrementViewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	if err := h.readService.IncrementViews(currentUserID(c), req.MessageIDs); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Views recorded"})
}
