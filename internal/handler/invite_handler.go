package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/internal/service"
)

// InviteHandler handles invite link HTTP endpoints
type InviteHandler struct {
	inviteService *service.InviteService
}

func NewInviteHandler(inviteService *service.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// CreateInvite godoc
// @Summary Create an invite link for a group or channel
// @Tags Invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body model.CreateInviteRequest true "Optional usage limit and TTL"
// @Success 201 {object} model.InviteLink
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{id}/invites [post]
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.CreateInviteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
			return
		}
	}

	link, err := h.inviteService.Create(currentUserID(c), convID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, link)
}

// ListInvites godoc
// @Summary List the invite links of a conversation
// @Tags Invites
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {array} model.InviteLink
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{id}/invites [get]
func (h *InviteHandler) ListInvites(c *gin.Context) {
	convID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	links, err := h.inviteService.List(currentUserID(c), convID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, links)
}

// RedeemInvite godoc
// @Summary Join a conversation through an invite link
// @Tags Invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.RedeemInviteRequest true "Invite code"
// @Success 200 {object} model.Conversation
// @Failure 400 {object} model.ErrorResponse
// @Router /invites/redeem [post]
func (h *InviteHandler) RedeemInvite(c *gin.Context) {
	var req model.RedeemInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	conv, err := h.inviteService.Redeem(currentUserID(c), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// RevokeInvite godoc
// @Summary Revoke an invite link
// @Tags Invites
// @Produce json
// @Security BearerAuth
// @Param code path string true "Invite code"
// @Success 200 {object} model.SuccessResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /invites/{code} [delete]
func (h *InviteHandler) RevokeInvite(c *gin.Context) {
	if err := h.inviteService.Revoke(currentUserID(c), c.Param("code")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Invite revoked"})
}
