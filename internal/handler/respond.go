package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/pkg/apperr"
)

// respondError maps a service error to its HTTP status and JSON body
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	body := model.ErrorResponse{
		Error: err.Error(),
		Code:  string(apperr.CodeOf(err)),
	}
	if status == http.StatusInternalServerError {
		body.Error = "Internal server error"
	}
	c.JSON(status, body)
}

// currentUserID returns the authenticated user injected by the auth middleware
func currentUserID(c *gin.Context) uuid.UUID {
	return c.MustGet("user_id").(uuid.UUID)
}

// pathUUID parses a UUID path parameter, responding 400 on failure
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
