package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docflow/internal/logger"
	"docflow/internal/middleware"
	"docflow/internal/service"
	"docflow/pkg/response"
)

// errorStatus maps a service error kind to its HTTP status and code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// respondError renders err in the response envelope. Unexpected errors are
// logged and hidden from the caller.
func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", zap.Error(err))
		msg = "Internal server error"
	}
	c.JSON(status, response.ErrorWithCode(status, code, msg))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, "BAD_REQUEST", msg))
}

// pathID parses the :id parameter.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid document id")
		return uuid.Nil, false
	}
	return id, true
}

// currentUser reads the authenticated user placed by middleware.RequireRole.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.ErrorWithCode(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized"))
		return uuid.Nil, false
	}
	return id, true
}
