package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gronit/club-portal/backend-club/internal/service"
	"github.com/gronit/club-portal/pkg/logger"
	"github.com/gronit/club-portal/pkg/response"
)

// respondError maps service errors onto the response envelope. Errors it
// does not recognise are logged and reported as failMsg.
func respondError(c *gin.Context, err error, failMsg string) {
	code, msg := classify(err)
	if code == response.ErrCodeInternalError {
		logger.ErrorCtx(c.Request.Context(), failMsg, zap.Error(err))
		msg = failMsg
	}
	c.JSON(response.Status(code), response.Error(code, msg))
}

func classify(err error) (code, msg string) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return response.ErrCodeNotFound, "Event not found"
	case errors.Is(err, service.ErrBlogNotFound):
		return response.ErrCodeNotFound, "Blog not found"
	case errors.Is(err, service.ErrMemberNotFound):
		return response.ErrCodeNotFound, "Team member not found"
	case errors.Is(err, service.ErrAdminNotFound):
		return response.ErrCodeNotFound, "Admin user not found"
	case errors.Is(err, service.ErrAdminAlreadyExists):
		return response.ErrCodeAlreadyExists, "An account with this email already exists"
	case errors.Is(err, service.ErrImageRequired):
		return response.ErrCodeImageRequired, "Image is required"
	case errors.Is(err, service.ErrInvalidImage):
		return response.ErrCodeInvalidImage, err.Error()
	case errors.Is(err, errImageTooLarge):
		return response.ErrCodePayloadTooLarge, "Image is too large"
	case errors.Is(err, errBodyTooLarge):
		return response.ErrCodePayloadTooLarge, "Request body is too large"
	case errors.Is(err, service.ErrInvalidInput):
		return response.ErrCodeBadRequest, strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
	default:
		return response.ErrCodeInternalError, ""
	}
}
