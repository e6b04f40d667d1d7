package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/application/checkout"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// Success sends a success response.
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.OK(data))
}

// SuccessWithMeta sends a success response with pagination meta.
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.Paged(data, total, page, pageSize))
}

// Created sends a 201 created response.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.OK(data))
}

// NoContent sends a 204 no content response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code.
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.Fail(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response.
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response.
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response.
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts service errors to HTTP responses.
// A SubmissionError only ever shows its generic message; the cause is logged.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	ctx := c.Request.Context()
	requestID := middleware.GetRequestID(c)

	var subErr *checkout.SubmissionError
	if errors.As(err, &subErr) {
		logger.L(ctx).Warn("Order submission failed", zap.Error(subErr.Cause))
		c.JSON(http.StatusBadGateway, dto.Fail(
			dto.ErrCodeSubmissionFailed, checkout.SubmissionFailedMessage, requestID))
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.Fail(code, domainErr.Message, requestID))
		return
	}

	if errors.Is(err, context.Canceled) {
		// Client went away; nobody reads this
		c.Status(499)
		return
	}

	logger.L(ctx).Error("Unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.Fail(
		dto.ErrCodeInternal, "An unexpected error occurred", requestID))
}

// tenantID returns the tenant resolved by middleware. Routes are only
// mounted behind tenant resolving middleware, so a miss is a wiring bug.
func (h *BaseHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetTenantID(c)
	if !ok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Tenant identification required")
	}
	return id, ok
}

// cartSession returns the cart session id set by middleware.
func (h *BaseHandler) cartSession(c *gin.Context) (string, bool) {
	session := middleware.GetCartSession(c)
	if session == "" {
		h.BadRequest(c, "Cart session required")
		return "", false
	}
	return session, true
}

// uuidParam parses a UUID path parameter, answering 400 when malformed.
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds and validates a JSON body, answering 400 on failure.
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds and validates query parameters, answering 400 on failure.
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}
