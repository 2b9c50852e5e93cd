package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/logger"
	"github.com/tyrefleet/backend/internal/interfaces/http/dto"
	"github.com/tyrefleet/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response carrying list metadata
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, meta dto.Meta) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, meta))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(&dto.ErrorInfo{
		Code:      dto.ErrCodeBadRequest,
		Message:   message,
		RequestID: requestID(c),
	}))
}

// BindError answers a failed ShouldBind with per-field details when the body was
// well-formed JSON that broke a binding rule
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	info := &dto.ErrorInfo{
		Code:      shared.CodeInvalidInput,
		Kind:      string(shared.KindValidation),
		Message:   "request validation failed",
		RequestID: requestID(c),
		Details:   middleware.ValidationDetails(err),
	}
	if info.Details == nil {
		info.Message = err.Error()
	}
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(info))
}

// HandleError maps a service error to its status and body. Unexpected errors are
// logged with the request logger before the generic 500 goes out.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status := dto.GetHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("request failed", zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, dto.NewErrorResponse(dto.ErrorInfoFrom(err, requestID(c))))
}

// actor returns the authenticated actor or answers 401
func (h *BaseHandler) actor(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(&dto.ErrorInfo{
			Code:      dto.ErrCodeUnauthorized,
			Message:   "authentication required",
			RequestID: requestID(c),
		}))
	}
	return id, ok
}

// pathID parses a uuid path parameter or answers 400
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt64 parses an optional integer query parameter
func queryInt64(c *gin.Context, name string, def int64) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}

// bindOptionalJSON binds a JSON body; an empty body is validated as the zero request
func bindOptionalJSON(c *gin.Context, req any) error {
	if c.Request.ContentLength == 0 {
		return binding.Validator.ValidateStruct(req)
	}
	return c.ShouldBindJSON(req)
}

func requestID(c *gin.Context) string {
	return logger.GetRequestID(c.Request.Context())
}
