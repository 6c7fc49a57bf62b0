package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pazargate/internal/apperr"
	"pazargate/internal/dto"
	"pazargate/internal/middleware"
	"pazargate/internal/services"
	"pazargate/pkg/logger"
	"pazargate/pkg/response"
)

// AuthHandler exposes PIN registration for the web flow
type AuthHandler struct {
	pins   *services.PinAuthService
	logger *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(pins *services.PinAuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{pins: pins, logger: log}
}

// RegisterPin stores or replaces the caller's PIN
// POST /api/v1/auth/pin
func (h *AuthHandler) RegisterPin(c *gin.Context) {
	callerID, err := middleware.GetUserID(c)
	if err != nil {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.RegisterPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	targetID := callerID
	if req.UserID != "" {
		parsed, perr := uuid.Parse(req.UserID)
		if perr != nil {
			response.UnprocessableEntity(c, "user_id must be a UUID")
			return
		}
		targetID = parsed
	}

	if err := h.pins.Register(c.Request.Context(), callerID, targetID, req.Phone, req.Pin); err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindUnauthorized:
			response.Forbidden(c, "Cannot register a PIN for another user")
		case apperr.KindValidation:
			response.UnprocessableEntity(c, "PIN must be 4-6 digits")
		default:
			h.logger.Error("pin registration failed for %s: %v", req.Phone, err)
			response.InternalError(c, "Failed to register PIN")
		}
		return
	}

	response.SuccessWithMessage(c, "PIN registered", &dto.RegisterPinResponse{
		Phone:        req.Phone,
		RegisteredAt: time.Now().UTC(),
	})
}
