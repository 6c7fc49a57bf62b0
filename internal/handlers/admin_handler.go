package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pazargate/internal/dto"
	"pazargate/internal/middleware"
	"pazargate/internal/models"
	"pazargate/internal/repositories"
	"pazargate/internal/services"
	"pazargate/pkg/logger"
	"pazargate/pkg/response"
)

// AdminHandler exposes the moderation queue and administrative session
// control. All routes require a staff token.
type AdminHandler struct {
	flags        *repositories.SafetyRepository
	sessionsRepo *repositories.SessionRepository
	sessions     *services.SessionManager
	logger       *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	flags *repositories.SafetyRepository,
	sessionsRepo *repositories.SessionRepository,
	sessions *services.SessionManager,
	log *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		flags:        flags,
		sessionsRepo: sessionsRepo,
		sessions:     sessions,
		logger:       log,
	}
}

// ListSafetyFlags returns the moderation queue filtered by status
// GET /api/v1/admin/safety-flags
func (h *AdminHandler) ListSafetyFlags(c *gin.Context) {
	var req dto.ListSafetyFlagsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if err := req.Validate(); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	flags, err := h.flags.ListByStatus(c.Request.Context(), models.FlagStatus(req.Status), req.Limit)
	if err != nil {
		h.logger.Error("failed to list safety flags: %v", err)
		response.InternalError(c, "Failed to list safety flags")
		return
	}

	var resp dto.SafetyFlagListResponse
	resp.FromFlags(flags)
	response.Success(c, &resp)
}

// ReviewSafetyFlag records a moderator decision on a flag
// POST /api/v1/admin/safety-flags/:id/review
func (h *AdminHandler) ReviewSafetyFlag(c *gin.Context) {
	flagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid flag ID")
		return
	}

	var req dto.ReviewSafetyFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	reviewerID, err := middleware.GetUserID(c)
	if err != nil {
		response.Unauthorized(c, "Authentication required")
		return
	}

	flag, err := h.flags.GetByID(c.Request.Context(), flagID)
	if err != nil {
		h.logger.Error("failed to load safety flag %s: %v", flagID, err)
		response.InternalError(c, "Failed to load safety flag")
		return
	}
	if flag == nil {
		response.NotFound(c, "Safety flag not found")
		return
	}

	flag.Review(models.FlagStatus(req.Status), reviewerID, req.Notes, time.Now().UTC())
	if err := h.flags.Update(c.Request.Context(), flag); err != nil {
		h.logger.Error("failed to update safety flag %s: %v", flagID, err)
		response.InternalError(c, "Failed to update safety flag")
		return
	}

	var resp dto.SafetyFlagResponse
	resp.FromFlag(flag)
	response.Success(c, &resp)
}

// EndSession terminates a session administratively
// POST /api/v1/admin/sessions/:id/end
func (h *AdminHandler) EndSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid session ID")
		return
	}

	var req dto.EndSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	session, err := h.sessionsRepo.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load session %s: %v", sessionID, err)
		response.InternalError(c, "Failed to load session")
		return
	}
	if session == nil {
		response.NotFound(c, "Session not found")
		return
	}

	if err := h.sessions.End(c.Request.Context(), sessionID, models.EndReason(req.Reason)); err != nil {
		h.logger.Error("failed to end session %s: %v", sessionID, err)
		response.InternalError(c, "Failed to end session")
		return
	}

	ended, err := h.sessionsRepo.GetByID(c.Request.Context(), sessionID)
	if err != nil || ended == nil {
		response.Success(c, gin.H{"id": sessionID, "ended": true})
		return
	}

	var resp dto.SessionResponse
	resp.FromSession(ended, time.Now().UTC())
	response.Success(c, &resp)
}
