package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pazargate/internal/dto"
	"pazargate/internal/middleware"
	"pazargate/internal/services"
	"pazargate/pkg/logger"
	"pazargate/pkg/response"
)

// TurnHandler exposes the conversational turn endpoint. Domain
// outcomes (wrong PIN, locked account, blocked image) come back as
// HTTP 200 with the explanation in reply_text; only malformed requests
// and infrastructure faults map to error statuses.
type TurnHandler struct {
	controller *services.Controller
	logger     *logger.Logger
}

// NewTurnHandler creates a new turn handler
func NewTurnHandler(controller *services.Controller, log *logger.Logger) *TurnHandler {
	return &TurnHandler{controller: controller, logger: log}
}

// HandleTurn processes one inbound turn
// POST /api/v1/turn
func (h *TurnHandler) HandleTurn(c *gin.Context) {
	var req dto.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	turn := &services.Turn{
		Phone:     req.Phone,
		Text:      req.Text,
		ImageRefs: req.ImageRefs,
		Transport: req.Transport,
	}
	if userID, err := middleware.GetUserID(c); err == nil && userID != uuid.Nil {
		turn.UserID = &userID
	}

	reply := h.controller.Handle(c.Request.Context(), turn)

	response.Success(c, toTurnResponse(reply))
}

func toTurnResponse(reply *services.TurnReply) *dto.TurnResponse {
	return &dto.TurnResponse{
		ReplyText:    reply.ReplyText,
		Intent:       string(reply.Intent),
		SessionToken: reply.SessionToken,
		ListingID:    reply.ListingID,
		Success:      reply.Success,
		EndReason:    string(reply.EndReason),
	}
}
