package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pazargate/internal/config"
	"pazargate/internal/dto"
	"pazargate/internal/services"
	"pazargate/pkg/logger"
)

// WSHandler serves the web-chat transport. Each text frame carries one
// turn request and gets exactly one turn response frame back; framing
// errors are answered in-band so the dialogue survives a bad message.
type WSHandler struct {
	controller *services.Controller
	cfg        config.WebSocketConfig
	upgrader   websocket.Upgrader
	logger     *logger.Logger
}

// NewWSHandler creates a new websocket handler
func NewWSHandler(controller *services.Controller, cfg config.WebSocketConfig, log *logger.Logger) *WSHandler {
	return &WSHandler{
		controller: controller,
		cfg:        cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			// Origin is enforced by the CORS layer in front of the upgrade
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Serve upgrades the connection and runs the turn loop
// GET /api/v1/ws
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	write := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
		return conn.WriteJSON(v)
	}

	readWindow := h.cfg.PingInterval + h.cfg.PongTimeout
	conn.SetReadDeadline(time.Now().Add(readWindow))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readWindow))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(conn, &writeMu, done)

	for {
		var req dto.TurnRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed: %v", err)
			}
			return
		}

		if err := req.Validate(); err != nil {
			if werr := write(gin.H{"success": false, "error": err.Error()}); werr != nil {
				return
			}
			continue
		}

		turn := &services.Turn{
			Phone:     req.Phone,
			Text:      req.Text,
			ImageRefs: req.ImageRefs,
			Transport: "web",
		}
		reply := h.controller.Handle(c.Request.Context(), turn)

		if err := write(toTurnResponse(reply)); err != nil {
			h.logger.Warn("websocket write failed: %v", err)
			return
		}
	}
}

func (h *WSHandler) pingLoop(conn *websocket.Conn, writeMu *sync.Mutex, done <-chan struct{}) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
