package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pazargate/internal/apperr"
	"pazargate/internal/config"
	"pazargate/internal/models"
	"pazargate/pkg/logger"
)

// AgentAuthContext identifies the authenticated caller to the agent
type AgentAuthContext struct {
	UserID           string    `json:"user_id"`
	Authenticated    bool      `json:"authenticated"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

// AgentConversationState carries the cross-turn dialogue state
type AgentConversationState struct {
	Mode            string `json:"mode"`
	ActiveListingID string `json:"active_listing_id,omitempty"`
	LastIntent      string `json:"last_intent"`
}

// AgentRequest is the boundary contract toward the agent backend.
// Vision is the safety classifier's opaque product snapshot for the
// turn's image, when one was attached.
type AgentRequest struct {
	UserID              string                 `json:"user_id"`
	Phone               string                 `json:"phone,omitempty"`
	Message             string                 `json:"message"`
	ConversationHistory []string               `json:"conversation_history"`
	MediaPaths          []string               `json:"media_paths"`
	Vision              models.VisionProduct   `json:"vision,omitempty"`
	AuthContext         AgentAuthContext       `json:"auth_context"`
	ConversationState   AgentConversationState `json:"conversation_state"`
}

// AgentResponse is the agent backend's reply envelope. The
// OperationComplete field, when present, wins over the intent-stem
// heuristic for ending the session.
type AgentResponse struct {
	Response          string `json:"response"`
	Intent            string `json:"intent"`
	Success           bool   `json:"success"`
	OperationComplete *bool  `json:"operation_complete,omitempty"`
}

// SignalsCompletion reports whether the reply should end the session
// with reason operation_completed
func (r *AgentResponse) SignalsCompletion() bool {
	if r.OperationComplete != nil {
		return *r.OperationComplete
	}
	return strings.Contains(strings.ToLower(r.Intent), "complet")
}

// AgentClient forwards non-listing turns to the downstream agent
// backend over HTTP
type AgentClient struct {
	client *http.Client
	cfg    config.AgentConfig
	logger *logger.Logger
}

// NewAgentClient creates a new agent client
func NewAgentClient(cfg config.AgentConfig, log *logger.Logger) *AgentClient {
	return &AgentClient{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: log,
	}
}

// Send forwards one turn and returns the agent's reply
func (c *AgentClient) Send(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
	const op = "agent_client.send"

	if c.cfg.BackendURL == "" {
		return nil, apperr.E(apperr.KindExternalUnavailable, op, "agent backend not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperr.E(apperr.KindExternalUnavailable, op, "", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BackendURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.E(apperr.KindExternalUnavailable, op, "", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.E(apperr.KindTimeout, op, "", err)
		}
		return nil, apperr.E(apperr.KindExternalUnavailable, op, "", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, apperr.E(apperr.KindExternalUnavailable, op, fmt.Sprintf("status %d", httpResp.StatusCode), nil)
	}

	var resp AgentResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, apperr.E(apperr.KindExternalUnavailable, op, "malformed agent response", err)
	}

	return &resp, nil
}
