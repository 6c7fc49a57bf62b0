package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pazargate/internal/apperr"
	"pazargate/internal/cache"
	"pazargate/internal/config"
	"pazargate/internal/metrics"
	"pazargate/internal/models"
	"pazargate/pkg/logger"
)

// ProfileStore is the read surface the controller needs for profiles
type ProfileStore interface {
	GetByPhone(ctx context.Context, phone string) (*models.Profile, error)
}

// Turn is one inbound message
type Turn struct {
	Phone     string
	UserID    *uuid.UUID
	Text      string
	ImageRefs []string
	Transport string
}

// TurnReply is the envelope sent back to the transport
type TurnReply struct {
	ReplyText    string           `json:"reply_text"`
	Intent       models.Intent    `json:"intent,omitempty"`
	SessionToken string           `json:"session_token,omitempty"`
	ListingID    string           `json:"listing_id,omitempty"`
	Success      bool             `json:"success"`
	EndReason    models.EndReason `json:"end_reason,omitempty"`
}

// requestContext is the immutable identity threaded through one turn;
// nothing about the current caller lives in package state
type requestContext struct {
	userID       uuid.UUID
	phone        string
	sessionToken string
	transport    string
}

// Controller orchestrates one inbound turn:
// safety gate, session lookup, PIN verification, cancel handling,
// intent routing and dispatch to the draft FSM or the agent backend.
// It is the only component that formats user-visible Turkish.
type Controller struct {
	pins     *PinAuthService
	sessions *SessionManager
	safety   *SafetyGate
	router   *IntentRouter
	fsm      *DraftFSM
	agent    *AgentClient
	profiles ProfileStore
	states   cache.Store
	metrics  *metrics.Metrics
	logger   *logger.Logger
	locks    *phoneLock
	deadline time.Duration
}

// NewController creates a new turn controller
func NewController(
	pins *PinAuthService,
	sessions *SessionManager,
	safety *SafetyGate,
	router *IntentRouter,
	fsm *DraftFSM,
	agent *AgentClient,
	profiles ProfileStore,
	states cache.Store,
	m *metrics.Metrics,
	cfg config.TurnConfig,
	log *logger.Logger,
) *Controller {
	c := &Controller{
		pins:     pins,
		sessions: sessions,
		safety:   safety,
		router:   router,
		fsm:      fsm,
		agent:    agent,
		profiles: profiles,
		states:   states,
		metrics:  m,
		logger:   log,
		locks:    newPhoneLock(),
		deadline: cfg.Deadline,
	}

	// Timed-out sessions drop their draft and conversation state like
	// any other session end
	sessions.SetOnEnd(c.onSessionEnd)

	return c
}

// onSessionEnd runs when the session manager times a session out
func (c *Controller) onSessionEnd(ctx context.Context, session *models.Session, _ models.EndReason) {
	c.fsm.CancelSilent(ctx, session.UserID)
	c.clearState(ctx, session.Phone)
}

// Handle processes one turn under the per-phone lock and the turn
// deadline. Same-phone turns serialize in arrival order; different
// phones proceed in parallel.
func (c *Controller) Handle(ctx context.Context, turn *Turn) *TurnReply {
	start := time.Now()

	unlock := c.locks.Acquire(turn.Phone)
	if c.metrics != nil {
		c.metrics.ActivePhoneLocks.Inc()
	}
	defer func() {
		unlock()
		if c.metrics != nil {
			c.metrics.ActivePhoneLocks.Dec()
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	reply := c.handle(ctx, turn)

	c.metrics.RecordTurn(turn.Transport, string(reply.Intent), time.Since(start))
	return reply
}

func (c *Controller) handle(ctx context.Context, turn *Turn) *TurnReply {
	// 1. Safety gate short-circuits before anything else. A Safe
	// verdict's product snapshot rides along to the draft and the agent.
	var vision models.VisionProduct
	if len(turn.ImageRefs) > 0 {
		verdict, err := c.safety.Evaluate(ctx, turn.UserID, turn.ImageRefs)
		if err != nil {
			c.logger.Error("safety gate failed for %s: %v", turn.Phone, err)
			return c.genericError()
		}
		if verdict.Safe {
			c.metrics.RecordSafetyVerdict("safe", string(models.FlagTypeNone))
			if len(verdict.Product) > 0 {
				vision = models.VisionProduct(verdict.Product)
			}
		} else {
			c.metrics.RecordSafetyVerdict("blocked", string(verdict.FlagType))
			return &TurnReply{
				ReplyText: msgSafetyBlocked(verdict),
				Success:   false,
			}
		}
	}

	// 2. Session lookup (lazy timeout happens inside)
	session, err := c.sessions.Current(ctx, turn.Phone)
	if err != nil {
		c.logger.Error("session lookup failed for %s: %v", turn.Phone, err)
		return c.genericError()
	}

	// 3. No session: either a PIN entry or the PIN prompt
	if session == nil {
		if IsPinShaped(strings.TrimSpace(turn.Text)) {
			return c.handlePinEntry(ctx, turn)
		}
		return &TurnReply{ReplyText: msgPinPrompt, Success: true}
	}

	// 4. Record activity; expiry stays absolute
	if err := c.sessions.Touch(ctx, session.ID); err != nil {
		c.logger.Warn("session touch failed for %s: %v", session.ID, err)
	}

	rc := requestContext{
		userID:       session.UserID,
		phone:        turn.Phone,
		sessionToken: session.Token,
		transport:    turn.Transport,
	}

	draft, err := c.fsm.Active(ctx, rc.userID)
	if err != nil {
		c.logger.Error("draft lookup failed for %s: %v", rc.userID, err)
		return c.genericError()
	}

	// 5. Cancel keywords: with a draft they cancel the draft, without
	// one they end the session
	if c.router.IsCancel(turn.Text) {
		if draft != nil {
			if _, err := c.fsm.Cancel(ctx, rc.userID); err != nil {
				return c.genericError()
			}
			return &TurnReply{ReplyText: msgDraftCancelled, Intent: models.IntentCancel, Success: true, SessionToken: rc.sessionToken}
		}
		return c.endSession(ctx, rc, session.ID, models.EndReasonUserCancelled, msgSessionCancelled)
	}

	// Pending delete confirmation from the previous turn
	state := c.loadState(ctx, rc.phone)
	if state.PendingDeleteID != "" {
		if reply := c.handlePendingDelete(ctx, rc, state, turn.Text); reply != nil {
			return reply
		}
	}

	// 6. Route
	intent := c.router.Classify(turn.Text, draft != nil)

	var reply *TurnReply
	switch {
	case intent == models.IntentDeleteListing:
		reply = c.handleDelete(ctx, rc, state, turn.Text)
	case intent.IsListingFlow():
		reply = c.handleListingFlow(ctx, rc, intent, turn, vision)
	case intent == models.IntentCancel:
		reply = c.endSession(ctx, rc, session.ID, models.EndReasonUserCancelled, msgSessionCancelled)
	default:
		reply = c.forwardToAgent(ctx, rc, session, state, intent, turn, vision)
	}

	reply.Intent = intent
	if reply.SessionToken == "" && reply.EndReason == "" {
		reply.SessionToken = rc.sessionToken
	}

	state.LastIntent = string(intent)
	state.Mode = c.modeFor(ctx, rc.userID)
	c.saveState(ctx, rc.phone, state)

	return reply
}

// handlePinEntry verifies a PIN-shaped message and opens the session
func (c *Controller) handlePinEntry(ctx context.Context, turn *Turn) *TurnReply {
	result, err := c.pins.Verify(ctx, turn.Phone, strings.TrimSpace(turn.Text), turn.Transport)
	if err != nil {
		c.logger.Error("pin verify failed for %s: %v", turn.Phone, err)
		c.metrics.RecordPinVerification("error")
		return c.genericError()
	}

	switch result.Outcome {
	case VerifySuccess:
		c.metrics.RecordPinVerification("success")
		session, err := c.sessions.Open(ctx, result.UserID, turn.Phone)
		if err != nil {
			c.logger.Error("session open failed for %s: %v", turn.Phone, err)
			return c.genericError()
		}
		return &TurnReply{
			ReplyText:    msgLoginSuccess(c.sessions.TTL()),
			SessionToken: session.Token,
			Success:      true,
		}
	case VerifyInvalid:
		c.metrics.RecordPinVerification("invalid")
		return &TurnReply{ReplyText: msgPinInvalid(result.Remaining)}
	case VerifyLocked:
		c.metrics.RecordPinVerification("locked")
		return &TurnReply{ReplyText: msgPinLocked(result.BlockedUntil)}
	default:
		c.metrics.RecordPinVerification("not_registered")
		return &TurnReply{ReplyText: msgNotRegistered}
	}
}

// handleListingFlow dispatches create/update/publish to the FSM and
// formats its structured outcome
func (c *Controller) handleListingFlow(ctx context.Context, rc requestContext, intent models.Intent, turn *Turn, vision models.VisionProduct) *TurnReply {
	result, err := c.fsm.Step(ctx, rc.userID, intent, turn.Text, turn.ImageRefs, vision)
	if err != nil {
		return c.listingError(err)
	}

	switch result.Outcome {
	case OutcomePreview:
		return &TurnReply{ReplyText: msgPreview(result.Draft), Success: true}
	case OutcomeDraftUpdated, OutcomeMissingFields:
		return &TurnReply{ReplyText: msgDraftProgress(result.Missing), Success: true}
	case OutcomePublished:
		return &TurnReply{
			ReplyText: fmt.Sprintf("🎉 İlanınız yayında! İlan numarası: %s", result.ListingID),
			ListingID: result.ListingID.String(),
			Success:   true,
		}
	case OutcomeNoDraft:
		return &TurnReply{ReplyText: "Aktif bir ilan taslağınız yok. İlan vermek için ürününüzü anlatın."}
	default:
		return c.genericError()
	}
}

// handleDelete starts the delete flow over the user's listings
func (c *Controller) handleDelete(ctx context.Context, rc requestContext, state *cache.ConversationState, text string) *TurnReply {
	result, err := c.fsm.StartDelete(ctx, rc.userID, text)
	if err != nil {
		return c.listingError(err)
	}

	switch result.Outcome {
	case OutcomeDeleteEmpty:
		return &TurnReply{ReplyText: "Yayında ilanınız bulunmuyor."}
	case OutcomeDeleteConfirm:
		state.PendingDeleteID = result.Target.ID.String()
		return &TurnReply{
			ReplyText: fmt.Sprintf("🗑️ \"%s\" ilanını silmek istediğinize emin misiniz? (evet / hayır)", result.Target.Title),
			Success:   true,
		}
	default:
		return &TurnReply{ReplyText: msgListingChoices(result.Listings), Success: true}
	}
}

// handlePendingDelete resolves a confirmation turn for a queued
// delete. Returns nil when the turn should fall through to routing.
func (c *Controller) handlePendingDelete(ctx context.Context, rc requestContext, state *cache.ConversationState, text string) *TurnReply {
	listingID, err := uuid.Parse(state.PendingDeleteID)
	state.PendingDeleteID = ""
	if err != nil {
		return nil
	}

	// Anything but an explicit confirmation drops the pending delete
	if !c.router.IsConfirm(text) {
		c.saveState(ctx, rc.phone, state)
		return nil
	}

	result, rerr := c.fsm.ResolveDelete(ctx, rc.userID, listingID)
	if rerr != nil {
		return c.listingError(rerr)
	}
	if result.Outcome == OutcomeDeleted {
		c.saveState(ctx, rc.phone, state)
		return &TurnReply{ReplyText: "🗑️ İlanınız silindi.", Intent: models.IntentDeleteListing, Success: true, SessionToken: rc.sessionToken}
	}
	return &TurnReply{ReplyText: "Silinecek ilan bulunamadı.", Intent: models.IntentDeleteListing, SessionToken: rc.sessionToken}
}

// forwardToAgent sends non-listing turns downstream
func (c *Controller) forwardToAgent(ctx context.Context, rc requestContext, session *models.Session, state *cache.ConversationState, intent models.Intent, turn *Turn, vision models.VisionProduct) *TurnReply {
	req := &AgentRequest{
		UserID:     rc.userID.String(),
		Phone:      rc.phone,
		Message:    turn.Text,
		MediaPaths: turn.ImageRefs,
		Vision:     vision,
		AuthContext: AgentAuthContext{
			UserID:           rc.userID.String(),
			Authenticated:    true,
			SessionExpiresAt: session.ExpiresAt,
		},
		ConversationState: AgentConversationState{
			Mode:            state.Mode,
			ActiveListingID: state.ActiveListingID,
			LastIntent:      string(intent),
		},
	}

	resp, err := c.agent.Send(ctx, req)
	if err != nil {
		c.logger.Warn("agent backend unavailable for %s: %v", rc.phone, err)
		return &TurnReply{ReplyText: msgAgentUnavailable}
	}

	reply := &TurnReply{ReplyText: resp.Response, Success: resp.Success}

	// Completion signal ends the session with operation_completed
	if resp.SignalsCompletion() {
		if err := c.sessions.End(ctx, session.ID, models.EndReasonOperationCompleted); err != nil {
			c.logger.Error("failed to end session %s on completion: %v", session.ID, err)
		} else {
			c.metrics.RecordSessionEnd(string(models.EndReasonOperationCompleted))
			c.fsm.CancelSilent(ctx, rc.userID)
			c.clearState(ctx, rc.phone)
			reply.EndReason = models.EndReasonOperationCompleted
		}
	}

	return reply
}

// endSession ends the session, drops any draft and conversation state
func (c *Controller) endSession(ctx context.Context, rc requestContext, sessionID uuid.UUID, reason models.EndReason, message string) *TurnReply {
	if err := c.sessions.End(ctx, sessionID, reason); err != nil {
		c.logger.Error("failed to end session %s: %v", sessionID, err)
		return c.genericError()
	}
	c.metrics.RecordSessionEnd(string(reason))
	c.fsm.CancelSilent(ctx, rc.userID)
	c.clearState(ctx, rc.phone)

	return &TurnReply{
		ReplyText: message,
		Intent:    models.IntentCancel,
		Success:   true,
		EndReason: reason,
	}
}

// listingError maps publish/delete failures to Turkish
func (c *Controller) listingError(err error) *TurnReply {
	c.logger.Error("listing operation failed: %v", err)
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return &TurnReply{ReplyText: "⚠️ İlan bilgileri geçersiz, lütfen kontrol edip tekrar deneyin."}
	case apperr.KindIntegrity:
		return &TurnReply{ReplyText: "⚠️ Bu ilan kaydedilemedi, lütfen bilgileri değiştirip tekrar deneyin."}
	default:
		return c.genericError()
	}
}

func (c *Controller) genericError() *TurnReply {
	return &TurnReply{ReplyText: msgGenericError}
}

// modeFor summarizes the draft stage for the conversation state
func (c *Controller) modeFor(ctx context.Context, userID uuid.UUID) string {
	draft, err := c.fsm.Active(ctx, userID)
	if err != nil || draft == nil {
		return "idle"
	}
	return strings.ToLower(string(draft.State))
}

func (c *Controller) loadState(ctx context.Context, phone string) *cache.ConversationState {
	state, err := c.states.Get(ctx, phone)
	if err != nil {
		c.logger.Warn("conversation state read failed for %s: %v", phone, err)
	}
	if state == nil {
		state = &cache.ConversationState{Mode: "idle"}
	}
	return state
}

func (c *Controller) saveState(ctx context.Context, phone string, state *cache.ConversationState) {
	if err := c.states.Set(ctx, phone, state); err != nil {
		c.logger.Warn("conversation state write failed for %s: %v", phone, err)
	}
}

func (c *Controller) clearState(ctx context.Context, phone string) {
	if err := c.states.Clear(ctx, phone); err != nil {
		c.logger.Warn("conversation state clear failed for %s: %v", phone, err)
	}
}
