// internal/services/session_manager.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pazargate/internal/config"
	"pazargate/internal/models"
	"pazargate/pkg/logger"
)

// SessionStore is the persistence surface the session manager needs
type SessionStore interface {
	GetActive(ctx context.Context, phone string) (*models.Session, error)
	Open(ctx context.Context, userID uuid.UUID, phone string, ttl time.Duration) (*models.Session, error)
	Touch(ctx context.Context, id uuid.UUID, now time.Time) error
	End(ctx context.Context, id uuid.UUID, reason models.EndReason, now time.Time) error
	SweepExpired(ctx context.Context, now time.Time) ([]*models.Session, error)
}

// SessionManager owns the timed-session lifecycle. Expiry is absolute:
// touch records activity but never moves expires_at, so a session
// always lasts exactly the configured TTL from creation.
type SessionManager struct {
	store    SessionStore
	cfg      config.SessionConfig
	logger   *logger.Logger
	stopChan chan struct{}
	now      func() time.Time
	onEnd    func(ctx context.Context, session *models.Session, reason models.EndReason)
}

// NewSessionManager creates a new session manager
func NewSessionManager(store SessionStore, cfg config.SessionConfig, log *logger.Logger) *SessionManager {
	return &SessionManager{
		store:    store,
		cfg:      cfg,
		logger:   log,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Current returns the unique live session for the phone, or nil. A
// stale active row is lazily transitioned to timeout on the way.
func (m *SessionManager) Current(ctx context.Context, phone string) (*models.Session, error) {
	session, err := m.store.GetActive(ctx, phone)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	now := m.now().UTC()
	if session.IsExpired(now) {
		if err := m.store.End(ctx, session.ID, models.EndReasonTimeout, now); err != nil {
			return nil, err
		}
		m.logger.Debug("session %s timed out lazily", session.ID)
		if m.onEnd != nil {
			m.onEnd(ctx, session, models.EndReasonTimeout)
		}
		return nil, nil
	}

	return session, nil
}

// SetOnEnd registers a callback invoked when the manager itself
// transitions a session to inactive (lazy timeout and the sweeper).
// The controller uses it to drop the user's draft and conversation
// state the same way an explicit cancel does.
func (m *SessionManager) SetOnEnd(fn func(ctx context.Context, session *models.Session, reason models.EndReason)) {
	m.onEnd = fn
}

// Open creates a fresh session for the phone after PIN success. Any
// prior active session is ended with reason manual in the same
// transaction.
func (m *SessionManager) Open(ctx context.Context, userID uuid.UUID, phone string) (*models.Session, error) {
	session, err := m.store.Open(ctx, userID, phone, m.cfg.TTL)
	if err != nil {
		return nil, err
	}
	m.logger.Info("session %s opened for phone %s, expires %s", session.ID, phone, session.ExpiresAt)
	return session, nil
}

// Touch records activity on the session without extending its expiry
func (m *SessionManager) Touch(ctx context.Context, id uuid.UUID) error {
	return m.store.Touch(ctx, id, m.now().UTC())
}

// End transitions the session to inactive with the given reason.
// Idempotent: repeated calls leave the first reason in place.
func (m *SessionManager) End(ctx context.Context, id uuid.UUID, reason models.EndReason) error {
	if err := m.store.End(ctx, id, reason, m.now().UTC()); err != nil {
		return err
	}
	m.logger.Info("session %s ended: %s", id, reason)
	return nil
}

// TTL exposes the configured session duration for greeting messages
func (m *SessionManager) TTL() time.Duration {
	return m.cfg.TTL
}

// StartSweeper launches the periodic expiry sweep. The lazy path in
// Current already times out stale rows on access; the sweep catches
// phones that never come back.
func (m *SessionManager) StartSweeper() {
	go m.sweepRoutine()
}

// Stop terminates the sweeper goroutine
func (m *SessionManager) Stop() {
	close(m.stopChan)
}

// sweepRoutine runs the periodic expiry sweep
func (m *SessionManager) sweepRoutine() {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			m.sweepOnce(ctx)
			cancel()
		case <-m.stopChan:
			return
		}
	}
}

// sweepOnce ends every expired active session and runs the end hook
// for each, so swept phones lose their draft like any other timeout
func (m *SessionManager) sweepOnce(ctx context.Context) {
	swept, err := m.store.SweepExpired(ctx, m.now().UTC())
	if err != nil {
		m.logger.Error("session sweep failed: %v", err)
		return
	}
	for _, session := range swept {
		if m.onEnd != nil {
			m.onEnd(ctx, session, models.EndReasonTimeout)
		}
	}
	if len(swept) > 0 {
		m.logger.Info("session sweep ended %d expired sessions", len(swept))
	}
}
