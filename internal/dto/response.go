package dto

import (
	"time"

	"github.com/google/uuid"

	"pazargate/internal/models"
)

// TurnResponse carries the gateway's reply to one conversational turn.
// Domain outcomes (bad PIN, locked account, blocked image) are still
// HTTP 200; the reply text tells the user what happened.
type TurnResponse struct {
	ReplyText    string `json:"reply_text"`
	Intent       string `json:"intent,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
	ListingID    string `json:"listing_id,omitempty"`
	Success      bool   `json:"success"`
	EndReason    string `json:"end_reason,omitempty"`
}

// SessionResponse represents an authentication session
type SessionResponse struct {
	ID               uuid.UUID          `json:"id"`
	UserID           uuid.UUID          `json:"user_id"`
	Phone            string             `json:"phone"`
	SessionType      models.SessionType `json:"session_type"`
	IsActive         bool               `json:"is_active"`
	CreatedAt        time.Time          `json:"created_at"`
	ExpiresAt        time.Time          `json:"expires_at"`
	LastActivity     time.Time          `json:"last_activity"`
	RemainingSeconds int                `json:"remaining_seconds"`
	EndedAt          *time.Time         `json:"ended_at,omitempty"`
	EndReason        *models.EndReason  `json:"end_reason,omitempty"`
}

// FromSession converts a session model to response
func (r *SessionResponse) FromSession(s *models.Session, now time.Time) {
	r.ID = s.ID
	r.UserID = s.UserID
	r.Phone = s.Phone
	r.SessionType = s.SessionType
	r.IsActive = s.IsActive
	r.CreatedAt = s.CreatedAt
	r.ExpiresAt = s.ExpiresAt
	r.LastActivity = s.LastActivity
	r.RemainingSeconds = s.RemainingSeconds(now)
	r.EndedAt = s.EndedAt
	r.EndReason = s.EndReason
}

// SafetyFlagResponse represents one entry in the moderation queue
type SafetyFlagResponse struct {
	ID         uuid.UUID         `json:"id"`
	UserID     *uuid.UUID        `json:"user_id,omitempty"`
	ImageRef   *string           `json:"image_ref,omitempty"`
	FlagType   models.FlagType   `json:"flag_type"`
	Confidence models.Confidence `json:"confidence"`
	Message    string            `json:"message"`
	Status     models.FlagStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	ReviewedAt *time.Time        `json:"reviewed_at,omitempty"`
	Reviewer   *uuid.UUID        `json:"reviewer,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
}

// FromFlag converts a safety flag model to response
func (r *SafetyFlagResponse) FromFlag(f *models.ImageSafetyFlag) {
	r.ID = f.ID
	r.UserID = f.UserID
	r.ImageRef = f.ImageRef
	r.FlagType = f.FlagType
	r.Confidence = f.Confidence
	r.Message = f.Message
	r.Status = f.Status
	r.CreatedAt = f.CreatedAt
	r.ReviewedAt = f.ReviewedAt
	r.Reviewer = f.Reviewer
	r.Notes = f.Notes
}

// SafetyFlagListResponse represents a page of the moderation queue
type SafetyFlagListResponse struct {
	Flags []*SafetyFlagResponse `json:"flags"`
	Total int                   `json:"total"`
}

// FromFlags converts a slice of flag models to the list response
func (r *SafetyFlagListResponse) FromFlags(flags []*models.ImageSafetyFlag) {
	r.Flags = make([]*SafetyFlagResponse, 0, len(flags))
	for _, f := range flags {
		fr := &SafetyFlagResponse{}
		fr.FromFlag(f)
		r.Flags = append(r.Flags, fr)
	}
	r.Total = len(r.Flags)
}

// RegisterPinResponse acknowledges a PIN registration
type RegisterPinResponse struct {
	Phone        string    `json:"phone"`
	RegisteredAt time.Time `json:"registered_at"`
}

// HealthResponse reports liveness or readiness
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version,omitempty"`
	Checks   map[string]string `json:"checks,omitempty"`
	Uptime   string            `json:"uptime,omitempty"`
	Checked  time.Time         `json:"checked_at"`
	Hostname string            `json:"hostname,omitempty"`
}
