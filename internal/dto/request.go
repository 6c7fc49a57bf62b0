package dto

import (
	"regexp"
	"strings"

	"pazargate/internal/models"
)

var phoneRe = regexp.MustCompile(`^\+?\d{10,15}$`)

// TurnRequest represents one inbound conversational turn
type TurnRequest struct {
	Phone     string   `json:"phone" binding:"required" example:"+905551234567"`
	Text      string   `json:"text" binding:"omitempty,max=4096" example:"Merhaba"`
	ImageRefs []string `json:"image_refs,omitempty" binding:"omitempty,max=10,dive,max=512"`
	Transport string   `json:"transport" binding:"omitempty,oneof=whatsapp web" example:"whatsapp"`
}

// Validate validates the turn request
func (r *TurnRequest) Validate() error {
	r.Phone = strings.TrimSpace(r.Phone)
	if !phoneRe.MatchString(r.Phone) {
		return ErrInvalidPhone
	}

	if strings.TrimSpace(r.Text) == "" && len(r.ImageRefs) == 0 {
		return ErrEmptyTurn
	}

	if r.Transport == "" {
		r.Transport = "whatsapp"
	}

	return nil
}

// RegisterPinRequest represents a PIN registration from the web flow.
// UserID defaults to the authenticated caller; supplying another
// user's ID is rejected downstream.
type RegisterPinRequest struct {
	Phone  string `json:"phone" binding:"required" example:"+905551234567"`
	Pin    string `json:"pin" binding:"required,min=4,max=6" example:"1234"`
	UserID string `json:"user_id,omitempty" binding:"omitempty,uuid"`
}

// Validate validates the PIN registration request
func (r *RegisterPinRequest) Validate() error {
	r.Phone = strings.TrimSpace(r.Phone)
	if !phoneRe.MatchString(r.Phone) {
		return ErrInvalidPhone
	}

	if len(r.Pin) < 4 || len(r.Pin) > 6 {
		return ErrInvalidPin
	}
	for _, ch := range r.Pin {
		if ch < '0' || ch > '9' {
			return ErrInvalidPin
		}
	}

	return nil
}

// ListSafetyFlagsRequest filters the moderation queue
type ListSafetyFlagsRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed dismissed banned" example:"pending"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100" example:"50"`
}

// Validate validates the safety flag listing request
func (r *ListSafetyFlagsRequest) Validate() error {
	if r.Status == "" {
		r.Status = string(models.FlagStatusPending)
	}

	if r.Limit <= 0 || r.Limit > 100 {
		r.Limit = 50
	}

	return nil
}

// ReviewSafetyFlagRequest records a moderator decision on a flag
type ReviewSafetyFlagRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed dismissed banned" example:"confirmed"`
	Notes  string `json:"notes" binding:"omitempty,max=2048"`
}

// Validate validates the review request
func (r *ReviewSafetyFlagRequest) Validate() error {
	status := models.FlagStatus(r.Status)
	if !status.IsValid() || status == models.FlagStatusPending {
		return ErrInvalidFlagStatus
	}

	return nil
}

// EndSessionRequest terminates a session administratively
type EndSessionRequest struct {
	Reason string `json:"reason" binding:"omitempty,oneof=manual timeout user_cancelled" example:"manual"`
}

// Validate validates the end session request
func (r *EndSessionRequest) Validate() error {
	if r.Reason == "" {
		r.Reason = string(models.EndReasonManual)
	}

	return nil
}

// ValidationError carries the offending field alongside the message
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validation errors
var (
	ErrInvalidPhone      = &ValidationError{Field: "phone", Message: "phone must be 10-15 digits, optionally prefixed with +"}
	ErrEmptyTurn         = &ValidationError{Field: "text", Message: "turn must carry text or at least one image"}
	ErrInvalidPin        = &ValidationError{Field: "pin", Message: "pin must be 4-6 digits"}
	ErrInvalidFlagStatus = &ValidationError{Field: "status", Message: "status must be confirmed, dismissed or banned"}
)
