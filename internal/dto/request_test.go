package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnRequestValidate(t *testing.T) {
	req := &TurnRequest{Phone: " +905551234567 ", Text: "Merhaba"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "+905551234567", req.Phone, "phone is trimmed")
	assert.Equal(t, "whatsapp", req.Transport, "transport defaults to whatsapp")

	req = &TurnRequest{Phone: "+905551234567", ImageRefs: []string{"img-1"}, Transport: "web"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "web", req.Transport)
}

func TestTurnRequestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		req  TurnRequest
		want error
	}{
		{"short phone", TurnRequest{Phone: "12345", Text: "x"}, ErrInvalidPhone},
		{"letters in phone", TurnRequest{Phone: "+9055512345ab", Text: "x"}, ErrInvalidPhone},
		{"empty phone", TurnRequest{Text: "x"}, ErrInvalidPhone},
		{"no text no images", TurnRequest{Phone: "+905551234567"}, ErrEmptyTurn},
		{"whitespace text only", TurnRequest{Phone: "+905551234567", Text: "   "}, ErrEmptyTurn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.req.Validate(), tt.want)
		})
	}
}

func TestRegisterPinRequestValidate(t *testing.T) {
	req := &RegisterPinRequest{Phone: "+905551234567", Pin: "1234"}
	assert.NoError(t, req.Validate())

	for _, pin := range []string{"123", "1234567", "12ab", ""} {
		req := &RegisterPinRequest{Phone: "+905551234567", Pin: pin}
		assert.ErrorIs(t, req.Validate(), ErrInvalidPin, "pin %q", pin)
	}

	req = &RegisterPinRequest{Phone: "not-a-phone", Pin: "1234"}
	assert.ErrorIs(t, req.Validate(), ErrInvalidPhone)
}

func TestListSafetyFlagsRequestDefaults(t *testing.T) {
	req := &ListSafetyFlagsRequest{}
	require.NoError(t, req.Validate())
	assert.Equal(t, "pending", req.Status)
	assert.Equal(t, 50, req.Limit)

	req = &ListSafetyFlagsRequest{Status: "confirmed", Limit: 10}
	require.NoError(t, req.Validate())
	assert.Equal(t, "confirmed", req.Status)
	assert.Equal(t, 10, req.Limit)
}

func TestReviewSafetyFlagRequestValidate(t *testing.T) {
	for _, status := range []string{"confirmed", "dismissed", "banned"} {
		req := &ReviewSafetyFlagRequest{Status: status}
		assert.NoError(t, req.Validate(), "status %q", status)
	}

	for _, status := range []string{"pending", "approved", ""} {
		req := &ReviewSafetyFlagRequest{Status: status}
		assert.ErrorIs(t, req.Validate(), ErrInvalidFlagStatus, "status %q", status)
	}
}

func TestEndSessionRequestDefaults(t *testing.T) {
	req := &EndSessionRequest{}
	require.NoError(t, req.Validate())
	assert.Equal(t, "manual", req.Reason)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "phone", Message: "bad"}
	assert.Equal(t, "phone: bad", err.Error())
}
