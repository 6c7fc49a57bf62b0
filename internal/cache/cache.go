// Package cache stores the small cross-turn conversation state the
// controller forwards to the agent backend. Losing an entry is
// harmless (the dialogue degrades to a fresh exchange), so the cache
// is best-effort: Redis when configured, in-process memory otherwise.
package cache

import (
	"context"
	"time"
)

// ConversationState is what survives between turns for one phone
type ConversationState struct {
	Mode            string `json:"mode"`
	LastIntent      string `json:"last_intent"`
	ActiveListingID string `json:"active_listing_id,omitempty"`
	PendingDeleteID string `json:"pending_delete_id,omitempty"`
}

// Store is the conversation-state cache surface
type Store interface {
	Get(ctx context.Context, phone string) (*ConversationState, error)
	Set(ctx context.Context, phone string, state *ConversationState) error
	Clear(ctx context.Context, phone string) error
}

// Entries outlive a session slightly so a re-login resumes context
const stateTTL = 30 * time.Minute
