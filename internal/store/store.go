// Package store keeps chat history and member names in SQLite so timecards
// can be recomputed without refetching from the chat platform.
package store

import (
	"context"
	"time"

	"github.com/Grasinga/TimeTracker/internal/model"
)

// ListParams holds parameters for listing messages.
type ListParams struct {
	ChannelID string
	// PersonID keeps messages whose first mention is this person.
	PersonID string
	// Since and Until bound the timestamp, both inclusive. Zero means open.
	Since time.Time
	Until time.Time
	// Limit keeps the newest Limit messages. 0 means no limit.
	Limit int
}

// SearchParams holds parameters for searching message text.
type SearchParams struct {
	ChannelID string
	Query     string
	Limit     int
}

// PruneParams selects messages to delete.
type PruneParams struct {
	ChannelID string
	// Before is required; messages stamped strictly before it are deleted.
	Before time.Time
}

// Store defines the history storage interface.
type Store interface {
	// PutMessages inserts or updates messages by id. Messages without an id
	// get a new one. Returns the number of rows written.
	PutMessages(ctx context.Context, msgs []model.ChatMessage) (int, error)

	// ListMessages returns matching messages, oldest first.
	ListMessages(ctx context.Context, p ListParams) ([]model.ChatMessage, error)

	// PutMembers inserts or renames members.
	PutMembers(ctx context.Context, members []model.Member) error

	// Members returns every known member ordered by name.
	Members(ctx context.Context) ([]model.Member, error)

	// Close closes the store.
	Close() error
}
