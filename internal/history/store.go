// Package history persists relayed messages and serves them back for replay.
package history

import (
	"context"
	"time"
)

// Entry is a single stored message.
type Entry struct {
	ID        string    `json:"id" db:"id"`
	ClientID  string    `json:"clientId" db:"client_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Store records relayed messages and serves the most recent ones.
type Store interface {
	// Append stores one message and returns the stored entry with its
	// assigned id and timestamp.
	Append(ctx context.Context, clientID, content string) (*Entry, error)

	// Recent returns up to limit entries in chronological order, oldest
	// first. A non-positive limit returns no entries.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int64, error)

	// Close releases the backing resources.
	Close() error
}
