package relay

import "github.com/google/uuid"

// NewID returns an opaque identifier for a new connection. IDs are
// time-ordered v7 UUIDs, so concurrent accepts stay collision-free without
// coordination; v4 is the fallback when the v7 source errors.
func NewID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.New().String()
}
