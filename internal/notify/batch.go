// Package notify coalesces bursts of album media uploads into one notification
// per (actor, album) and fans it out to the other album members.
//
// Events are accumulated in a Ledger keyed by BatchKey. Every event pushes the
// key's deadline forward by the debounce window; the Engine's sweeper flushes a
// batch once its deadline passes without a newer event.
package notify

import (
	"time"

	"github.com/princekumarofficial/album-notify/internal/types"
)

// BatchKey identifies one accumulating batch.
type BatchKey struct {
	ActorID string
	AlbumID string
}

// MediaEvent is one successfully stored media item.
type MediaEvent struct {
	ActorID    string
	AlbumID    string
	AlbumTitle string
	Kind       types.MediaKind
	// Recipients are the album members to notify; the actor is excluded at flush.
	Recipients []string
}

// Key returns the batch the event accumulates into.
func (e MediaEvent) Key() BatchKey {
	return BatchKey{ActorID: e.ActorID, AlbumID: e.AlbumID}
}

// PendingBatch is the aggregate of every event seen for a key within the window.
type PendingBatch struct {
	ActorID    string
	AlbumID    string
	AlbumTitle string
	PhotoCount uint
	VideoCount uint
	Recipients []string

	FirstEventAt time.Time
	LastEventAt  time.Time
}

// Total is the number of media items in the batch.
func (b PendingBatch) Total() uint {
	return b.PhotoCount + b.VideoCount
}

func (b PendingBatch) Key() BatchKey {
	return BatchKey{ActorID: b.ActorID, AlbumID: b.AlbumID}
}
