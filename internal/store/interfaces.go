package store

import (
	"errors"

	"chat-relay/internal/models"
)

// ErrNotFound signals a lookup miss. Operations that can miss return it (or
// a bool) instead of panicking; a bad ID from one client must never take the
// process down.
var ErrNotFound = errors.New("not found")

// Registry owns the live-connection profiles. Snapshots are insertion
// ordered so successive presence broadcasts keep a stable order.
type Registry interface {
	// Register creates or overwrites the entry. On overwrite the current
	// room membership is preserved unless the new profile names one.
	Register(profile models.Profile)
	Lookup(connectionID string) (models.Profile, bool)
	// SetRoom updates only the room membership. Reports whether the
	// connection was known.
	SetRoom(connectionID, roomID string) bool
	// Remove deletes the entry; no-op on unknown IDs.
	Remove(connectionID string) bool
	ListAll() []models.Profile
	// OnChange registers the hook invoked after every mutation. The
	// dispatcher uses it to trigger presence broadcasts; the registry
	// itself never talks to the transport.
	OnChange(fn func())
}

// Directory owns the room set. Rooms are never deleted.
type Directory interface {
	Create(name, creatorID string) models.Room
	// EnsureExists lazily creates a room whose ID doubles as its name,
	// used for pre-seeded rooms such as the default lobby.
	EnsureExists(roomID string) models.Room
	Get(roomID string) (models.Room, error)
	// List returns rooms in creation order.
	List() []models.Room
}

// History owns the per-room bounded message buffers.
type History interface {
	// Append adds the message and evicts from the front until the room is
	// back at capacity. The capacity invariant holds when Append returns.
	Append(roomID string, msg models.Message)
	// Snapshot returns a copy, never a live view.
	Snapshot(roomID string) []models.Message
	// Remove deletes one message by ID and reports whether it was present.
	// Authorization is the caller's job.
	Remove(roomID, messageID string) bool
	// Search is an exact, case-sensitive substring match over stored
	// bodies. If clients pre-encrypt bodies the search is inert; that is a
	// known limitation, not a bug.
	Search(roomID, substring string) []models.Message
	Len(roomID string) int
}
