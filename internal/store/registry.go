package store

import (
	"sync"

	"chat-relay/internal/models"
)

// MemoryRegistry is the volatile Registry used by the relay. Mutations come
// from the dispatcher goroutine only; the lock exists because HTTP handlers
// read snapshots concurrently.
type MemoryRegistry struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
	order    []string
	onChange func()
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		profiles: make(map[string]models.Profile),
	}
}

func (r *MemoryRegistry) Register(profile models.Profile) {
	r.mu.Lock()
	existing, ok := r.profiles[profile.ConnectionID]
	if ok {
		// Re-registration is a profile update; keep the room unless the
		// caller set one explicitly.
		if profile.RoomID == "" {
			profile.RoomID = existing.RoomID
		}
	} else {
		r.order = append(r.order, profile.ConnectionID)
	}
	r.profiles[profile.ConnectionID] = profile
	r.mu.Unlock()
	r.changed()
}

func (r *MemoryRegistry) Lookup(connectionID string) (models.Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[connectionID]
	return profile, ok
}

func (r *MemoryRegistry) SetRoom(connectionID, roomID string) bool {
	r.mu.Lock()
	profile, ok := r.profiles[connectionID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	profile.RoomID = roomID
	r.profiles[connectionID] = profile
	r.mu.Unlock()
	r.changed()
	return true
}

func (r *MemoryRegistry) Remove(connectionID string) bool {
	r.mu.Lock()
	if _, ok := r.profiles[connectionID]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.profiles, connectionID)
	for i, id := range r.order {
		if id == connectionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	r.changed()
	return true
}

// ListAll returns profiles in registration order so successive presence
// snapshots stay stable.
func (r *MemoryRegistry) ListAll() []models.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profiles := make([]models.Profile, 0, len(r.order))
	for _, id := range r.order {
		profiles = append(profiles, r.profiles[id])
	}
	return profiles
}

func (r *MemoryRegistry) OnChange(fn func()) {
	r.onChange = fn
}

func (r *MemoryRegistry) changed() {
	if r.onChange != nil {
		r.onChange()
	}
}
