package store

import (
	"sync"
	"time"

	"chat-relay/internal/models"
)

// MemoryDirectory is the volatile Directory. Duplicate names are allowed as
// distinct rooms; the generated ID is the identity.
type MemoryDirectory struct {
	mu    sync.RWMutex
	rooms map[string]models.Room
	order []string
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		rooms: make(map[string]models.Room),
	}
}

func (d *MemoryDirectory) Create(name, creatorID string) models.Room {
	d.mu.Lock()
	defer d.mu.Unlock()
	room := models.Room{
		ID:        models.NewID(),
		Name:      name,
		CreatorID: creatorID,
		CreatedAt: time.Now(),
	}
	d.rooms[room.ID] = room
	d.order = append(d.order, room.ID)
	return room
}

func (d *MemoryDirectory) EnsureExists(roomID string) models.Room {
	d.mu.Lock()
	defer d.mu.Unlock()
	if room, ok := d.rooms[roomID]; ok {
		return room
	}
	room := models.Room{
		ID:        roomID,
		Name:      roomID,
		CreatedAt: time.Now(),
	}
	d.rooms[roomID] = room
	d.order = append(d.order, roomID)
	return room
}

func (d *MemoryDirectory) Get(roomID string) (models.Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return models.Room{}, ErrNotFound
	}
	return room, nil
}

// List returns rooms in creation order.
func (d *MemoryDirectory) List() []models.Room {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rooms := make([]models.Room, 0, len(d.order))
	for _, id := range d.order {
		rooms = append(rooms, d.rooms[id])
	}
	return rooms
}
