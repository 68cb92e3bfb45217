package store

import (
	"strings"
	"sync"

	"chat-relay/internal/models"
)

// MemoryHistory keeps one bounded FIFO buffer per room. Eviction happens on
// every append; a buffer is never over capacity once Append returns.
type MemoryHistory struct {
	mu       sync.RWMutex
	capacity int
	buffers  map[string][]models.Message
}

func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryHistory{
		capacity: capacity,
		buffers:  make(map[string][]models.Message),
	}
}

func (h *MemoryHistory) Append(roomID string, msg models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf := append(h.buffers[roomID], msg)
	if excess := len(buf) - h.capacity; excess > 0 {
		// Copy down instead of re-slicing so evicted entries do not pin
		// the backing array.
		copied := make([]models.Message, h.capacity)
		copy(copied, buf[excess:])
		buf = copied
	}
	h.buffers[roomID] = buf
}

// Snapshot returns a copy, never a live view.
func (h *MemoryHistory) Snapshot(roomID string) []models.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	buf := h.buffers[roomID]
	snapshot := make([]models.Message, len(buf))
	copy(snapshot, buf)
	return snapshot
}

func (h *MemoryHistory) Remove(roomID, messageID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf := h.buffers[roomID]
	for i, msg := range buf {
		if msg.ID == messageID {
			h.buffers[roomID] = append(buf[:i], buf[i+1:]...)
			return true
		}
	}
	return false
}

// Search is an exact, case-sensitive substring match over stored bodies.
// Inert against client-encrypted bodies.
func (h *MemoryHistory) Search(roomID, substring string) []models.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var matches []models.Message
	for _, msg := range h.buffers[roomID] {
		if strings.Contains(msg.Body, substring) {
			matches = append(matches, msg)
		}
	}
	return matches
}

func (h *MemoryHistory) Len(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.buffers[roomID])
}

func (h *MemoryHistory) Capacity() int {
	return h.capacity
}
