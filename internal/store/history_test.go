package store

import (
	"fmt"
	"testing"
	"time"

	"chat-relay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textMessage(id, body string) models.Message {
	return models.Message{
		ID:        id,
		SenderID:  "uid-1",
		Sender:    "alice",
		RoomID:    "lobby",
		Body:      body,
		Kind:      models.KindText,
		CreatedAt: time.Now(),
	}
}

func TestHistoryAppendAndSnapshot(t *testing.T) {
	h := NewMemoryHistory(10)

	h.Append("lobby", textMessage("m1", "hi"))
	h.Append("lobby", textMessage("m2", "there"))

	snapshot := h.Snapshot("lobby")
	require.Len(t, snapshot, 2)
	assert.Equal(t, "m1", snapshot[0].ID)
	assert.Equal(t, "m2", snapshot[1].ID)
}

func TestHistorySnapshotIsACopy(t *testing.T) {
	h := NewMemoryHistory(10)
	h.Append("lobby", textMessage("m1", "hi"))

	snapshot := h.Snapshot("lobby")
	snapshot[0].Body = "tampered"

	assert.Equal(t, "hi", h.Snapshot("lobby")[0].Body)
}

func TestHistoryCapacityEviction(t *testing.T) {
	h := NewMemoryHistory(2)

	h.Append("lobby", textMessage("m1", "one"))
	h.Append("lobby", textMessage("m2", "two"))
	h.Append("lobby", textMessage("m3", "three"))

	snapshot := h.Snapshot("lobby")
	require.Len(t, snapshot, 2)
	assert.Equal(t, "m2", snapshot[0].ID)
	assert.Equal(t, "m3", snapshot[1].ID)
}

func TestHistoryCapacityInvariantHoldsOnEveryAppend(t *testing.T) {
	h := NewMemoryHistory(100)

	for i := 0; i < 101; i++ {
		h.Append("lobby", textMessage(fmt.Sprintf("m%d", i), "body"))
		assert.LessOrEqual(t, h.Len("lobby"), 100)
	}

	snapshot := h.Snapshot("lobby")
	require.Len(t, snapshot, 100)
	assert.Equal(t, "m1", snapshot[0].ID, "oldest message should be evicted")
	assert.Equal(t, "m100", snapshot[99].ID, "newest message should be present")
}

func TestHistoryRoomsAreIndependent(t *testing.T) {
	h := NewMemoryHistory(2)

	h.Append("a", textMessage("a1", "one"))
	h.Append("a", textMessage("a2", "two"))
	h.Append("b", textMessage("b1", "one"))

	assert.Equal(t, 2, h.Len("a"))
	assert.Equal(t, 1, h.Len("b"))

	h.Append("a", textMessage("a3", "three"))
	assert.Equal(t, 2, h.Len("a"))
	assert.Equal(t, 1, h.Len("b"), "eviction in one room must not touch another")
}

func TestHistoryRemove(t *testing.T) {
	h := NewMemoryHistory(10)
	h.Append("lobby", textMessage("m1", "one"))
	h.Append("lobby", textMessage("m2", "two"))

	assert.True(t, h.Remove("lobby", "m1"))
	assert.False(t, h.Remove("lobby", "m1"), "second removal is a no-op")
	assert.False(t, h.Remove("lobby", "missing"))
	assert.False(t, h.Remove("nowhere", "m2"))

	snapshot := h.Snapshot("lobby")
	require.Len(t, snapshot, 1)
	assert.Equal(t, "m2", snapshot[0].ID)
}

func TestHistorySearch(t *testing.T) {
	h := NewMemoryHistory(10)
	h.Append("lobby", textMessage("m1", "hello world"))
	h.Append("lobby", textMessage("m2", "Hello World"))
	h.Append("lobby", textMessage("m3", "goodbye"))

	matches := h.Search("lobby", "hello")
	require.Len(t, matches, 1, "search is case-sensitive")
	assert.Equal(t, "m1", matches[0].ID)

	assert.Empty(t, h.Search("lobby", "absent"))
	assert.Empty(t, h.Search("empty-room", "hello"))
}

func TestHistoryMinimumCapacity(t *testing.T) {
	h := NewMemoryHistory(0)
	assert.Equal(t, 1, h.Capacity())

	h.Append("lobby", textMessage("m1", "one"))
	h.Append("lobby", textMessage("m2", "two"))
	assert.Equal(t, 1, h.Len("lobby"))
}
