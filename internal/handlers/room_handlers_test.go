package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-relay/internal/models"
	"chat-relay/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRoomsEmpty(t *testing.T) {
	h := NewRoomHandlers(store.NewMemoryDirectory(), store.NewMemoryHistory(10))

	rec := httptest.NewRecorder()
	h.ListRooms(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListRoomsCreationOrder(t *testing.T) {
	rooms := store.NewMemoryDirectory()
	rooms.Create("first", "uid-1")
	rooms.Create("second", "uid-1")
	h := NewRoomHandlers(rooms, store.NewMemoryHistory(10))

	rec := httptest.NewRecorder()
	h.ListRooms(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Room
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, "second", got[1].Name)
}

func TestSearchHistory(t *testing.T) {
	rooms := store.NewMemoryDirectory()
	history := store.NewMemoryHistory(10)
	rooms.EnsureExists("lobby")
	history.Append("lobby", models.Message{
		ID: "m1", Sender: "alice", RoomID: "lobby", Body: "hello world",
		Kind: models.KindText, CreatedAt: time.Now(),
	})
	h := NewRoomHandlers(rooms, history)

	rec := httptest.NewRecorder()
	h.SearchHistory(rec, httptest.NewRequest(http.MethodGet, "/rooms/lobby/search?q=hello", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		RoomID  string           `json:"room_id"`
		Matches []models.Message `json:"matches"`
		Count   int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "lobby", got.RoomID)
	assert.Equal(t, 1, got.Count)
	require.Len(t, got.Matches, 1)
	assert.Equal(t, "m1", got.Matches[0].ID)
}

func TestSearchHistoryNoMatches(t *testing.T) {
	rooms := store.NewMemoryDirectory()
	rooms.EnsureExists("lobby")
	h := NewRoomHandlers(rooms, store.NewMemoryHistory(10))

	rec := httptest.NewRecorder()
	h.SearchHistory(rec, httptest.NewRequest(http.MethodGet, "/rooms/lobby/search?q=absent", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestSearchHistoryUnknownRoom(t *testing.T) {
	h := NewRoomHandlers(store.NewMemoryDirectory(), store.NewMemoryHistory(10))

	rec := httptest.NewRecorder()
	h.SearchHistory(rec, httptest.NewRequest(http.MethodGet, "/rooms/missing/search?q=x", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchHistoryMissingQuery(t *testing.T) {
	rooms := store.NewMemoryDirectory()
	rooms.EnsureExists("lobby")
	h := NewRoomHandlers(rooms, store.NewMemoryHistory(10))

	rec := httptest.NewRecorder()
	h.SearchHistory(rec, httptest.NewRequest(http.MethodGet, "/rooms/lobby/search", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
