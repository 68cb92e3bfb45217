package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"chat-relay/internal/models"
	"chat-relay/internal/store"
	"chat-relay/pkg/logger"
)

type RoomHandlers struct {
	rooms   store.Directory
	history store.History
}

func NewRoomHandlers(rooms store.Directory, history store.History) *RoomHandlers {
	return &RoomHandlers{
		rooms:   rooms,
		history: history,
	}
}

// ListRooms returns the directory snapshot in creation order.
func (h *RoomHandlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.rooms.List()
	if rooms == nil {
		rooms = []models.Room{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rooms)
}

// SearchHistory is the surface for the history substring search. With
// client-encrypted bodies the match set is empty; that limitation belongs
// to the store, not this handler.
func (h *RoomHandlers) SearchHistory(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid room ID", http.StatusBadRequest)
		return
	}

	if _, err := h.rooms.Get(roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		logger.Error("Room lookup error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query", http.StatusBadRequest)
		return
	}

	matches := h.history.Search(roomID, query)
	if matches == nil {
		matches = []models.Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"room_id": roomID,
		"matches": matches,
		"count":   len(matches),
	})
}

func roomIDFromPath(r *http.Request) (string, error) {
	// Path shape: /rooms/{id}/search
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 3 || parts[2] == "" {
		return "", fmt.Errorf("invalid path")
	}
	return parts[2], nil
}
