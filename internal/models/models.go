package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	KindText   MessageKind = "text"
	KindFile   MessageKind = "file"
	KindSystem MessageKind = "system"
)

// Profile is the registry entry for one live connection. RoomID is empty
// until the connection joins a room.
type Profile struct {
	ConnectionID string `json:"connectionId"`
	UID          string `json:"uid"`
	DisplayName  string `json:"displayName"`
	AvatarSeed   string `json:"avatarSeed,omitempty"`
	Bio          string `json:"bio,omitempty"`
	RoomID       string `json:"roomId,omitempty"`
}

type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creatorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is one history entry. Body is opaque: clients may pre-encrypt it
// and the server never inspects it. SenderID is empty for system notices,
// which makes them undeletable by clients.
type Message struct {
	ID        string      `json:"id"`
	SenderID  string      `json:"senderId,omitempty"`
	Sender    string      `json:"sender"`
	Avatar    string      `json:"avatar,omitempty"`
	RoomID    string      `json:"roomId"`
	Body      string      `json:"body"`
	Kind      MessageKind `json:"kind"`
	Expiring  bool        `json:"expiring,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func NewID() string {
	return uuid.NewString()
}
