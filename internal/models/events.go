package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type InboundType string

const (
	InAuth       InboundType = "auth"
	InJoinRoom   InboundType = "join-room"
	InMessage    InboundType = "message"
	InTyping     InboundType = "typing"
	InDelete     InboundType = "delete-message"
	InCreateRoom InboundType = "create-room"
	InCallSignal InboundType = "call-signal"
)

// Inbound is the closed envelope for client events. Fields are populated
// per Type; ParseInbound rejects anything the relay would not act on so a
// malformed frame can never reach shared state.
type Inbound struct {
	Type InboundType `json:"type"`

	// auth
	DisplayName string `json:"displayName,omitempty"`
	AvatarSeed  string `json:"avatarSeed,omitempty"`
	UID         string `json:"uid,omitempty"`
	Bio         string `json:"bio,omitempty"`

	// join-room
	RoomID string `json:"roomId,omitempty"`

	// message
	Body     string      `json:"body,omitempty"`
	Kind     MessageKind `json:"kind,omitempty"`
	Expiring bool        `json:"expiring,omitempty"`

	// typing
	IsTyping bool `json:"isTyping,omitempty"`

	// delete-message
	MessageID string `json:"messageId,omitempty"`

	// create-room
	Name string `json:"name,omitempty"`

	// call-signal, relayed verbatim
	Signal json.RawMessage `json:"signal,omitempty"`
}

// ParseInbound decodes and validates one client frame.
func ParseInbound(data []byte) (*Inbound, error) {
	var ev Inbound
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (ev *Inbound) Validate() error {
	switch ev.Type {
	case InAuth:
		ev.DisplayName = strings.TrimSpace(ev.DisplayName)
		if ev.DisplayName == "" {
			return fmt.Errorf("auth: displayName is required")
		}
	case InJoinRoom:
		if strings.TrimSpace(ev.RoomID) == "" {
			return fmt.Errorf("join-room: roomId is required")
		}
	case InMessage:
		if strings.TrimSpace(ev.Body) == "" {
			return fmt.Errorf("message: body is required")
		}
		switch ev.Kind {
		case "":
			ev.Kind = KindText
		case KindText, KindFile:
		default:
			// Clients cannot inject system notices.
			return fmt.Errorf("message: invalid kind %q", ev.Kind)
		}
	case InTyping:
		// isTyping carries both edges; nothing else to check.
	case InDelete:
		if ev.MessageID == "" {
			return fmt.Errorf("delete-message: messageId is required")
		}
	case InCreateRoom:
		ev.Name = strings.TrimSpace(ev.Name)
		if ev.Name == "" {
			return fmt.Errorf("create-room: name is required")
		}
	case InCallSignal:
		if len(ev.Signal) == 0 {
			return fmt.Errorf("call-signal: signal is required")
		}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

type OutboundType string

const (
	OutHistorySnapshot OutboundType = "history-snapshot"
	OutMessage         OutboundType = "message"
	OutSystemMessage   OutboundType = "system-message"
	OutPresenceUpdate  OutboundType = "presence-update"
	OutRoomList        OutboundType = "room-list"
	OutMessageDeleted  OutboundType = "message-deleted"
	OutTyping          OutboundType = "typing"
	OutCallSignal      OutboundType = "call-signal"
)

// Outbound is the server push envelope, one struct with per-type optional
// fields so every push serializes the same way.
type Outbound struct {
	Type         OutboundType    `json:"type"`
	Message      *Message        `json:"message,omitempty"`
	Messages     []Message       `json:"messages,omitempty"`
	Profiles     []Profile       `json:"profiles,omitempty"`
	Rooms        []Room          `json:"rooms,omitempty"`
	MessageID    string          `json:"messageId,omitempty"`
	RoomID       string          `json:"roomId,omitempty"`
	ConnectionID string          `json:"connectionId,omitempty"`
	DisplayName  string          `json:"displayName,omitempty"`
	IsTyping     bool            `json:"isTyping,omitempty"`
	From         string          `json:"from,omitempty"`
	Signal       json.RawMessage `json:"signal,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

func HistorySnapshot(roomID string, messages []Message) Outbound {
	return Outbound{Type: OutHistorySnapshot, RoomID: roomID, Messages: messages, Timestamp: time.Now()}
}

func MessageEvent(msg Message) Outbound {
	t := OutMessage
	if msg.Kind == KindSystem {
		t = OutSystemMessage
	}
	return Outbound{Type: t, Message: &msg, Timestamp: time.Now()}
}

func PresenceUpdate(profiles []Profile) Outbound {
	return Outbound{Type: OutPresenceUpdate, Profiles: profiles, Timestamp: time.Now()}
}

func RoomList(rooms []Room) Outbound {
	return Outbound{Type: OutRoomList, Rooms: rooms, Timestamp: time.Now()}
}

func MessageDeleted(roomID, messageID string) Outbound {
	return Outbound{Type: OutMessageDeleted, RoomID: roomID, MessageID: messageID, Timestamp: time.Now()}
}

func TypingEvent(connectionID, displayName string, isTyping bool) Outbound {
	return Outbound{Type: OutTyping, ConnectionID: connectionID, DisplayName: displayName, IsTyping: isTyping, Timestamp: time.Now()}
}

func CallSignal(from string, signal json.RawMessage) Outbound {
	return Outbound{Type: OutCallSignal, From: from, Signal: signal, Timestamp: time.Now()}
}
