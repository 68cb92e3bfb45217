// Package relay routes inbound events to the right audience and keeps the
// volatile state (registry, directory, history) consistent. All mutations
// happen on the dispatcher goroutine; sessions only parse and enqueue, so
// no event is ever applied out of arrival order for its connection.
package relay

import (
	"context"
	"time"

	"chat-relay/internal/config"
	"chat-relay/internal/models"
	"chat-relay/internal/store"
	"chat-relay/pkg/logger"
)

// Archiver mirrors relay traffic to durable storage. Writes happen off the
// dispatcher goroutine and failures only log; the relay never depends on
// archived data.
type Archiver interface {
	SaveMessage(ctx context.Context, msg models.Message) error
	SaveRoom(ctx context.Context, room models.Room) error
	MarkDeleted(ctx context.Context, messageID string) error
}

type Options struct {
	AutoJoinRoom    string
	CallSignalScope string
	MessageTTL      time.Duration
}

type inboundEvent struct {
	sess *Session
	ev   *models.Inbound
}

type expiry struct {
	roomID    string
	messageID string
}

type Dispatcher struct {
	registry store.Registry
	rooms    store.Directory
	history  store.History
	archive  Archiver
	opts     Options

	attach  chan *Session
	detach  chan *Session
	events  chan inboundEvent
	expires chan expiry

	sessions      map[string]*Session
	presenceDirty bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDispatcher(registry store.Registry, rooms store.Directory, history store.History, archive Archiver, opts Options) *Dispatcher {
	if opts.CallSignalScope == "" {
		opts.CallSignalScope = config.ScopeRoom
	}
	if opts.MessageTTL <= 0 {
		opts.MessageTTL = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		registry: registry,
		rooms:    rooms,
		history:  history,
		archive:  archive,
		opts:     opts,
		attach:   make(chan *Session),
		detach:   make(chan *Session),
		events:   make(chan inboundEvent),
		expires:  make(chan expiry),
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	registry.OnChange(func() { d.presenceDirty = true })
	if opts.AutoJoinRoom != "" {
		rooms.EnsureExists(opts.AutoJoinRoom)
	}
	return d
}

// Attach hands a new connection to the dispatcher. Reports false if the
// dispatcher is shutting down.
func (d *Dispatcher) Attach(s *Session) bool {
	select {
	case d.attach <- s:
		return true
	case <-d.ctx.Done():
		return false
	}
}

// Detach is the disconnect path. Safe to call for sessions that were never
// attached or already dropped.
func (d *Dispatcher) Detach(s *Session) {
	select {
	case d.detach <- s:
	case <-d.ctx.Done():
	}
}

// Enqueue submits one parsed event. Reports false during shutdown.
func (d *Dispatcher) Enqueue(s *Session, ev *models.Inbound) bool {
	select {
	case d.events <- inboundEvent{sess: s, ev: ev}:
		return true
	case <-d.ctx.Done():
		return false
	}
}

func (d *Dispatcher) Stop() {
	d.cancel()
	<-d.done
}

// Run is the single mutation thread. Each case runs to completion before
// the next event is observed, which is the whole consistency story.
func (d *Dispatcher) Run() {
	defer close(d.done)

	for {
		select {
		case <-d.ctx.Done():
			for _, s := range d.sessions {
				close(s.send)
			}
			d.sessions = make(map[string]*Session)
			return

		case s := <-d.attach:
			d.handleAttach(s)

		case s := <-d.detach:
			d.handleDetach(s)

		case in := <-d.events:
			d.handleEvent(in.sess, in.ev)

		case ex := <-d.expires:
			d.handleExpiry(ex)
		}
		d.flushPresence()
	}
}

func (d *Dispatcher) handleAttach(s *Session) {
	d.sessions[s.ID] = s
	// New connections get the room list up front; presence follows once
	// they authenticate.
	d.sendTo(s, models.RoomList(d.rooms.List()))
	logger.Info("Connection %s attached", s.ID)
}

func (d *Dispatcher) handleDetach(s *Session) {
	if _, ok := d.sessions[s.ID]; !ok {
		return
	}
	delete(d.sessions, s.ID)

	profile, known := d.registry.Lookup(s.ID)
	d.registry.Remove(s.ID)
	close(s.send)

	if known && profile.RoomID != "" {
		d.broadcastRoom(profile.RoomID, d.systemNotice(profile.RoomID, profile.DisplayName+" left"), "")
	}
	logger.Info("Connection %s detached", s.ID)
}

func (d *Dispatcher) handleEvent(s *Session, ev *models.Inbound) {
	if _, ok := d.sessions[s.ID]; !ok {
		// Raced with its own disconnect; drop.
		return
	}

	switch ev.Type {
	case models.InAuth:
		d.handleAuth(s, ev)
	case models.InJoinRoom:
		d.handleJoin(s, ev.RoomID)
	case models.InMessage:
		d.handleMessage(s, ev)
	case models.InTyping:
		d.handleTyping(s, ev)
	case models.InDelete:
		d.handleDelete(s, ev.MessageID)
	case models.InCreateRoom:
		d.handleCreateRoom(s, ev.Name)
	case models.InCallSignal:
		d.handleCallSignal(s, ev)
	}
}

func (d *Dispatcher) handleAuth(s *Session, ev *models.Inbound) {
	// The token identity is the server-validated one; a UID claimed in the
	// auth event is only honored on tokenless connections. Otherwise any
	// client could name a victim's UID and acquire its sender identity.
	uid := s.UID
	if uid == "" {
		uid = ev.UID
	}
	if uid == "" {
		uid = s.ID
	}

	_, wasRegistered := d.registry.Lookup(s.ID)
	d.registry.Register(models.Profile{
		ConnectionID: s.ID,
		UID:          uid,
		DisplayName:  ev.DisplayName,
		AvatarSeed:   ev.AvatarSeed,
		Bio:          ev.Bio,
	})

	if !wasRegistered && d.opts.AutoJoinRoom != "" {
		d.handleJoin(s, d.opts.AutoJoinRoom)
	}
}

func (d *Dispatcher) handleJoin(s *Session, roomID string) {
	profile, ok := d.registry.Lookup(s.ID)
	if !ok {
		return
	}

	room := d.rooms.EnsureExists(roomID)

	if profile.RoomID == room.ID {
		// Rejoining the current room: resend the snapshot, touch nothing.
		d.sendTo(s, models.HistorySnapshot(room.ID, d.history.Snapshot(room.ID)))
		return
	}

	d.registry.SetRoom(s.ID, room.ID)
	if profile.RoomID != "" {
		// Notices are ephemeral: broadcast but never appended, so joining
		// and leaving keep every room's history untouched.
		d.broadcastRoom(profile.RoomID, d.systemNotice(profile.RoomID, profile.DisplayName+" left"), "")
	}

	// Snapshot goes to the joining connection only.
	d.sendTo(s, models.HistorySnapshot(room.ID, d.history.Snapshot(room.ID)))

	d.broadcastRoom(room.ID, d.systemNotice(room.ID, profile.DisplayName+" joined"), "")
}

func (d *Dispatcher) handleMessage(s *Session, ev *models.Inbound) {
	profile, ok := d.registry.Lookup(s.ID)
	if !ok || profile.RoomID == "" {
		// Not authenticated or not in a room: no mutation, no broadcast.
		return
	}

	msg := models.Message{
		ID:        models.NewID(),
		SenderID:  profile.UID,
		Sender:    profile.DisplayName,
		Avatar:    profile.AvatarSeed,
		RoomID:    profile.RoomID,
		Body:      ev.Body,
		Kind:      ev.Kind,
		Expiring:  ev.Expiring,
		CreatedAt: time.Now(),
	}

	d.history.Append(msg.RoomID, msg)
	d.broadcastRoom(msg.RoomID, models.MessageEvent(msg), "")
	d.archiveMessage(msg)

	if msg.Expiring {
		d.scheduleExpiry(msg.RoomID, msg.ID)
	}
}

func (d *Dispatcher) handleTyping(s *Session, ev *models.Inbound) {
	profile, ok := d.registry.Lookup(s.ID)
	if !ok || profile.RoomID == "" {
		return
	}
	// Sender excluded: no typing echo.
	d.broadcastRoom(profile.RoomID, models.TypingEvent(s.ID, profile.DisplayName, ev.IsTyping), s.ID)
}

func (d *Dispatcher) handleDelete(s *Session, messageID string) {
	profile, ok := d.registry.Lookup(s.ID)
	if !ok || profile.RoomID == "" {
		return
	}

	// Sender-only. System notices have an empty SenderID and can never
	// match a profile UID, so clients cannot delete them.
	var target *models.Message
	for _, msg := range d.history.Snapshot(profile.RoomID) {
		if msg.ID == messageID {
			m := msg
			target = &m
			break
		}
	}
	if target == nil || target.SenderID == "" || target.SenderID != profile.UID {
		return
	}

	if d.history.Remove(profile.RoomID, messageID) {
		d.broadcastRoom(profile.RoomID, models.MessageDeleted(profile.RoomID, messageID), "")
		d.archiveDeletion(messageID)
	}
}

func (d *Dispatcher) handleCreateRoom(s *Session, name string) {
	profile, ok := d.registry.Lookup(s.ID)
	if !ok {
		return
	}

	room := d.rooms.Create(name, profile.UID)
	d.broadcastAll(models.RoomList(d.rooms.List()), "")
	d.archiveRoom(room)
}

func (d *Dispatcher) handleCallSignal(s *Session, ev *models.Inbound) {
	profile, ok := d.registry.Lookup(s.ID)
	if !ok {
		return
	}

	out := models.CallSignal(s.ID, ev.Signal)
	if d.opts.CallSignalScope == config.ScopeGlobal {
		d.broadcastAll(out, s.ID)
		return
	}
	if profile.RoomID == "" {
		return
	}
	d.broadcastRoom(profile.RoomID, out, s.ID)
}

// scheduleExpiry defers a removal equivalent to an explicit delete. The
// timer outcome is idempotent: if the message was already removed by hand,
// the expiry is a no-op.
func (d *Dispatcher) scheduleExpiry(roomID, messageID string) {
	time.AfterFunc(d.opts.MessageTTL, func() {
		select {
		case d.expires <- expiry{roomID: roomID, messageID: messageID}:
		case <-d.ctx.Done():
		}
	})
}

func (d *Dispatcher) handleExpiry(ex expiry) {
	if d.history.Remove(ex.roomID, ex.messageID) {
		d.broadcastRoom(ex.roomID, models.MessageDeleted(ex.roomID, ex.messageID), "")
		d.archiveDeletion(ex.messageID)
	}
}

func (d *Dispatcher) systemNotice(roomID, body string) models.Outbound {
	return models.MessageEvent(models.Message{
		ID:        models.NewID(),
		Sender:    "system",
		RoomID:    roomID,
		Body:      body,
		Kind:      models.KindSystem,
		CreatedAt: time.Now(),
	})
}

// flushPresence emits at most one presence broadcast per handled event no
// matter how many registry mutations the event made.
func (d *Dispatcher) flushPresence() {
	if !d.presenceDirty {
		return
	}
	d.presenceDirty = false
	d.broadcastAll(models.PresenceUpdate(d.registry.ListAll()), "")
}

func (d *Dispatcher) broadcastAll(out models.Outbound, excludeID string) {
	for _, s := range d.sessions {
		if s.ID == excludeID {
			continue
		}
		d.sendTo(s, out)
	}
}

func (d *Dispatcher) broadcastRoom(roomID string, out models.Outbound, excludeID string) {
	for _, profile := range d.registry.ListAll() {
		if profile.RoomID != roomID || profile.ConnectionID == excludeID {
			continue
		}
		if s, ok := d.sessions[profile.ConnectionID]; ok {
			d.sendTo(s, out)
		}
	}
}

func (d *Dispatcher) sendTo(s *Session, out models.Outbound) {
	select {
	case s.send <- out:
	default:
		// Slow consumer: drop the connection rather than block the loop.
		d.drop(s)
	}
}

func (d *Dispatcher) drop(s *Session) {
	if _, ok := d.sessions[s.ID]; !ok {
		return
	}
	delete(d.sessions, s.ID)

	profile, known := d.registry.Lookup(s.ID)
	d.registry.Remove(s.ID)
	close(s.send)
	logger.Warn("Connection %s dropped: send buffer full", s.ID)

	// Same cleanup story as a disconnect: the room hears a leave notice.
	if known && profile.RoomID != "" {
		d.broadcastRoom(profile.RoomID, d.systemNotice(profile.RoomID, profile.DisplayName+" left"), "")
	}
}

func (d *Dispatcher) archiveMessage(msg models.Message) {
	if d.archive == nil {
		return
	}
	go func() {
		if err := d.archive.SaveMessage(context.Background(), msg); err != nil {
			logger.Error("Archive message %s: %v", msg.ID, err)
		}
	}()
}

func (d *Dispatcher) archiveRoom(room models.Room) {
	if d.archive == nil {
		return
	}
	go func() {
		if err := d.archive.SaveRoom(context.Background(), room); err != nil {
			logger.Error("Archive room %s: %v", room.ID, err)
		}
	}()
}

func (d *Dispatcher) archiveDeletion(messageID string) {
	if d.archive == nil {
		return
	}
	go func() {
		if err := d.archive.MarkDeleted(context.Background(), messageID); err != nil {
			logger.Error("Archive deletion %s: %v", messageID, err)
		}
	}()
}
