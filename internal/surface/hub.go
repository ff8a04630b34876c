package surface

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/inamate/inamate/canvas-go/internal/engine"
)

// SessionFactory starts the session behind a new session id.
type SessionFactory func(id string) *engine.Session

// Room is the set of clients attached to one session. All of them see the
// same overlay and may all send events.
type Room struct {
	sessionID   string
	session     *engine.Session
	clients     map[string]*Client
	unsubscribe func()
	seq         atomic.Int64
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room
	newSession SessionFactory
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(newSession SessionFactory) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		newSession: newSession,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serializes joins and leaves until ctx ends, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Session returns the live session with the given id.
func (h *Hub) Session(id string) (*engine.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[id]
	if !ok {
		return nil, false
	}
	return room.session, true
}

// Sessions lists the ids of live sessions.
func (h *Hub) Sessions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, existed := h.rooms[client.SessionID]
	if !existed {
		room = &Room{
			sessionID: client.SessionID,
			session:   h.newSession(client.SessionID),
			clients:   make(map[string]*Client),
		}
		h.rooms[client.SessionID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{SessionID: client.SessionID, ClientID: client.ClientID})
	client.Send(&Message{Type: TypeWelcome, SessionID: client.SessionID, Payload: welcome})

	// The session must not be touched while h.mu is held: its loop takes
	// h.mu.RLock to broadcast.
	if !existed {
		room.unsubscribe = room.session.Subscribe(func(o engine.Overlay) {
			h.broadcastState(room, o)
		})
		if err := room.session.Do((*engine.Engine).Bootstrap); err != nil {
			slog.Warn("bootstrap session", "error", err, "session", client.SessionID)
		}
	} else {
		// An empty step makes the loop publish the current overlay.
		_ = room.session.Do(func(*engine.Engine) {})
	}

	slog.Info("client joined", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.SessionID)
	}
	h.mu.Unlock()

	if empty {
		h.closeRoom(room)
	}

	slog.Info("client left", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) closeRoom(room *Room) {
	if room.unsubscribe != nil {
		room.unsubscribe()
	}
	room.session.Close()
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]*Room)
	for _, room := range rooms {
		for _, c := range room.clients {
			c.close()
		}
	}
	h.mu.Unlock()

	for _, room := range rooms {
		h.closeRoom(room)
	}
}

func (h *Hub) broadcastState(room *Room, o engine.Overlay) {
	payload, err := json.Marshal(StatePayload{Overlay: o})
	if err != nil {
		slog.Error("marshal overlay", "error", err, "session", room.sessionID)
		return
	}
	data, err := json.Marshal(&Message{
		Type:      TypeState,
		SessionID: room.sessionID,
		Seq:       room.seq.Add(1),
		Payload:   payload,
	})
	if err != nil {
		slog.Error("marshal state message", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.sendRaw(data)
	}
}
