package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulsechat/pulse-backend/internal/models"
)

// Event is the payload pushed to clients over their live connections.
type Event struct {
	Type      string          `json:"type"`
	UserID    string          `json:"user_id,omitempty"`
	UserIDs   []string        `json:"user_ids,omitempty"`
	Message   *models.Message `json:"message,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

const (
	EventPresenceSnapshot = "presence:snapshot"
	EventPresenceOnline   = "presence:online"
	EventPresenceOffline  = "presence:offline"
	EventNewMessage       = "message:new"
)

// Conn is the minimal interface a live connection must satisfy. SendEvent
// must not block; implementations queue and drop rather than stall the
// registry.
type Conn interface {
	SendEvent(Event) error
	Close() error
}

// PresenceRegistry tracks which users currently hold live connections. A user
// may hold several at once (multi-device); a handle belongs to exactly one
// user. All mutation goes through the registry's mutex so concurrent
// connects and disconnects for the same user never lose handles.
type PresenceRegistry struct {
	mu     sync.RWMutex
	conns  map[uuid.UUID]map[Conn]struct{}
	owners map[Conn]uuid.UUID
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		conns:  make(map[uuid.UUID]map[Conn]struct{}),
		owners: make(map[Conn]uuid.UUID),
	}
}

// Register adds an authenticated connection. The caller must have verified
// the session token before calling. The new connection receives a snapshot of
// everyone currently online; if this is the user's first handle, everyone
// else is told the user came online.
func (r *PresenceRegistry) Register(userID uuid.UUID, c Conn) {
	r.mu.Lock()
	set, existed := r.conns[userID]
	if !existed {
		set = make(map[Conn]struct{})
		r.conns[userID] = set
	}
	set[c] = struct{}{}
	r.owners[c] = userID

	online := make([]string, 0, len(r.conns))
	for id := range r.conns {
		online = append(online, id.String())
	}
	r.mu.Unlock()

	_ = c.SendEvent(Event{
		Type:      EventPresenceSnapshot,
		UserIDs:   online,
		Timestamp: time.Now().UTC(),
	})

	if !existed {
		r.broadcastExcept(userID, Event{
			Type:      EventPresenceOnline,
			UserID:    userID.String(),
			Timestamp: time.Now().UTC(),
		})
	}
}

// Unregister removes a connection, whichever user owns it. Safe to call more
// than once for the same handle. When the owner's last handle goes away the
// user is announced offline.
func (r *PresenceRegistry) Unregister(c Conn) {
	r.mu.Lock()
	userID, ok := r.owners[c]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.owners, c)

	wentOffline := false
	if set, ok := r.conns[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.conns, userID)
			wentOffline = true
		}
	}
	r.mu.Unlock()

	if wentOffline {
		r.broadcastExcept(userID, Event{
			Type:      EventPresenceOffline,
			UserID:    userID.String(),
			Timestamp: time.Now().UTC(),
		})
	}
}

// ActiveHandles returns the user's current connections. An offline user
// yields an empty slice, never an error.
func (r *PresenceRegistry) ActiveHandles(userID uuid.UUID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[userID]
	handles := make([]Conn, 0, len(set))
	for c := range set {
		handles = append(handles, c)
	}
	return handles
}

// OnlineUserIDs returns every user with at least one live connection.
func (r *PresenceRegistry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id.String())
	}
	return out
}

// broadcastExcept delivers an event to every connection not owned by the
// given user. Best-effort: send failures are the connection's problem.
func (r *PresenceRegistry) broadcastExcept(except uuid.UUID, evt Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for userID, set := range r.conns {
		if userID == except {
			continue
		}
		for c := range set {
			_ = c.SendEvent(evt)
		}
	}
}
