package realtime

import (
	"sync"

	"github.com/questboard/questboard/pkg/logger"
)

// AccessChecker reports whether a user may join a project room. The hub
// consults it on every join-project request so a revoked member cannot
// re-enter a room.
type AccessChecker func(userID, projectID uint) bool

// Hub tracks connected clients and their room subscriptions. All maps are
// guarded by mu; clients never touch them directly.
type Hub struct {
	mu sync.RWMutex

	// rooms maps project id to the clients subscribed to it.
	rooms map[uint]map[*Client]struct{}

	// users maps user id to that user's open connections. A user may hold
	// several (multiple tabs, devices).
	users map[uint]map[*Client]struct{}

	checkAccess AccessChecker
}

func NewHub(checkAccess AccessChecker) *Hub {
	return &Hub{
		rooms:       make(map[uint]map[*Client]struct{}),
		users:       make(map[uint]map[*Client]struct{}),
		checkAccess: checkAccess,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[*Client]struct{})
	}
	h.users[c.UserID][c] = struct{}{}
	logger.Debug().Str("conn_id", c.ID).Uint("user_id", c.UserID).Msg("websocket connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for projectID := range c.rooms {
		h.removeFromRoom(c, projectID)
	}
	if conns := h.users[c.UserID]; conns != nil {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.users, c.UserID)
		}
	}
	close(c.send)
	logger.Debug().Str("conn_id", c.ID).Uint("user_id", c.UserID).Msg("websocket disconnected")
}

// joinRoom subscribes the client to a project room after re-checking that the
// user is still a member. Unauthorized joins are ignored silently.
func (h *Hub) joinRoom(c *Client, projectID uint) {
	if h.checkAccess != nil && !h.checkAccess(c.UserID, projectID) {
		logger.Warn().Uint("user_id", c.UserID).Uint("project_id", projectID).Msg("join-project denied")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[projectID] == nil {
		h.rooms[projectID] = make(map[*Client]struct{})
	}
	h.rooms[projectID][c] = struct{}{}
	c.rooms[projectID] = struct{}{}
}

func (h *Hub) leaveRoom(c *Client, projectID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(c, projectID)
}

// removeFromRoom requires h.mu held.
func (h *Hub) removeFromRoom(c *Client, projectID uint) {
	if room := h.rooms[projectID]; room != nil {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, projectID)
		}
	}
	delete(c.rooms, projectID)
}

// BroadcastToProject delivers an event to every connection subscribed to the
// project room, except connections owned by excludeUserID (the actor already
// knows what it did). Slow clients are skipped rather than blocked on.
func (h *Hub) BroadcastToProject(projectID uint, event Event, excludeUserID uint) {
	payload := event.encode()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[projectID] {
		if c.UserID == excludeUserID {
			continue
		}
		select {
		case c.send <- payload:
		default:
			logger.Warn().Str("conn_id", c.ID).Msg("websocket send buffer full, dropping event")
		}
	}
}

// Relay rebroadcasts a client-emitted project event to every other
// connection in the room, including the sender's own other tabs. Frames
// for rooms the sender has not joined are dropped; joinRoom already
// verified membership, so being in the room is the authorization.
func (h *Hub) Relay(sender *Client, event Event) {
	payload := event.encode()

	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[event.ProjectID]
	if _, ok := room[sender]; !ok {
		return
	}
	for c := range room {
		if c == sender {
			continue
		}
		select {
		case c.send <- payload:
		default:
			logger.Warn().Str("conn_id", c.ID).Msg("websocket send buffer full, dropping event")
		}
	}
}

// PublishToUser delivers an event to every open connection of one user,
// regardless of room subscriptions.
func (h *Hub) PublishToUser(userID uint, event Event) {
	payload := event.encode()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.users[userID] {
		select {
		case c.send <- payload:
		default:
			logger.Warn().Str("conn_id", c.ID).Msg("websocket send buffer full, dropping event")
		}
	}
}

// ConnectionCount reports the number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, conns := range h.users {
		n += len(conns)
	}
	return n
}

// RoomSize reports how many connections are subscribed to a project room.
func (h *Hub) RoomSize(projectID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}
