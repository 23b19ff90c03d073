package realtime

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rooms tracks which connections are joined to which board. Registry is the
// in-process implementation; a pub/sub backed one can replace it for
// multi-instance deployments.
type Rooms interface {
	Add(c *Client)
	Remove(c *Client) []primitive.ObjectID
	Join(c *Client, boardID primitive.ObjectID) bool
	Leave(c *Client, boardID primitive.ObjectID) bool
	InRoom(c *Client, boardID primitive.ObjectID) bool
	Broadcast(boardID primitive.ObjectID, frame []byte, except *Client) int
	CloseAll()
}

// Registry is the process-local room table. Create one per server and
// share it between connection handlers.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[primitive.ObjectID]map[*Client]struct{}
	clients map[*Client]map[primitive.ObjectID]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[primitive.ObjectID]map[*Client]struct{}),
		clients: make(map[*Client]map[primitive.ObjectID]struct{}),
	}
}

// Add registers a connection with no rooms.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; !ok {
		r.clients[c] = make(map[primitive.ObjectID]struct{})
	}
}

// Remove drops c from every room and forgets it. It returns the boards c
// was joined to.
func (r *Registry) Remove(c *Client) []primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	joined := r.clients[c]
	out := make([]primitive.ObjectID, 0, len(joined))
	for boardID := range joined {
		r.leaveLocked(c, boardID)
		out = append(out, boardID)
	}
	delete(r.clients, c)
	return out
}

// Join adds c to boardID's room. It returns false if c was already there.
func (r *Registry) Join(c *Client, boardID primitive.ObjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	joined, ok := r.clients[c]
	if !ok {
		joined = make(map[primitive.ObjectID]struct{})
		r.clients[c] = joined
	}
	if _, in := joined[boardID]; in {
		return false
	}
	room := r.rooms[boardID]
	if room == nil {
		room = make(map[*Client]struct{})
		r.rooms[boardID] = room
	}
	room[c] = struct{}{}
	joined[boardID] = struct{}{}
	return true
}

// Leave removes c from boardID's room. It returns false if c was not there.
func (r *Registry) Leave(c *Client, boardID primitive.ObjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, in := r.clients[c][boardID]; !in {
		return false
	}
	r.leaveLocked(c, boardID)
	return true
}

func (r *Registry) leaveLocked(c *Client, boardID primitive.ObjectID) {
	delete(r.clients[c], boardID)
	if room, ok := r.rooms[boardID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(r.rooms, boardID)
		}
	}
}

// InRoom reports whether c is joined to boardID.
func (r *Registry) InRoom(c *Client, boardID primitive.ObjectID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, in := r.clients[c][boardID]
	return in
}

// Broadcast queues frame to every member of boardID's room except except.
// It returns how many clients accepted the frame.
func (r *Registry) Broadcast(boardID primitive.ObjectID, frame []byte, except *Client) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for c := range r.rooms[boardID] {
		if c == except {
			continue
		}
		if c.Send(frame) {
			n++
		}
	}
	return n
}

// RoomSize returns the number of connections joined to boardID.
func (r *Registry) RoomSize(boardID primitive.ObjectID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[boardID])
}

// CloseAll closes every registered connection. Used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.clients {
		c.Close()
	}
}
