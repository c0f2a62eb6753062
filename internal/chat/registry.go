package chat

import (
	"context"
	"sync"
)

// Authorizer is the external membership predicate consulted before a
// connection may subscribe to a room. The core never mutates
// membership policy.
type Authorizer interface {
	IsAuthorized(ctx context.Context, roomSlug string, userID int) (bool, error)
}

// Registry is the process-wide mapping from room slug to the set of
// connections currently subscribed to it. A connection belongs to at
// most one room at a time; subscribing to a new room implicitly leaves
// the previous one.
//
// All guarded sections are O(room members) map work with no blocking
// calls, so a single lock is not a contention bottleneck; the
// authorization check runs before the lock is taken.
type Registry struct {
	auth Authorizer

	mu     sync.RWMutex
	rooms  map[string]map[*Connection]struct{}
	byConn map[*Connection]string
}

func NewRegistry(auth Authorizer) *Registry {
	return &Registry{
		auth:   auth,
		rooms:  make(map[string]map[*Connection]struct{}),
		byConn: make(map[*Connection]string),
	}
}

// Subscribe adds the connection to the room's set after the external
// authorization check passes. Subscribing an already-subscribed
// connection to the same room is a no-op returning success.
func (r *Registry) Subscribe(ctx context.Context, roomSlug string, c *Connection) error {
	if c.State() == StateClosed {
		return ErrConnectionClosed
	}

	ok, err := r.auth.IsAuthorized(ctx, roomSlug, c.UserID())
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, subscribed := r.byConn[c]; subscribed {
		if current == roomSlug {
			return nil
		}
		r.removeLocked(c, current)
	}

	set, ok := r.rooms[roomSlug]
	if !ok {
		set = make(map[*Connection]struct{})
		r.rooms[roomSlug] = set
	}
	set[c] = struct{}{}
	r.byConn[c] = roomSlug
	return nil
}

// Unsubscribe removes the connection from whatever room it belongs to.
// It always succeeds and is safe to call repeatedly.
func (r *Registry) Unsubscribe(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomSlug, ok := r.byConn[c]
	if !ok {
		return
	}
	r.removeLocked(c, roomSlug)
}

func (r *Registry) removeLocked(c *Connection, roomSlug string) {
	delete(r.byConn, c)
	if set, ok := r.rooms[roomSlug]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.rooms, roomSlug)
		}
	}
}

// Members returns a point-in-time snapshot of the room's subscribers.
// Callers iterate the snapshot, never the live set, so no lock is held
// while delivering to a subscriber.
func (r *Registry) Members(roomSlug string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.rooms[roomSlug]
	if !ok {
		return nil
	}
	members := make([]*Connection, 0, len(set))
	for c := range set {
		members = append(members, c)
	}
	return members
}

// Room reports which room the connection is subscribed to, if any.
func (r *Registry) Room(c *Connection) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomSlug, ok := r.byConn[c]
	return roomSlug, ok
}
