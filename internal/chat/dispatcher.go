package chat

import (
	"sync/atomic"

	"roomchat/pkg/logger"
)

// Dispatcher is the fan-out primitive: it delivers one event to every
// connection currently subscribed to a room. Delivery is best-effort
// and independent per target; a single subscriber's failure never
// aborts the loop and never surfaces to the publisher.
type Dispatcher struct {
	registry *Registry
	dropped  atomic.Int64
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Publish sends the event to every member of the room except exclude
// (matched by connection, not by user, so a user's second device still
// receives events originated by the first). exclude may be nil.
func (d *Dispatcher) Publish(roomSlug string, ev Event, exclude *Connection) {
	for _, c := range d.registry.Members(roomSlug) {
		if c == exclude {
			continue
		}
		if err := c.Send(ev); err != nil {
			d.dropped.Add(1)
			logger.Warn("Dropped %s event for connection %s in room %s: %v", ev.Type, c.ID(), roomSlug, err)
		}
	}
}

// Dropped reports how many deliveries have been dropped since startup.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}
