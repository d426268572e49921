package frameproxy

import "sync"

// Bus is an in-process stand-in for the host's message-passing fabric,
// used by tests (and by S6's scenario) to exercise the parent/child
// protocol within a single process without a real postMessage bridge. Any
// number of named endpoints can attach; sending addresses a destination by
// Source, and the recipient's handler observes the true sender as From —
// enough to exercise §4.7's PeerOrigin check with more than one child.
type Bus struct {
	mu        sync.Mutex
	endpoints map[Source]*busChannel
}

// NewBus constructs an empty message bus.
func NewBus() *Bus {
	return &Bus{endpoints: map[Source]*busChannel{}}
}

// Endpoint returns the Channel this bus exposes to the party identified as
// self. Messages sent to self from elsewhere on the bus arrive here.
func (b *Bus) Endpoint(self Source) *busChannel {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.endpoints[self]
	if !ok {
		ch = &busChannel{bus: b, self: self}
		b.endpoints[self] = ch
	}
	return ch
}

type busChannel struct {
	bus  *Bus
	self Source

	mu      sync.Mutex
	handler func(Message)
	closed  bool
}

func (c *busChannel) Send(dst Source, body map[string]any) error {
	c.bus.mu.Lock()
	target, ok := c.bus.endpoints[dst]
	c.bus.mu.Unlock()
	if !ok {
		return errNotConnected
	}
	target.mu.Lock()
	handler, closed := target.handler, target.closed
	target.mu.Unlock()
	if closed || handler == nil {
		return nil
	}
	// Copy the body so sender and receiver never alias the same map.
	cp := make(map[string]any, len(body))
	for k, v := range body {
		cp[k] = v
	}
	handler(Message{From: c.self, Body: cp})
	return nil
}

func (c *busChannel) Receive(handler func(Message)) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

func (c *busChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Pipe is a convenience for the common two-party case: it returns linked
// Channels for a and b on a fresh, private Bus.
func Pipe(a, b Source) (Channel, Channel) {
	bus := NewBus()
	return bus.Endpoint(a), bus.Endpoint(b)
}
