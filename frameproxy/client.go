package frameproxy

import (
	"fmt"
	"sync"

	"github.com/reactive-cells/cellgraph/cell"
)

// subscription is what a child holds open for one deferred UUID.
type subscription struct {
	deserialise func(string) (any, error)
	onUpdate    func(value any, ok bool)
}

// Client is the child side of §4.7's protocol. It satisfies
// cache.ParentClient structurally (same method set, no import needed), so a
// SharedCache configured with DeferPrefixes can delegate ownership of those
// UUIDs straight to a Client without frameproxy and cache ever importing
// each other.
type Client struct {
	channel Channel
	parent  Source
	logger  cell.Logger

	mu                sync.Mutex
	deferParentPrefix []string
	subs              map[string]*subscription
}

// NewClient opens the child side of the protocol over channel, addressed
// to parent. It immediately sends helloSpookProxy and starts listening for
// spookProxyInfo / spookCacheUpdate / spookUnknown replies.
func NewClient(channel Channel, parent Source, logger cell.Logger) *Client {
	c := &Client{
		channel: channel,
		parent:  parent,
		logger:  logger,
		subs:    map[string]*subscription{},
	}
	channel.Receive(c.handle)
	_ = channel.Send(parent, map[string]any{"helloSpookProxy": true})
	return c
}

// DeferParentPrefix returns the prefixes the parent proxy reported via
// spookProxyInfo, once received.
func (c *Client) DeferParentPrefix() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deferParentPrefix
}

// Subscribe implements cache.ParentClient: sends useSpook:uuid to the
// parent and relays every subsequent spookCacheUpdate through onUpdate,
// until the returned unsubscribe function sends dropSpook:uuid.
func (c *Client) Subscribe(uuid string, deserialise func(string) (any, error), onUpdate func(value any, ok bool)) (func(), error) {
	c.mu.Lock()
	c.subs[uuid] = &subscription{deserialise: deserialise, onUpdate: onUpdate}
	c.mu.Unlock()

	if err := c.channel.Send(c.parent, map[string]any{"useSpook": uuid}); err != nil {
		c.mu.Lock()
		delete(c.subs, uuid)
		c.mu.Unlock()
		return nil, err
	}

	return func() {
		c.mu.Lock()
		delete(c.subs, uuid)
		c.mu.Unlock()
		_ = c.channel.Send(c.parent, map[string]any{"dropSpook": uuid})
	}, nil
}

func (c *Client) handle(msg Message) {
	if msg.From != c.parent {
		if c.logger != nil {
			c.logger.Printf("%s: message from a non-parent source ignored", cell.PeerOrigin)
		}
		return
	}

	if info, ok := msg.Body["spookProxyInfo"].(map[string]any); ok {
		c.mu.Lock()
		c.deferParentPrefix = toStringSlice(info["deferParentPrefix"])
		c.mu.Unlock()
		return
	}

	if update, ok := msg.Body["spookCacheUpdate"].(map[string]any); ok {
		uuid, _ := update["uuid"].(string)
		c.mu.Lock()
		sub := c.subs[uuid]
		c.mu.Unlock()
		if sub == nil {
			return
		}
		if text, ok := update["valueString"].(string); ok {
			v, err := sub.deserialise(text)
			if err != nil {
				sub.onUpdate(nil, false)
				return
			}
			sub.onUpdate(v, true)
			return
		}
		if v, present := update["value"]; present {
			sub.onUpdate(v, true)
			return
		}
		sub.onUpdate(nil, false)
		return
	}

	if unknown, ok := msg.Body["spookUnknown"].(map[string]any); ok {
		uuid, _ := unknown["uuid"].(string)
		c.mu.Lock()
		sub := c.subs[uuid]
		c.mu.Unlock()
		if sub != nil {
			sub.onUpdate(nil, false)
		}
		if c.logger != nil {
			c.logger.Printf("%s: parent could not resolve %s", cell.UnknownUuidFromChild, uuid)
		}
	}
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		} else {
			out = append(out, fmt.Sprint(item))
		}
	}
	return out
}
