package frameproxy

import (
	"reflect"

	"github.com/reactive-cells/cellgraph/cell"
)

// entry is the §4.6 "Frame Proxy Entry (per UUID, parent side)":
// {cell, user-source-list, notifier-token}.
type entry struct {
	cell        *cell.Cell
	subscribers []Source
	notifyTok   cell.Token
}

func (e *entry) addSubscriber(src Source) {
	for _, s := range e.subscribers {
		if s == src {
			return
		}
	}
	e.subscribers = append(e.subscribers, src)
}

func (e *entry) removeSubscriber(src Source) {
	for i, s := range e.subscribers {
		if s == src {
			e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
			return
		}
	}
}

// FrameProxy is the parent-side multiplexer of §4.7, serving one or more
// child frames that cannot claim shared-cache ownership of certain UUIDs
// themselves.
type FrameProxy struct {
	channel           Channel
	fromUUID          func(uuid string) (*cell.Cell, error)
	deferParentPrefix []string
	logger            cell.Logger

	children map[Source]bool
	entries  map[string]*entry
}

// Options configures a FrameProxy.
type Options struct {
	// FromUUID resolves a producer cell for a UUID the proxy doesn't yet
	// track. A non-nil error means the UUID is unknown.
	FromUUID func(uuid string) (*cell.Cell, error)
	// DeferParentPrefix is echoed back in spookProxyInfo so children know
	// which UUID prefixes they should defer upward to this proxy's own
	// parent, if any.
	DeferParentPrefix []string
	Logger            cell.Logger
}

// New constructs a FrameProxy listening on channel.
func New(channel Channel, opts Options) *FrameProxy {
	fp := &FrameProxy{
		channel:           channel,
		fromUUID:          opts.FromUUID,
		deferParentPrefix: opts.DeferParentPrefix,
		logger:            opts.Logger,
		children:          map[Source]bool{},
		entries:           map[string]*entry{},
	}
	channel.Receive(fp.handle)
	return fp
}

// AddChild registers src as a legitimate direct child. Messages from any
// other source are rejected per §4.7's PeerOrigin security check.
func (fp *FrameProxy) AddChild(src Source) { fp.children[src] = true }

// RemoveChild forgets src and drops every subscription it held, as if it
// had sent dropSpook for each UUID it was subscribed to.
func (fp *FrameProxy) RemoveChild(src Source) {
	if !fp.children[src] {
		return
	}
	delete(fp.children, src)
	for uuid, e := range fp.entries {
		e.removeSubscriber(src)
		if len(e.subscribers) == 0 {
			fp.retire(uuid, e)
		}
	}
}

func (fp *FrameProxy) warn(k cell.Kind, msg string) {
	if fp.logger != nil {
		fp.logger.Printf("%s: %s", k, msg)
	}
}

func (fp *FrameProxy) handle(msg Message) {
	if !fp.children[msg.From] {
		fp.warn(cell.PeerOrigin, "message from a non-child source ignored")
		return
	}

	switch {
	case msg.Body["helloSpookProxy"] != nil:
		_ = fp.channel.Send(msg.From, map[string]any{
			"spookProxyInfo": map[string]any{"deferParentPrefix": fp.deferParentPrefix},
		})

	case msg.Body["useSpook"] != nil:
		uuid, _ := msg.Body["useSpook"].(string)
		fp.handleUseSpook(msg.From, uuid)

	case msg.Body["dropSpook"] != nil:
		uuid, _ := msg.Body["dropSpook"].(string)
		fp.handleDropSpook(msg.From, uuid)
	}
}

func (fp *FrameProxy) handleUseSpook(child Source, uuid string) {
	e, ok := fp.entries[uuid]
	if !ok {
		c, err := fp.fromUUID(uuid)
		if err != nil || c == nil {
			fp.warn(cell.UnknownUuidFromChild, "cannot resolve uuid "+uuid)
			_ = fp.channel.Send(child, map[string]any{
				"spookUnknown": map[string]any{"uuid": uuid},
			})
			return
		}
		e = &entry{cell: c}
		// Notify already performs the one use() hold the proxy needs on
		// the producer, independent of how many children subscribe to it.
		e.notifyTok = c.Notify(func() { fp.broadcast(uuid, e) })
		fp.entries[uuid] = e
	}

	e.addSubscriber(child)
	fp.sendUpdate(child, uuid, e.cell)
}

func (fp *FrameProxy) handleDropSpook(child Source, uuid string) {
	e, ok := fp.entries[uuid]
	if !ok {
		return
	}
	e.removeSubscriber(child)
	if len(e.subscribers) == 0 {
		fp.retire(uuid, e)
	}
}

func (fp *FrameProxy) retire(uuid string, e *entry) {
	// Unnotify already balances the Use() hold Notify() took in
	// handleUseSpook; dropping again here would underflow the producer.
	e.cell.Unnotify(e.notifyTok)
	delete(fp.entries, uuid)
}

func (fp *FrameProxy) broadcast(uuid string, e *entry) {
	for _, child := range e.subscribers {
		fp.sendUpdate(child, uuid, e.cell)
	}
}

// sendUpdate implements §4.7's outbound payload rule: serialised form for a
// non-null object when a serialiser is configured, the raw value otherwise,
// and neither field when the producer isn't ready.
func (fp *FrameProxy) sendUpdate(child Source, uuid string, c *cell.Cell) {
	body := map[string]any{"uuid": uuid}
	if c.Ready() {
		v := c.Value()
		if isSerialisableObject(v) {
			if identity := c.CacheIdentity(); identity != nil && identity.Serialise != nil {
				if text, err := identity.Serialise(v); err == nil {
					body["valueString"] = text
				} else {
					body["value"] = v
				}
			} else {
				body["value"] = v
			}
		} else {
			body["value"] = v
		}
	}
	_ = fp.channel.Send(child, map[string]any{"spookCacheUpdate": body})
}

func isSerialisableObject(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array, reflect.Ptr:
		return true
	default:
		return false
	}
}
