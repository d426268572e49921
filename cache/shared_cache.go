package cache

import (
	"strings"

	"github.com/reactive-cells/cellgraph/cell"
)

// ParentClient is the collaborator a deferred-to-parent UUID talks to
// (§4.6's "send useSpook:<uuid> to the parent frame"). frameproxy.Client
// satisfies this interface structurally — cache does not import frameproxy,
// avoiding a cycle between the two halves of the cross-frame protocol.
type ParentClient interface {
	// Subscribe asks the parent to drive uuid and calls onUpdate(value, ok)
	// whenever the parent reports a new value (ok=false means not-ready or
	// unknown). deserialise decodes a text-encoded payload the parent may
	// send instead of a raw value. The returned unsubscribe function sends
	// the corresponding release/drop message.
	Subscribe(uuid string, deserialise func(string) (any, error), onUpdate func(value any, ok bool)) (unsubscribe func(), err error)
}

// Options configures a SharedCache.
type Options struct {
	// SessionID overrides the random 8-hex-character session id, for tests
	// that need deterministic owner comparisons.
	SessionID string
	// DeferPrefixes lists UUID prefixes whose ownership is delegated to
	// Parent instead of being claimed locally (§4.6 "defer-to-parent
	// prefix").
	DeferPrefixes []string
	Parent        ParentClient
	// RetainCold keeps a finalised primary cell allocated instead of
	// deactivating it immediately, so a fast reactivation can reuse it
	// without re-paying subscription setup cost (§9 "cold-cell retention
	// policy ... intentionally a tunable policy, not a hard contract").
	RetainCold bool
	Logger     cell.Logger
}

// SharedCache coordinates one-owner-per-UUID across concurrent instances
// sharing a Store, and across multiple same-instance mirrors of the same
// UUID (§4.6). It implements cell.Cacher, so cells configure it via
// cell.Options{Cache: sharedCache}.
type SharedCache struct {
	store         Store
	sessionID     string
	deferPrefixes []string
	parent        ParentClient
	retainCold    bool
	logger        cell.Logger

	registrations map[string]*registration

	unwatch func()
}

// New constructs a SharedCache backed by store.
func New(store Store, opts Options) *SharedCache {
	sc := &SharedCache{
		store:         store,
		sessionID:     opts.SessionID,
		deferPrefixes: opts.DeferPrefixes,
		parent:        opts.Parent,
		retainCold:    opts.RetainCold,
		logger:        opts.Logger,
		registrations: map[string]*registration{},
	}
	if sc.sessionID == "" {
		sc.sessionID = newSessionID()
	}
	sc.unwatch = store.Watch(sc.handleStoreChange)
	return sc
}

// SessionID returns this instance's session identifier.
func (sc *SharedCache) SessionID() string { return sc.sessionID }

func (sc *SharedCache) warn(k cell.Kind, msg string) {
	if sc.logger != nil {
		sc.logger.Printf("%s: %s", k, msg)
	}
}

func (sc *SharedCache) isDeferred(uuid string) bool {
	for _, prefix := range sc.deferPrefixes {
		if strings.HasPrefix(uuid, prefix) {
			return true
		}
	}
	return false
}

// Initialise implements cell.Cacher (§4.6 "initialise(uuid, cell, serialise, parse)").
func (sc *SharedCache) Initialise(identity cell.CacheIdentity, c *cell.Cell) {
	uuid := identity.UUID.String()
	reg, exists := sc.registrations[uuid]
	if !exists {
		reg = newRegistration(identity)
		reg.users.Add(c)
		sc.registrations[uuid] = reg

		if raw, ok, err := sc.store.Get("value." + uuid); ok && err == nil {
			if v, derr := identity.Deserialise(raw); derr == nil {
				c.Changed(v)
			} else {
				sc.warn(cell.CacheInconsistency, "failed to decode persisted value for "+uuid)
			}
		}
		sc.ensureActive(uuid)
		return
	}

	if c == reg.primary {
		// Reactivation of a cold primary: re-flag as owned.
		reg.owned = true
		return
	}

	reg.users.Add(c)
	if reg.primary != nil && reg.primary.Ready() {
		c.Changed(reg.primary.Value())
		return
	}
	for u := range reg.users.Iter() {
		if u.Ready() {
			c.Changed(u.Value())
			break
		}
	}
}

// ensureActive runs the §4.6 "ensure-active(uuid)" protocol.
func (sc *SharedCache) ensureActive(uuid string) {
	reg := sc.registrations[uuid]
	if reg == nil {
		return
	}

	if reg.users.Cardinality() > 0 && reg.primary != nil && !reg.owned {
		reg.primary.DeactivateNow()
		reg.primary = nil
	}

	if reg.users.Cardinality() > 0 && reg.primary == nil {
		if sc.isDeferred(uuid) {
			reg.deferred = true
			if sc.parent != nil {
				unsub, err := sc.parent.Subscribe(uuid, reg.identity.Deserialise, func(v any, ok bool) {
					if ok {
						sc.mirrorAll(reg, v)
					} else {
						sc.resetAll(reg)
					}
				})
				if err == nil {
					reg.parentUnsub = unsub
				} else {
					sc.warn(cell.CacheInconsistency, "parent subscribe failed for "+uuid)
				}
			}
			return
		}

		owner, ok, err := sc.store.Get("owner." + uuid)
		if err == nil && !ok {
			if serr := sc.store.Set("owner."+uuid, sc.sessionID); serr == nil {
				owner, ok = sc.sessionID, true
			}
		}
		if ok && owner == sc.sessionID {
			var primary *cell.Cell
			for u := range reg.users.Iter() {
				primary = u
				break
			}
			reg.primary = primary
			reg.owned = true
			if primary != nil {
				primary.ActivateNow()
			}
		}
		// else: owned by another instance; remain a passive mirror awaiting
		// storage-change events.
	}
}

// Changed implements cell.Cacher (§4.6 "changed(uuid, v)").
func (sc *SharedCache) Changed(identity cell.CacheIdentity, v any) {
	uuid := identity.UUID.String()
	reg := sc.registrations[uuid]
	if reg == nil {
		return
	}

	owner, ok, err := sc.store.Get("owner." + uuid)
	if err != nil || !ok || owner != sc.sessionID {
		return // only the owning instance writes through
	}

	if v == cell.Undefined {
		if err := sc.store.Delete("value." + uuid); err != nil {
			sc.warn(cell.CacheInconsistency, "store delete failed for "+uuid)
			return
		}
		sc.resetAll(reg)
		return
	}

	text, serr := identity.Serialise(v)
	if serr != nil {
		sc.warn(cell.CacheInconsistency, "failed to serialise value for "+uuid)
		return
	}
	if err := sc.store.Set("value."+uuid, text); err != nil {
		sc.warn(cell.CacheInconsistency, "store write failed for "+uuid)
		return
	}
	sc.mirrorAll(reg, v)
}

// Finalise implements cell.Cacher (§4.6 "finalise(uuid, cell)").
func (sc *SharedCache) Finalise(identity cell.CacheIdentity, c *cell.Cell) {
	uuid := identity.UUID.String()
	reg := sc.registrations[uuid]
	if reg == nil {
		return
	}

	if c == reg.primary {
		reg.owned = false
		if sc.retainCold {
			// Cold-but-cached (§9): the resource is left running and the
			// cell stays registered as its own primary/user so a later
			// Use() reactivates it for free via the Initialise "c ==
			// reg.primary" branch.
		} else {
			reg.primary.DeactivateNow()
			reg.primary = nil
			reg.users.Remove(c)
		}
	} else {
		reg.users.Remove(c)
	}

	if reg.users.Cardinality() == 0 {
		if reg.deferred {
			if reg.parentUnsub != nil {
				reg.parentUnsub()
				reg.parentUnsub = nil
			}
			reg.deferred = false
		}
		if reg.primary == nil {
			if owner, ok, _ := sc.store.Get("owner." + uuid); ok && owner == sc.sessionID {
				_ = sc.store.Delete("owner." + uuid)
			}
		}
	} else if reg.primary == nil {
		sc.ensureActive(uuid)
	}

	if reg.empty() {
		delete(sc.registrations, uuid)
	}
}

func (sc *SharedCache) mirrorAll(reg *registration, v any) {
	for u := range reg.users.Iter() {
		u.Changed(v)
	}
}

func (sc *SharedCache) resetAll(reg *registration) {
	for u := range reg.users.Iter() {
		u.Reset()
	}
}

// handleStoreChange reacts to a peer tab's write (§4.6 "Storage events").
func (sc *SharedCache) handleStoreChange(key string, newValue *string) {
	switch {
	case strings.HasPrefix(key, "value."):
		uuid := strings.TrimPrefix(key, "value.")
		reg := sc.registrations[uuid]
		if reg == nil {
			return
		}
		if newValue == nil {
			sc.resetAll(reg)
			return
		}
		v, err := reg.identity.Deserialise(*newValue)
		if err != nil {
			sc.warn(cell.CacheInconsistency, "failed to decode peer update for "+uuid)
			return
		}
		sc.mirrorAll(reg, v)

	case strings.HasPrefix(key, "owner.") && newValue == nil:
		uuid := strings.TrimPrefix(key, "owner.")
		sc.ensureActive(uuid)
	}
}

// Unload runs the on-instance-unload protocol of §4.6: tell the parent to
// drop any deferred UUIDs, and relinquish any owner keys this instance
// still holds, so another instance can adopt them.
func (sc *SharedCache) Unload() {
	for uuid, reg := range sc.registrations {
		if reg.deferred {
			if reg.parentUnsub != nil {
				reg.parentUnsub()
			}
			continue
		}
		if owner, ok, _ := sc.store.Get("owner." + uuid); ok && owner == sc.sessionID {
			_ = sc.store.Delete("owner." + uuid)
		}
	}
	if sc.unwatch != nil {
		sc.unwatch()
	}
}
