// Package cell implements the dependency-tracked reactive value graph: the
// base Cell, its readiness/observer/ref-counting protocol, and the
// trigger/propagation rules shared by every derived cell kind in this
// package (ReactiveCell, TransformCell, the derivative cells, and the
// subscript helper).
package cell

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// undefinedT is the internal "no value" sentinel (§3: "ready ⇒ value ≠ the
// sentinel undefined"). It is distinct from Go's nil so that a cell may
// legitimately hold nil as a ready value when MayBeNull is set.
type undefinedT struct{}

// Undefined is the sentinel value producers and transform callbacks return
// to mean "no value was produced; leave/return the cell to not-ready".
var Undefined = undefinedT{}

func isUndefined(v any) bool {
	_, ok := v.(undefinedT)
	return ok
}

// CacheIdentity binds a cell to a stable UUID for the shared cache (§3, §4.6).
type CacheIdentity struct {
	UUID        uuid.UUID
	Serialise   func(v any) (string, error)
	Deserialise func(text string) (any, error)
}

// Cacher is implemented by the shared cache (cache.SharedCache). A Cell with
// a CacheIdentity but no attached Cacher falls back to driving its own
// Activate/Deactivate hooks directly, matching §4.1's "if a cache identity
// is configured and a shared cache exists, delegate ... otherwise call the
// subclass initialise hook".
type Cacher interface {
	Initialise(identity CacheIdentity, c *Cell)
	Finalise(identity CacheIdentity, c *Cell)
	Changed(identity CacheIdentity, v any)
}

// Options configures a new Cell.
type Options struct {
	MayBeNull     bool
	CacheIdentity *CacheIdentity
	Cache         Cacher
	Logger        Logger
}

// Cell is the base reactive value slot described in spec §3/§4.1.
type Cell struct {
	id uint64

	mayBeNull bool

	ready bool
	value any

	userCount int

	changeSubs *registry[func(any)]
	notifiers  *registry[func()]
	thens      *registry[func(any)]

	hasDefault   bool
	defaultValue any

	cacheIdentity *CacheIdentity
	cache         Cacher

	triggering bool

	// rank is this cell's topological depth: 0 for a cell with no observed
	// dependencies, otherwise one more than the deepest dependency a
	// ReactiveCell registered Notify against (§A.7 "rank-based propagation
	// ordering"). It is bookkeeping only — trigger() still fires observers
	// in registration order — but lets a multi-root cascade's consumers
	// (the debug dump, in particular) lay a graph out in dependency order
	// instead of construction order.
	rank int

	// Activate/Deactivate are the subclass "initialise"/"finalise" hooks
	// (§4.1). They are invoked by Use()/Drop() on the 0→1 / 1→0 user-count
	// transition, unless a CacheIdentity+Cacher pair is configured, in which
	// case the cache drives them directly via ActivateNow/DeactivateNow.
	Activate   func()
	Deactivate func()

	// OnReset, if set, runs before the default/not-ready logic in Reset.
	// Used by Reduce to clear its running accumulator (§A.7).
	OnReset func()

	// IsDoneFunc backs Done(); a cell that never overrides it fails with
	// DoneUnsupported (§7).
	IsDoneFunc func(v any) bool

	Logger Logger
}

var cellCounter uint64

// New constructs an inert Cell. It remains not-ready until the first value
// is triggered into it.
func New(opts Options) *Cell {
	c := &Cell{
		id:            atomic.AddUint64(&cellCounter, 1),
		mayBeNull:     opts.MayBeNull,
		changeSubs:    newRegistry[func(any)](),
		notifiers:     newRegistry[func()](),
		thens:         newRegistry[func(any)](),
		cacheIdentity: opts.CacheIdentity,
		cache:         opts.Cache,
		Logger:        opts.Logger,
	}
	if c.cacheIdentity != nil {
		if c.cacheIdentity.Serialise == nil {
			c.cacheIdentity.Serialise = defaultSerialise
		}
		if c.cacheIdentity.Deserialise == nil {
			c.cacheIdentity.Deserialise = defaultDeserialise
		}
	}
	return c
}

// ID is a monotonically assigned identifier, for debugging only (§3).
func (c *Cell) ID() uint64 { return c.id }

// Ready reports whether the cell currently holds a definite value.
func (c *Cell) Ready() bool { return c.ready }

// NotReady is the complement of Ready, named to match §6's presentation
// surface (`ready()`, `notReady()`).
func (c *Cell) NotReady() bool { return !c.ready }

// Value returns the current value. It is only meaningful when Ready()
// returns true; callers that read it while not-ready get nil (a cell with a
// configured default is never not-ready).
func (c *Cell) Value() any { return c.value }

// Default returns the configured default value, if any.
func (c *Cell) Default() (any, bool) { return c.defaultValue, c.hasDefault }

// UserCount returns the number of active interest-holders.
func (c *Cell) UserCount() int { return c.userCount }

// Rank returns this cell's topological depth bookkeeping (§A.7). A plain
// cell, which registers no dependencies of its own, stays at rank 0.
func (c *Cell) Rank() int { return c.rank }

// CacheIdentity returns the cell's configured cache identity, or nil if it
// has none. Collaborators outside this package (frameproxy's parent-side
// multiplexer, in particular) use this to reach the cell's own serialise
// function without cache having to expose it separately.
func (c *Cell) CacheIdentity() *CacheIdentity { return c.cacheIdentity }

// Use increments the user-count. On the 0→1 transition the cell is
// initialised: either via the shared cache (if cache-identified and a Cacher
// is attached) or via the Activate hook.
func (c *Cell) Use() {
	c.userCount++
	if c.userCount == 1 {
		c.initialise()
	}
}

// Drop decrements the user-count. Panics with a fatal UsageUnderflow error
// if called when the user-count is already zero; see TryDrop for a
// non-panicking variant.
func (c *Cell) Drop() {
	if c.userCount == 0 {
		c.warn(UsageUnderflow, "drop() called with zero users")
		return // unreachable: warn panics for fatal kinds
	}
	c.userCount--
	if c.userCount == 0 {
		c.finalise()
	}
}

// TryDrop recovers from the UsageUnderflow panic and returns it as an error.
func (c *Cell) TryDrop() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*Error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	c.Drop()
	return nil
}

func (c *Cell) initialise() {
	if c.cacheIdentity != nil && c.cache != nil {
		c.cache.Initialise(*c.cacheIdentity, c)
		return
	}
	c.ActivateNow()
}

func (c *Cell) finalise() {
	if c.cacheIdentity != nil && c.cache != nil {
		c.cache.Finalise(*c.cacheIdentity, c)
		return
	}
	c.DeactivateNow()
}

// ActivateNow invokes the Activate hook directly, bypassing user-count
// accounting. The shared cache uses this to drive the one primary cell's
// real resource lifecycle independent of how many mirror cells exist
// (§4.6's "run the subclass initialise on it").
func (c *Cell) ActivateNow() {
	if c.Activate != nil {
		c.Activate()
	}
}

// DeactivateNow is the ActivateNow counterpart.
func (c *Cell) DeactivateNow() {
	if c.Deactivate != nil {
		c.Deactivate()
	}
}
