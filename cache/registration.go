package cache

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/reactive-cells/cellgraph/cell"
)

// registration is the per-UUID bookkeeping of §3 ("Shared Cache
// Registration"). users doesn't need registration order (any mirror is as
// good as any other), so it uses golang-set for the subscriber set, unlike
// cell's own change-subscriber registries which need insertion order and so
// use the hand-rolled registry type instead.
type registration struct {
	identity cell.CacheIdentity

	primary *cell.Cell
	users   mapset.Set[*cell.Cell]

	owned    bool
	deferred bool

	parentUnsub func()
}

func newRegistration(identity cell.CacheIdentity) *registration {
	return &registration{identity: identity, users: mapset.NewSet[*cell.Cell]()}
}

func (r *registration) empty() bool {
	return r.primary == nil && !r.deferred && r.users.Cardinality() == 0
}
