package cache_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/reactive-cells/cellgraph/cache"
	"github.com/reactive-cells/cellgraph/cell"
	"github.com/reactive-cells/cellgraph/frameproxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDeferredToParentMirrorsAcrossFrameProxy is S6 wired through the
// SharedCache itself: a UUID within the deferred-prefix range never claims
// local ownership, instead routing through a frameproxy.Client/FrameProxy
// pair to a producer cell living in the parent frame.
func TestDeferredToParentMirrorsAcrossFrameProxy(t *testing.T) {
	id := uuid.New()
	uuidStr := id.String()

	parentSide, childSide := frameproxy.Pipe("parent", "child")

	producer := cell.New(cell.Options{})
	proxy := frameproxy.New(parentSide, frameproxy.Options{
		FromUUID: func(u string) (*cell.Cell, error) {
			if u == uuidStr {
				return producer, nil
			}
			return nil, assert.AnError
		},
	})
	proxy.AddChild("child")

	client := frameproxy.NewClient(childSide, "parent", nil)

	store := cache.NewMemoryStore()
	sc := cache.New(store, cache.Options{
		SessionID:     "child001",
		DeferPrefixes: []string{uuidStr[:8]},
		Parent:        client,
	})

	mirror := cell.New(cell.Options{CacheIdentity: &cell.CacheIdentity{UUID: id}, Cache: sc})
	mirror.Use()
	assert.False(t, mirror.Ready())

	// No local owner key is ever claimed for a deferred UUID.
	_, ok, _ := store.Get("owner." + uuidStr)
	assert.False(t, ok)

	producer.Trigger(42)
	assert.True(t, mirror.Ready())
	assert.Equal(t, 42, mirror.Value())

	producer.Trigger(43)
	assert.Equal(t, 43, mirror.Value())

	mirror.Drop()
	require.Equal(t, 0, producer.UserCount(), "dropping the last mirror relinquishes the frameproxy subscription")
}
