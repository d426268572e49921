// Package cache implements the shared, UUID-keyed owner-election cache of
// spec §4.6: exactly one owning instance per UUID across concurrent
// tabs/frames sharing a common key-value Store, with value persistence and
// ownership migration on disconnect.
package cache

// Store abstracts the host's shared key-value store (§6: "a shared
// key-value store with get/set/delete by string key, and a subscription to
// change events"). Implementations back it with whatever the host provides
// (browser localStorage/BroadcastChannel, a Redis pub/sub keyspace, an
// in-process map for tests); cellgraph ships only the in-process
// MemoryStore used by its own tests.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	// Watch registers onChange to be called whenever key changes (including
	// writes made by this same process — SharedCache's handling of these
	// events is idempotent, per §5's "consumers must be idempotent"
	// requirement, so a self-notification is harmless). newValue == nil
	// means the key was deleted. Returns an unsubscribe function.
	Watch(onChange func(key string, newValue *string)) (unsubscribe func())
}
