package cell

import "github.com/reactive-cells/cellgraph/internal/wire"

// defaultSerialise/defaultDeserialise back a CacheIdentity that doesn't
// configure its own pair: a canonical textual form via internal/wire,
// matching §6's "for cells without a serialiser, a canonical textual form
// of the value".
func defaultSerialise(v any) (string, error) { return wire.Serialise(v) }

func defaultDeserialise(text string) (any, error) { return wire.Deserialise(text) }
