package frameproxy_test

import (
	"errors"
	"testing"

	"github.com/reactive-cells/cellgraph/cell"
	"github.com/reactive-cells/cellgraph/frameproxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCrossFrameScenario is S6: parent registers UUID "x" with producer P;
// child creates mirror Mx; child.tie(f) causes useSpook:x to parent;
// P.trigger(42) causes {spookCacheUpdate:{uuid:"x",value:42}} back; f
// called with 42; child.untie sends dropSpook:x; parent unnotifies P.
func TestCrossFrameScenario(t *testing.T) {
	parentSide, childSide := frameproxy.Pipe("parent", "child")

	producer := cell.New(cell.Options{})

	proxy := frameproxy.New(parentSide, frameproxy.Options{
		FromUUID: func(uuid string) (*cell.Cell, error) {
			if uuid == "x" {
				return producer, nil
			}
			return nil, errors.New("unknown uuid")
		},
	})
	proxy.AddChild("child")

	client := frameproxy.NewClient(childSide, "parent", nil)

	mx := cell.New(cell.Options{})
	unsub, err := client.Subscribe("x", func(s string) (any, error) { return s, nil }, func(v any, ok bool) {
		if ok {
			mx.Changed(v)
		} else {
			mx.Reset()
		}
	})
	require.NoError(t, err)

	// useSpook round-trip delivered the producer's not-ready state.
	assert.False(t, mx.Ready())

	var observed any
	mx.Tie(func(v any) { observed = v })

	producer.Trigger(42)
	assert.Equal(t, 42, observed)
	assert.True(t, mx.Ready())
	assert.Equal(t, 1, producer.UserCount(), "proxy holds exactly one use() on the producer")

	unsub()
	// dropSpook emptied the subscriber set, so the proxy unnotified and
	// dropped its hold on the producer.
	assert.Equal(t, 0, producer.UserCount())
}

func TestUnknownUUIDRepliesSpookUnknown(t *testing.T) {
	parentSide, childSide := frameproxy.Pipe("parent", "child")

	proxy := frameproxy.New(parentSide, frameproxy.Options{
		FromUUID: func(uuid string) (*cell.Cell, error) { return nil, errors.New("no such producer") },
	})
	proxy.AddChild("child")

	client := frameproxy.NewClient(childSide, "parent", nil)

	gotOK := true
	_, err := client.Subscribe("missing", func(s string) (any, error) { return s, nil }, func(v any, ok bool) {
		gotOK = ok
	})
	require.NoError(t, err)

	assert.False(t, gotOK)
}

func TestPeerOriginRejectsUnknownSource(t *testing.T) {
	bus := frameproxy.NewBus()
	parentSide := bus.Endpoint("parent")
	strangerSide := bus.Endpoint("stranger")

	called := false
	proxy := frameproxy.New(parentSide, frameproxy.Options{
		FromUUID: func(uuid string) (*cell.Cell, error) {
			called = true
			return cell.New(cell.Options{}), nil
		},
	})
	proxy.AddChild("child") // "stranger" is deliberately never added

	require.NoError(t, strangerSide.Send("parent", map[string]any{"useSpook": "x"}))

	assert.False(t, called, "a message from a non-child source must never resolve a producer")
}
