package cell_test

import (
	"testing"
	"time"

	"github.com/reactive-cells/cellgraph/cell"
	"github.com/stretchr/testify/assert"
)

// S1 Basic trigger
func TestBasicTrigger(t *testing.T) {
	c := cell.New(cell.Options{})
	var got []any
	c.Tie(func(v any) { got = append(got, v) })

	assert.False(t, c.Ready())
	c.Trigger(69)
	assert.Equal(t, []any{69}, got)

	c.Trigger(69)
	assert.Equal(t, []any{69}, got, "equal value must not re-fire")

	c.Trigger(70)
	assert.Equal(t, []any{69, 70}, got)
}

// S2 Map
func TestMapSum(t *testing.T) {
	a := cell.New(cell.Options{})
	b := cell.New(cell.Options{})
	tc := cell.Map(func(args []any) any {
		return args[0].(int) + args[1].(int)
	}, a, b)

	var got []any
	tc.Tie(func(v any) { got = append(got, v) })

	a.Trigger(60)
	assert.Empty(t, got, "b not ready yet")

	b.Trigger(9)
	assert.Equal(t, []any{69}, got)

	a.Trigger(61)
	assert.Equal(t, []any{69, 70}, got)
}

// S3 Latch
func TestLatch(t *testing.T) {
	a := cell.New(cell.Options{})
	l := cell.Latch(a, 0)

	var got []any
	l.Tie(func(v any) { got = append(got, v) })
	assert.Equal(t, []any{0}, got)

	a.Trigger(7)
	assert.Equal(t, []any{0, 7}, got)

	a.Trigger(8)
	assert.Equal(t, []any{0, 7}, got, "latch must detach after first ready value")
}

// S4 Default
func TestDefault(t *testing.T) {
	a := cell.New(cell.Options{})
	d := cell.Default(a, 5)

	var got []any
	d.Tie(func(v any) { got = append(got, v) })
	assert.Equal(t, []any{5}, got)

	a.Trigger(9)
	assert.Equal(t, []any{5, 9}, got)

	a.Reset()
	assert.Equal(t, []any{5, 9, 5}, got)
}

// fakeClock lets the interval test avoid sleeping a real second.
type fakeClock struct {
	ch   chan time.Time
	stop func()
}

func (f *fakeClock) Tick(d time.Duration) (<-chan time.Time, func()) {
	return f.ch, func() {
		if f.stop != nil {
			f.stop()
		}
	}
}

// S5 Interval lifecycle
func TestIntervalLifecycle(t *testing.T) {
	stopped := false
	clk := &fakeClock{ch: make(chan time.Time), stop: func() { stopped = true }}
	iv := cell.NewIntervalCell(clk)

	tok := iv.Tie(func(v any) {})
	assert.False(t, stopped)

	iv.Untie(tok)
	assert.True(t, stopped)
}

func TestUseDropNoOp(t *testing.T) {
	c := cell.New(cell.Options{})
	c.Use()
	c.Drop()
	assert.Equal(t, 0, c.UserCount())
}

func TestUntieUnknownTokenWarns(t *testing.T) {
	c := cell.New(cell.Options{})
	tok := c.Tie(func(any) {})
	c.Untie(tok)
	assert.NotPanics(t, func() { c.Untie(tok) })
}

func TestDropUnderflowPanics(t *testing.T) {
	c := cell.New(cell.Options{})
	assert.Panics(t, func() { c.Drop() })
}

func TestThenFiresOnceAndSynchronouslyWhenReady(t *testing.T) {
	c := cell.New(cell.Options{})
	c.Trigger(1)

	calls := 0
	c.Then(func(v any) { calls++; assert.Equal(t, 1, v) })
	assert.Equal(t, 1, calls)

	c.Trigger(2)
	assert.Equal(t, 1, calls, "then() must fire at most once")
}

func TestThenQueuesUntilReady(t *testing.T) {
	c := cell.New(cell.Options{})
	calls := 0
	c.Then(func(v any) { calls++ })
	assert.Equal(t, 0, calls)

	c.Trigger(1)
	assert.Equal(t, 1, calls)

	c.Trigger(2)
	assert.Equal(t, 1, calls)
}

func TestNotifyFiresOnReadyAndNotReadyTransitions(t *testing.T) {
	c := cell.New(cell.Options{})
	transitions := 0
	c.Notify(func() { transitions++ })

	c.Trigger(1)
	assert.Equal(t, 1, transitions)

	c.Reset()
	assert.Equal(t, 2, transitions)
}

func TestCanonicalEqualitySuppressesTransition(t *testing.T) {
	c := cell.New(cell.Options{})
	notifications := 0
	c.Notify(func() { notifications++ })

	c.Changed(map[string]any{"a": 1, "b": 2})
	assert.Equal(t, 1, notifications)

	c.Changed(map[string]any{"b": 2, "a": 1}) // same content, different key order
	assert.Equal(t, 1, notifications, "canonically-equal values must not retrigger")
}

func TestDoneUntiesAfterPredicateSatisfied(t *testing.T) {
	c := cell.New(cell.Options{})
	c.IsDoneFunc = func(v any) bool { return v.(int) >= 2 }

	var got []any
	c.Done(func(v any) { got = append(got, v) })

	c.Trigger(1)
	c.Trigger(2)
	c.Trigger(3)

	assert.Equal(t, []any{1, 2}, got)
}

func TestReentrantTriggerIsIgnored(t *testing.T) {
	c := cell.New(cell.Options{})
	var secondCallSucceeded bool
	c.Tie(func(v any) {
		if v == 1 {
			c.Trigger(2) // reentrant; must warn and no-op
			secondCallSucceeded = c.Value() == 2
		}
	})
	c.Trigger(1)
	assert.False(t, secondCallSucceeded)
	assert.Equal(t, 1, c.Value())
}

func TestMayBeNullPolicy(t *testing.T) {
	nullable := cell.New(cell.Options{MayBeNull: true})
	nullable.Changed(nil)
	assert.True(t, nullable.Ready())
	assert.Nil(t, nullable.Value())

	strict := cell.New(cell.Options{})
	strict.Trigger(1)
	strict.Changed(nil)
	assert.False(t, strict.Ready(), "nil on a non-nullable cell resets it")
}

// S9 Subscript proxy transparency, plain key
func TestSubPlainKey(t *testing.T) {
	parent := cell.New(cell.Options{})
	sub := cell.Sub(parent, "b")

	var got []any
	sub.Tie(func(v any) { got = append(got, v) })
	assert.Empty(t, got, "parent not ready yet")

	parent.Trigger(map[string]any{"a": 1, "b": 2})
	assert.Equal(t, []any{2}, got)

	parent.Trigger(map[string]any{"a": 1, "b": 3})
	assert.Equal(t, []any{2, 3}, got)
}

// S9 Subscript proxy transparency, cell-as-key
func TestSubCellAsKey(t *testing.T) {
	parent := cell.New(cell.Options{})
	index := cell.New(cell.Options{})
	sub := cell.Sub(parent, index)

	var got []any
	sub.Tie(func(v any) { got = append(got, v) })

	parent.Trigger([]any{10, 20, 30})
	assert.Empty(t, got, "index not ready yet")

	index.Trigger(1)
	assert.Equal(t, []any{20}, got)

	index.Trigger(2)
	assert.Equal(t, []any{20, 30}, got)
}

func TestSubChainNested(t *testing.T) {
	parent := cell.New(cell.Options{})
	chained := cell.SubChain(parent, "outer", "inner")

	var got []any
	chained.Tie(func(v any) { got = append(got, v) })

	parent.Trigger(map[string]any{
		"outer": map[string]any{"inner": 42},
	})
	assert.Equal(t, []any{42}, got)
}

func TestRankIncreasesWithDependencyDepth(t *testing.T) {
	a := cell.New(cell.Options{})
	a.Activate = func() {}
	assert.Equal(t, 0, a.Rank())

	b := cell.Map(func(args []any) any { return args[0] }, a)
	c := cell.Map(func(args []any) any { return args[0] }, b.Cell)
	c.Use()
	defer c.Drop()

	assert.Equal(t, 0, a.Rank())
	assert.Equal(t, 1, b.Rank())
	assert.Equal(t, 2, c.Rank())
}
