package cell

import "time"

// Clock abstracts wall-clock ticking for IntervalCell so tests can supply a
// deterministic fake instead of a real 1s ticker.
type Clock interface {
	// Tick starts a periodic timer at interval d and returns a channel that
	// receives the current time on each tick, plus a stop function.
	Tick(d time.Duration) (<-chan time.Time, func())
}

type realClock struct{}

func (realClock) Tick(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// RealClock is the default host clock, backed by time.NewTicker.
var RealClock Clock = realClock{}

// NewIntervalCell is a producer cell that, while in use, emits the current
// wall-clock instant (second precision) at a one-second cadence, and
// releases the timer on finalise (§4.4).
func NewIntervalCell(clock Clock) *Cell {
	if clock == nil {
		clock = RealClock
	}
	c := New(Options{})
	var stop func()
	var done chan struct{}
	c.Activate = func() {
		ticks, stopFn := clock.Tick(time.Second)
		stop = stopFn
		done = make(chan struct{})
		done := done
		go func() {
			for {
				select {
				case t, ok := <-ticks:
					if !ok {
						return
					}
					c.Trigger(t.Truncate(time.Second))
				case <-done:
					return
				}
			}
		}()
	}
	c.Deactivate = func() {
		if stop != nil {
			stop()
			stop = nil
		}
		if done != nil {
			close(done)
			done = nil
		}
	}
	return c
}

// Latch wraps one input cell: before the input is ready it presents def (if
// given), and once the input first becomes ready it adopts that value and
// detaches from the input permanently (§4.4).
func Latch(input *Cell, def ...any) *Cell {
	l := New(Options{MayBeNull: true})
	if len(def) > 0 {
		l.DefaultTo(def[0])
	}
	latched := false
	l.Activate = func() {
		if latched {
			return
		}
		input.Then(func(v any) {
			latched = true
			l.Changed(v)
		})
	}
	return l
}

// Default always reports ready: it mirrors input when input is ready, and
// otherwise shows def (§4.4).
func Default(input *Cell, def any) *Cell {
	d := New(Options{MayBeNull: true})
	d.DefaultTo(def)
	var tok Token
	d.Activate = func() {
		tok = input.Notify(func() {
			if input.Ready() {
				d.Changed(input.Value())
			} else {
				d.Reset()
			}
		})
		if input.Ready() {
			d.Changed(input.Value())
		}
	}
	d.Deactivate = func() {
		input.Unnotify(tok)
	}
	return d
}

// ReadyProbe always reports ready; its value is the boolean readiness of
// input (§4.4).
func ReadyProbe(input *Cell) *Cell {
	p := New(Options{})
	p.DefaultTo(false)
	var tok Token
	p.Activate = func() {
		tok = input.Notify(func() { p.Changed(input.Ready()) })
		p.Changed(input.Ready())
	}
	p.Deactivate = func() {
		input.Unnotify(tok)
	}
	return p
}

// Subscription is a handle on an open RPC subscription, closed on finalise.
type Subscription interface {
	Close() error
}

// RPCClient is the injected collaborator a SubscriptionCell uses to open a
// push subscription (§4.4). It is deliberately minimal: the domain-specific
// producers that speak a particular wire protocol are out of scope (§1) and
// adapt to this interface instead.
type RPCClient interface {
	Subscribe(params any, onValue func(any), onError func(error)) (Subscription, error)
}

// NewSubscriptionCell is a producer that, on initialise, opens a
// subscription via client, relays pushed values through Trigger, and closes
// the subscription on finalise (§4.4).
func NewSubscriptionCell(client RPCClient, params any, opts Options) *Cell {
	c := New(opts)
	var sub Subscription
	c.Activate = func() {
		s, err := client.Subscribe(params, func(v any) {
			c.Trigger(v)
		}, func(err error) {
			c.logger().Printf("subscription cell #%d error: %v", c.ID(), err)
		})
		if err != nil {
			c.logger().Printf("subscription cell #%d: subscribe failed: %v", c.ID(), err)
			return
		}
		sub = s
	}
	c.Deactivate = func() {
		if sub != nil {
			_ = sub.Close()
			sub = nil
		}
	}
	return c
}
