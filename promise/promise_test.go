package promise_test

import (
	"errors"
	"testing"

	"github.com/reactive-cells/cellgraph/cell"
	"github.com/reactive-cells/cellgraph/promise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolvesMixedItems(t *testing.T) {
	c := cell.New(cell.Options{})
	c.Activate = func() {}

	fut := cell.NewFuture()

	p := promise.New(1, c, fut, "three")

	var got []any
	var gotErr error
	p.Then(func(v []any, err error) { got = v; gotErr = err })

	assert.Nil(t, got, "not resolved until every item resolves")

	c.Trigger(2)
	assert.Nil(t, got)

	fut.Resolve(3)

	require.NoError(t, gotErr)
	require.Equal(t, []any{1, 2, 3, "three"}, got)
	assert.True(t, p.Done())
}

func TestNewRejectsOnAnyFutureRejection(t *testing.T) {
	fut := cell.NewFuture()
	boom := errors.New("boom")

	p := promise.New(1, fut, 3)

	var gotErr error
	p.Then(func(v []any, err error) { gotErr = err })

	fut.Reject(boom)

	assert.ErrorIs(t, gotErr, boom)
	assert.True(t, p.Rejected())
}

func TestNewEmptyListResolvesImmediately(t *testing.T) {
	p := promise.New()
	assert.True(t, p.Done())
	assert.Equal(t, []any{}, p.Value())
}

func TestMapAllProjectsResolvedList(t *testing.T) {
	p := promise.MapAll([]cell.Input{1, 2, 3}, func(vs []any) int {
		sum := 0
		for _, v := range vs {
			sum += v.(int)
		}
		return sum
	})

	assert.True(t, p.Done())
	assert.Equal(t, 6, p.Value())
}
