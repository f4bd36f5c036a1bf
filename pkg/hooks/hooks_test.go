package hooks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFireInvokesInRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	var order []int
	r.Register(EventNewNode, func(args ...any) { order = append(order, 1) })
	r.Register(EventNewNode, func(args ...any) { order = append(order, 2) })
	r.Register(EventNewNode, func(args ...any) { order = append(order, 3) })

	r.Fire(EventNewNode)

	require.Equal(t, []int{1, 2, 3}, order)
}

func TestFirePassesArgsThrough(t *testing.T) {
	r := NewRegistry()
	var got []any
	r.Register(EventMergeNodes, func(args ...any) { got = args })

	r.Fire(EventMergeNodes, "old", "new")

	require.Equal(t, []any{"old", "new"}, got)
}

func TestRegisterOnceIsIdempotentPerSubscriber(t *testing.T) {
	r := NewRegistry()
	calls := 0
	sub := func(args ...any) { calls++ }

	r.RegisterOnce(EventNewGraph, "stat-hook", sub)
	r.RegisterOnce(EventNewGraph, "stat-hook", sub)
	r.RegisterOnce(EventNewGraph, "other-hook", sub)

	r.Fire(EventNewGraph)

	require.Equal(t, 2, calls, "same name registers once, different name registers separately")
}

func TestReentrantFirePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(EventInline, func(args ...any) {
		require.Panics(t, func() { r.Fire(EventInline) })
	})
	r.Fire(EventInline)
}

func TestHasSubscribers(t *testing.T) {
	r := NewRegistry()
	require.False(t, r.HasSubscribers(EventLower))
	r.Register(EventLower, func(args ...any) {})
	require.True(t, r.HasSubscribers(EventLower))
}
