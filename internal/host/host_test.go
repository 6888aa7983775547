package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetListenDispatch(t *testing.T) {
	var tgt Target
	var got []string

	removeA := tgt.Listen(Wheel, func(e *Event) { got = append(got, "a") })
	tgt.Listen(Wheel, func(e *Event) {
		got = append(got, "b")
		e.PreventDefault()
	})
	tgt.Listen(PointerDown, func(e *Event) { got = append(got, "down") })

	ev := &Event{Kind: Wheel, DeltaY: 100}
	tgt.Dispatch(ev)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.True(t, ev.DefaultPrevented())
	assert.Equal(t, 3, tgt.ListenerCount())

	removeA()
	removeA()
	assert.Equal(t, 2, tgt.ListenerCount())

	got = nil
	tgt.Dispatch(&Event{Kind: Wheel})
	assert.Equal(t, []string{"b"}, got)
}

func TestTargetRemoveDuringDispatch(t *testing.T) {
	var tgt Target
	calls := 0
	var removeSecond func()
	tgt.Listen(PointerMove, func(*Event) {
		calls++
		removeSecond()
	})
	removeSecond = tgt.Listen(PointerMove, func(*Event) { calls += 10 })

	tgt.Dispatch(&Event{Kind: PointerMove})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, tgt.ListenerCount())
}

func TestTargetZeroValue(t *testing.T) {
	var tgt Target
	assert.Equal(t, 0, tgt.ListenerCount())
	assert.NotPanics(t, func() { tgt.Dispatch(&Event{Kind: Resize}) })
}

func TestContainerBounds(t *testing.T) {
	c := NewContainer(80, 48)
	w, h := c.Bounds()
	assert.Equal(t, 80, w)
	assert.Equal(t, 48, h)

	c.Resize(0, 0)
	w, h = c.Bounds()
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestFrameLoop(t *testing.T) {
	loop := NewFrameLoop()
	count := 0

	var tick FrameFunc
	tick = func() {
		count++
		loop.RequestFrame(tick)
	}
	loop.RequestFrame(tick)
	require.Equal(t, 1, loop.Pending())

	for i := 0; i < 5; i++ {
		assert.Equal(t, 1, loop.Step(), "self-rescheduling callback runs once per step")
	}
	assert.Equal(t, 5, count)
	assert.Equal(t, 5, loop.Frames())
	assert.Equal(t, 1, loop.Pending())
}

func TestFrameLoopCancel(t *testing.T) {
	loop := NewFrameLoop()
	ran := false
	id := loop.RequestFrame(func() { ran = true })
	loop.CancelFrame(id)
	loop.CancelFrame(id)
	loop.CancelFrame(FrameID(999))

	assert.Equal(t, 0, loop.Pending())
	assert.Equal(t, 0, loop.Step())
	assert.False(t, ran)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "wheel", Wheel.String())
	assert.Equal(t, "resize", Resize.String())
	assert.Equal(t, "unknown", EventKind(42).String())
}
