// Package host models the environment a view is mounted into: event targets
// for the container and window, and a frame scheduler.
package host

import "sort"

// EventKind identifies an input or layout event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	Wheel
	Resize
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "pointerdown"
	case PointerMove:
		return "pointermove"
	case PointerUp:
		return "pointerup"
	case Wheel:
		return "wheel"
	case Resize:
		return "resize"
	default:
		return "unknown"
	}
}

// Event is a dispatched input event. Coordinates are in container pixels.
type Event struct {
	Kind   EventKind
	X, Y   float64
	DeltaY float64

	defaultPrevented bool
}

// PreventDefault suppresses the host's default action for the event.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether a handler called PreventDefault.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Handler receives dispatched events.
type Handler func(*Event)

// Target dispatches events to registered listeners. The zero value is ready
// to use. Targets are driven from a single goroutine.
type Target struct {
	handlers map[EventKind]map[int]Handler
	nextID   int
}

// Listen registers h for kind and returns a function that removes it.
// The remove function is idempotent.
func (t *Target) Listen(kind EventKind, h Handler) (remove func()) {
	if t.handlers == nil {
		t.handlers = make(map[EventKind]map[int]Handler)
	}
	if t.handlers[kind] == nil {
		t.handlers[kind] = make(map[int]Handler)
	}
	id := t.nextID
	t.nextID++
	t.handlers[kind][id] = h

	return func() {
		delete(t.handlers[kind], id)
		if len(t.handlers[kind]) == 0 {
			delete(t.handlers, kind)
		}
	}
}

// Dispatch delivers ev to every listener for its kind, in registration order.
func (t *Target) Dispatch(ev *Event) {
	hs := t.handlers[ev.Kind]
	if len(hs) == 0 {
		return
	}
	ids := make([]int, 0, len(hs))
	for id := range hs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		// A handler may remove a later one.
		if h, ok := hs[id]; ok {
			h(ev)
		}
	}
}

// ListenerCount returns the number of registered listeners across all kinds.
func (t *Target) ListenerCount() int {
	n := 0
	for _, hs := range t.handlers {
		n += len(hs)
	}
	return n
}

// Container is the element a view draws into.
type Container struct {
	Target
	width, height int
}

// NewContainer creates a container with the given pixel bounds.
func NewContainer(width, height int) *Container {
	return &Container{width: width, height: height}
}

// Bounds returns the container size in pixels.
func (c *Container) Bounds() (width, height int) {
	return c.width, c.height
}

// Resize updates the container bounds. Listeners learn about it through the
// window's Resize event.
func (c *Container) Resize(width, height int) {
	c.width, c.height = width, height
}

// Window is the top-level event target that carries resize notifications.
type Window struct {
	Target
}
