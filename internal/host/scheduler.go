package host

// FrameID identifies a requested frame callback.
type FrameID int

// FrameFunc is invoked once per display frame.
type FrameFunc func()

// Scheduler requests per-frame callbacks, in the manner of requestAnimationFrame.
type Scheduler interface {
	RequestFrame(fn FrameFunc) FrameID
	CancelFrame(id FrameID)
}

// FrameLoop is a Scheduler whose frames are driven by calls to Step.
type FrameLoop struct {
	pending map[FrameID]FrameFunc
	order   []FrameID
	nextID  FrameID
	frames  int
}

// NewFrameLoop returns an empty frame loop.
func NewFrameLoop() *FrameLoop {
	return &FrameLoop{pending: make(map[FrameID]FrameFunc), nextID: 1}
}

// RequestFrame implements Scheduler.
func (l *FrameLoop) RequestFrame(fn FrameFunc) FrameID {
	id := l.nextID
	l.nextID++
	l.pending[id] = fn
	l.order = append(l.order, id)
	return id
}

// CancelFrame implements Scheduler. Unknown ids are ignored.
func (l *FrameLoop) CancelFrame(id FrameID) {
	delete(l.pending, id)
}

// Step runs every callback pending at the start of the call. Callbacks
// requested while stepping run on the next Step. It returns how many ran.
func (l *FrameLoop) Step() int {
	order := l.order
	l.order = nil

	ran := 0
	for _, id := range order {
		fn, ok := l.pending[id]
		if !ok {
			continue
		}
		delete(l.pending, id)
		fn()
		ran++
	}
	l.frames++
	return ran
}

// Pending returns the number of callbacks waiting for the next Step.
func (l *FrameLoop) Pending() int {
	return len(l.pending)
}

// Frames returns the number of Step calls so far.
func (l *FrameLoop) Frames() int {
	return l.frames
}
