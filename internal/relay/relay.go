package relay

import "sync"

// Result reports what a non-blocking send did with its value.
type Result int

const (
	// Sent means the value was buffered for the receiver.
	Sent Result = iota
	// Superseded means the value was buffered after older, unread values
	// were discarded to make room.
	Superseded
	// Full means the buffer had no room and the value was dropped.
	Full
	// Closed means the receiver has hung up; the value was dropped.
	Closed
)

func (r Result) String() string {
	switch r {
	case Sent:
		return "sent"
	case Superseded:
		return "superseded"
	case Full:
		return "full"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Delivered reports whether the value reached the buffer.
func (r Result) Delivered() bool {
	return r == Sent || r == Superseded
}

type link[T any] struct {
	ch        chan T
	gone      chan struct{}
	closeOnce sync.Once
	goneOnce  sync.Once
}

// Sender is the producing end of a bounded channel. A Sender has a single
// owner; Close must not race with TrySend or Overwrite.
type Sender[T any] struct {
	l *link[T]
}

// Receiver is the consuming end of a bounded channel.
type Receiver[T any] struct {
	l *link[T]
}

// New returns both ends of a channel buffering at most capacity values.
// Capacities below one are raised to one.
func New[T any](capacity int) (*Sender[T], *Receiver[T]) {
	if capacity < 1 {
		capacity = 1
	}
	l := &link[T]{
		ch:   make(chan T, capacity),
		gone: make(chan struct{}),
	}
	return &Sender[T]{l: l}, &Receiver[T]{l: l}
}

// TrySend buffers v if there is room. It never blocks.
func (s *Sender[T]) TrySend(v T) Result {
	select {
	case <-s.l.gone:
		return Closed
	default:
	}
	select {
	case s.l.ch <- v:
		return Sent
	default:
		return Full
	}
}

// Overwrite buffers v, discarding the oldest unread values while the buffer
// is full. It never blocks.
func (s *Sender[T]) Overwrite(v T) Result {
	result := Sent
	for {
		select {
		case <-s.l.gone:
			return Closed
		default:
		}
		select {
		case s.l.ch <- v:
			return result
		default:
		}
		select {
		case <-s.l.ch:
			result = Superseded
		default:
		}
	}
}

// Close tells the receiver no further values will be sent. Buffered values
// remain readable. Close is idempotent.
func (s *Sender[T]) Close() {
	s.l.closeOnce.Do(func() { close(s.l.ch) })
}

// Done is closed once the receiver has hung up.
func (s *Sender[T]) Done() <-chan struct{} {
	return s.l.gone
}

// C returns the channel values arrive on. It is closed after the sender
// closes and the buffer has been drained.
func (r *Receiver[T]) C() <-chan T {
	return r.l.ch
}

// Close hangs up: subsequent sends report Closed. Close is idempotent.
func (r *Receiver[T]) Close() {
	r.l.goneOnce.Do(func() { close(r.l.gone) })
}

// Drain empties the buffer without blocking and returns the newest value.
// ok is false when nothing was buffered. open is false once the sender has
// closed and every buffered value has been read.
func (r *Receiver[T]) Drain() (latest T, ok, open bool) {
	for {
		select {
		case v, more := <-r.l.ch:
			if !more {
				return latest, ok, false
			}
			latest, ok = v, true
		default:
			return latest, ok, true
		}
	}
}
