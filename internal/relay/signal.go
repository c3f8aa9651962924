package relay

// Signal is a coalescing wakeup. Any number of Notify calls made before the
// waiter reads C collapse into a single wakeup.
type Signal struct {
	ch chan struct{}
}

// NewSignal returns a ready Signal.
func NewSignal() Signal {
	return Signal{ch: make(chan struct{}, 1)}
}

// Notify requests a wakeup. It never blocks.
func (s Signal) Notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// C receives once per coalesced batch of Notify calls.
func (s Signal) C() <-chan struct{} {
	return s.ch
}

// LastValue remembers the last value a producer emitted so it can skip
// emitting duplicates.
type LastValue[T comparable] struct {
	value T
	set   bool
}

// Changed reports whether v differs from the stored value. It is always true
// before the first Store.
func (l *LastValue[T]) Changed(v T) bool {
	return !l.set || l.value != v
}

// Store records v as the last emitted value.
func (l *LastValue[T]) Store(v T) {
	l.value = v
	l.set = true
}

// Get returns the stored value and whether one has been stored.
func (l *LastValue[T]) Get() (T, bool) {
	return l.value, l.set
}
