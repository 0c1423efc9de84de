// Package event provides typed, synchronous multi-listener notifications.
package event

// Signal fans a value out to every registered listener in registration order.
// Delivery happens in the caller goroutine. A Signal is not safe for
// concurrent use; it belongs to whichever goroutine owns the emitter.
type Signal[T any] struct {
	nextID    int
	listeners []listener[T]
}

type listener[T any] struct {
	id int
	fn func(T)
}

// AddListener registers fn and returns a function that removes it again.
// Calling the returned function more than once is harmless.
func (s *Signal[T]) AddListener(fn func(T)) (remove func()) {
	if fn == nil {
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})
	return func() {
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Invoke calls every listener with v. Listeners added or removed during
// delivery take effect on the next Invoke.
func (s *Signal[T]) Invoke(v T) {
	snapshot := s.listeners
	for _, l := range snapshot {
		l.fn(v)
	}
}

// Len returns the number of registered listeners.
func (s *Signal[T]) Len() int {
	return len(s.listeners)
}

// Empty is the payload of signals that carry no data.
type Empty struct{}
