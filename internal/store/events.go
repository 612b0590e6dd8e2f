package store

// EventKind describes what changed in the store.
type EventKind int

const (
	EventLoaded EventKind = iota
	EventCreated
	EventUpdated
	EventDeleted
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventCreated:
		return "created"
	case EventUpdated:
		return "updated"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners after every committed change.
type Event struct {
	Kind    EventKind
	TaskID  string
	Version uint64
}

// Listener receives store events. It runs on the goroutine that made the
// change and must not block.
type Listener func(Event)

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once bool
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if once {
			return
		}
		once = true
		delete(s.listeners, id)
	}
}

// commit bumps the version and returns a func that notifies listeners.
// Callers hold s.mu and invoke the result after unlocking.
func (s *Store) commit(ev Event) func() {
	s.version++
	ev.Version = s.version

	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}

	return func() {
		for _, l := range listeners {
			l(ev)
		}
	}
}
