package core

// EventType represents the type of change in the scene.
type EventType string

const (
	EventCreated      EventType = "CREATED"
	EventMoved        EventType = "MOVED"
	EventResized      EventType = "RESIZED"
	EventRotated      EventType = "ROTATED"
	EventTextChanged  EventType = "TEXT_CHANGED"
	EventStyleChanged EventType = "STYLE_CHANGED"
	EventDeleted      EventType = "DELETED"

	// EventBoundsChanged fires when the scene rectangle expands. It carries
	// no entity id.
	EventBoundsChanged EventType = "BOUNDS_CHANGED"

	// EventViewChanged fires when the viewport's zoom or pan changes. It
	// carries no entity id.
	EventViewChanged EventType = "VIEW_CHANGED"
)

// Event represents a change in the scene, delivered synchronously on the
// mutating goroutine.
type Event struct {
	Type      EventType
	Kind      Kind
	ID        EntityID
	Timestamp int64 // Unix nanoseconds
}

// Subscribe registers an observer for scene events. Observers are invoked
// synchronously, in registration order, on the goroutine performing the
// mutation.
func (s *Scene) Subscribe(fn func(Event)) {
	s.observers = append(s.observers, fn)
}

func (s *Scene) emit(t EventType, kind Kind, id EntityID) {
	if len(s.observers) == 0 {
		return
	}
	ev := Event{Type: t, Kind: kind, ID: id, Timestamp: s.now().UnixNano()}
	for _, fn := range s.observers {
		fn(ev)
	}
}
