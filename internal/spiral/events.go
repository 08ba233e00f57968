package spiral

type EventType int

const (
	EventBeat    EventType = iota // analyzer declared a beat
	EventCleared                  // canvas was cleared
	EventRestart                  // animation restarted from scratch
)

type Event struct {
	Type     EventType
	Strength float64 // beat energy relative to the rolling mean
}

type EventHandler func(Event)

// EventBus fans events out to subscribers. Handlers run synchronously
// on the emitter's goroutine; keep them short.
type EventBus struct {
	handlers map[EventType][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(t EventType, fn EventHandler) {
	eb.handlers[t] = append(eb.handlers[t], fn)
}

func (eb *EventBus) Emit(e Event) {
	for _, fn := range eb.handlers[e.Type] {
		fn(e)
	}
}
