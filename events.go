package tick

import "sync"

type EventHandler func(data interface{})

type listener struct {
	id      int
	handler EventHandler
	once    bool
}

// EventEmitter dispatches engine events synchronously on the emitting
// goroutine. Handlers run on the loop goroutine and must not block.
type EventEmitter struct {
	events map[EventType][]listener
	nextID int
	mutex  sync.RWMutex
}

func NewEventEmitter() *EventEmitter {
	return &EventEmitter{
		events: make(map[EventType][]listener),
	}
}

// On registers handler and returns an id usable with RemoveListener.
func (e *EventEmitter) On(event EventType, handler EventHandler) int {
	return e.add(event, handler, false)
}

func (e *EventEmitter) Once(event EventType, handler EventHandler) int {
	return e.add(event, handler, true)
}

func (e *EventEmitter) add(event EventType, handler EventHandler, once bool) int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.nextID++
	e.events[event] = append(e.events[event], listener{id: e.nextID, handler: handler, once: once})
	return e.nextID
}

func (e *EventEmitter) Emit(event EventType, data interface{}) {
	e.mutex.Lock()
	listeners := e.events[event]
	kept := listeners[:0:0]
	for _, l := range listeners {
		if !l.once {
			kept = append(kept, l)
		}
	}
	if len(kept) != len(listeners) {
		e.events[event] = kept
	}
	e.mutex.Unlock()

	for _, l := range listeners {
		l.handler(data)
	}
}

func (e *EventEmitter) RemoveListener(event EventType, id int) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	listeners := e.events[event]
	for i, l := range listeners {
		if l.id == id {
			e.events[event] = append(listeners[:i:i], listeners[i+1:]...)
			break
		}
	}
}
