package dom

import "sync"

// Page-level events emitted by ffs.
const (
	EventReady       = "ffs:ready"
	EventThemeReady  = "ffs:themeready"
	EventThemeChange = "ffs:themechange"
)

// Event is a named notification with an optional string payload.
type Event struct {
	Name   string
	Detail string
}

type listener struct {
	id int
	fn func(Event)
}

type bus struct {
	mu        sync.Mutex
	next      int
	listeners map[string][]listener
}

func newBus() *bus {
	return &bus{listeners: make(map[string][]listener)}
}

// On registers fn for events called name and returns a function that
// removes the registration.
func (d *Document) On(name string, fn func(Event)) (off func()) {
	b := d.events
	b.mu.Lock()
	b.next++
	id := b.next
	b.listeners[name] = append(b.listeners[name], listener{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		ls := b.listeners[name]
		for i, l := range ls {
			if l.id == id {
				b.listeners[name] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev to its listeners in registration order. A panicking
// listener is logged through the document's logger and skipped.
func (d *Document) Emit(ev Event) {
	b := d.events
	b.mu.Lock()
	ls := append([]listener(nil), b.listeners[ev.Name]...)
	b.mu.Unlock()

	for _, l := range ls {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.log().Warn("event listener panicked", "event", ev.Name, "panic", r)
				}
			}()
			l.fn(ev)
		}()
	}
}
