package theme

import (
	"context"

	"github.com/google/uuid"

	"github.com/ffs-ui/ffs/pkg/dom"
)

// Subscription identifies a change subscriber.
type Subscription string

type subscriber struct {
	id Subscription
	fn func(theme string)
}

// OnChange subscribes fn to theme changes and immediately calls it once
// with the current theme.
func (m *Manager) OnChange(fn func(theme string)) Subscription {
	id := Subscription(uuid.NewString())
	m.mu.Lock()
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	m.mu.Unlock()

	m.call(subscriber{id: id, fn: fn}, m.Current(context.Background()))
	return id
}

// OffChange removes a subscriber. It reports whether the subscription
// existed.
func (m *Manager) OffChange(id Subscription) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.subs {
		if s.id == id {
			m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Trigger notifies subscribers in registration order, then emits
// "ffs:themechange" on the document.
func (m *Manager) Trigger(theme string) {
	m.mu.RLock()
	subs := append([]subscriber(nil), m.subs...)
	m.mu.RUnlock()

	for _, s := range subs {
		m.call(s, theme)
	}
	m.doc.Emit(dom.Event{Name: dom.EventThemeChange, Detail: theme})
}

func (m *Manager) call(s subscriber, theme string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("theme subscriber panicked", "subscription", s.id, "panic", r)
		}
	}()
	s.fn(theme)
}
