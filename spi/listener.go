package spi

import (
	"sort"
	"sync"
)

// Event is an accessibility event delivered to an EventListener.
type Event struct {
	Type    string
	Source  *Accessible
	Detail1 int
	Detail2 int
}

// EventCallback handles one event.
type EventCallback func(e *Event)

// CallbackID identifies a registered callback. Functions are not
// comparable, so callbacks are removed by the id AddCallback returned.
type CallbackID int

// EventListener fans events out to in-process callbacks.
type EventListener struct {
	mu        sync.Mutex
	next      CallbackID
	callbacks map[CallbackID]EventCallback
}

// NewEventListener creates a listener, registering cb when it is not nil.
func NewEventListener(cb EventCallback) *EventListener {
	l := &EventListener{callbacks: make(map[CallbackID]EventCallback)}
	if cb != nil {
		l.AddCallback(cb)
	}
	return l
}

// AddCallback registers cb and returns its id.
func (l *EventListener) AddCallback(cb EventCallback) CallbackID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.callbacks[l.next] = cb
	return l.next
}

// RemoveCallback unregisters the callback with id, reporting whether it
// was registered.
func (l *EventListener) RemoveCallback(id CallbackID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.callbacks[id]
	delete(l.callbacks, id)
	return ok
}

// Len returns the number of registered callbacks.
func (l *EventListener) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.callbacks)
}

// Notify calls every callback with e in registration order.
func (l *EventListener) Notify(e *Event) {
	l.mu.Lock()
	ids := sortedIDs(l.callbacks)
	cbs := make([]EventCallback, len(ids))
	for i, id := range ids {
		cbs[i] = l.callbacks[id]
	}
	l.mu.Unlock()

	for _, cb := range cbs {
		cb(e)
	}
}

// KeyEventType tells presses from releases.
type KeyEventType int

const (
	KeyPressed KeyEventType = iota
	KeyReleased
)

// KeyStroke is a key event delivered to a KeystrokeListener.
type KeyStroke struct {
	KeyID     int32
	KeyCode   int16
	Type      KeyEventType
	Modifiers uint16
}

// KeystrokeCallback handles a key event and reports whether it consumed it.
type KeystrokeCallback func(k *KeyStroke) bool

// KeystrokeListener fans key events out to in-process callbacks.
type KeystrokeListener struct {
	mu        sync.Mutex
	next      CallbackID
	callbacks map[CallbackID]KeystrokeCallback
}

// NewKeystrokeListener creates a listener, registering cb when it is not nil.
func NewKeystrokeListener(cb KeystrokeCallback) *KeystrokeListener {
	l := &KeystrokeListener{callbacks: make(map[CallbackID]KeystrokeCallback)}
	if cb != nil {
		l.AddCallback(cb)
	}
	return l
}

// AddCallback registers cb and returns the id that removes it.
func (l *KeystrokeListener) AddCallback(cb KeystrokeCallback) CallbackID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.callbacks[l.next] = cb
	return l.next
}

// RemoveCallback unregisters the callback with id, reporting whether it was present.
func (l *KeystrokeListener) RemoveCallback(id CallbackID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.callbacks[id]
	delete(l.callbacks, id)
	return ok
}

// Len returns the number of registered callbacks.
func (l *KeystrokeListener) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.callbacks)
}

// Notify calls every callback in registration order and reports whether
// any of them consumed k. All callbacks run regardless.
func (l *KeystrokeListener) Notify(k *KeyStroke) bool {
	l.mu.Lock()
	ids := sortedIDs(l.callbacks)
	cbs := make([]KeystrokeCallback, len(ids))
	for i, id := range ids {
		cbs[i] = l.callbacks[id]
	}
	l.mu.Unlock()

	consumed := false
	for _, cb := range cbs {
		if cb(k) {
			consumed = true
		}
	}
	return consumed
}

func sortedIDs[T any](m map[CallbackID]T) []CallbackID {
	ids := make([]CallbackID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
