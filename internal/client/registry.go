package client

import "sync"

// Levels passed to an AlertFunc. LevelTimeout is reported when the daemon's
// watchdog for the pin expires without an edge.
const (
	LevelLow     = 0
	LevelHigh    = 1
	LevelTimeout = 2
)

// AlertFunc is invoked on the notification listener's goroutine whenever a
// watched pin changes level (or its watchdog fires). Callbacks must not
// block: the next report is not read until the callback returns.
type AlertFunc func(gpio int, level int, tick uint32)

// alertEntry pairs a pin's callback with the last level it was dispatched,
// LevelTimeout dispatches excluded. lastLevel is -1 until the first
// dispatch.
type alertEntry struct {
	fn        AlertFunc
	lastLevel int
}

// registry maps a pin to its single active callback. The listener reads it
// concurrently with registration and removal from caller goroutines, so
// all access goes through the RWMutex. A dispatch in progress uses the
// snapshot taken when its record was decoded, which makes replacement
// atomic from the dispatcher's point of view.
type registry struct {
	mu      sync.RWMutex
	entries map[int]*alertEntry
}

func newRegistry() *registry {
	return &registry{entries: make(map[int]*alertEntry)}
}

// register installs fn for the pin, replacing any previous callback.
// It reports whether a callback was already present.
func (r *registry) register(gpio int, fn AlertFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced := r.entries[gpio]
	r.entries[gpio] = &alertEntry{fn: fn, lastLevel: -1}
	return replaced
}

// unregister removes the pin's callback, reporting whether one existed.
func (r *registry) unregister(gpio int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[gpio]; !ok {
		return false
	}
	delete(r.entries, gpio)
	return true
}

// clear drops every entry. Used on connection teardown.
func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[int]*alertEntry)
}

// mask returns the watch bitmask covering every registered pin.
func (r *registry) mask() uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var m uint32
	for gpio := range r.entries {
		m |= 1 << uint(gpio)
	}
	return m
}

// lookup returns the pin's callback, or nil.
func (r *registry) lookup(gpio int) AlertFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[gpio]; ok {
		return e.fn
	}
	return nil
}

// snapshot copies the current pin set and callbacks so the dispatcher can
// iterate without holding the lock across callback invocations.
func (r *registry) snapshot() map[int]AlertFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]AlertFunc, len(r.entries))
	for gpio, e := range r.entries {
		out[gpio] = e.fn
	}
	return out
}

// recordLevel stores the level last dispatched for the pin, if it is still
// registered.
func (r *registry) recordLevel(gpio, level int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[gpio]; ok {
		e.lastLevel = level
	}
}

// lastLevel returns the level last dispatched for the pin, or -1.
func (r *registry) lastLevel(gpio int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[gpio]; ok {
		return e.lastLevel
	}
	return -1
}
