// Package notify holds the keyed, dismissible alert queue shown by the
// console. Showing a notification whose key is already present replaces the
// earlier one, so callers can clear every alert about a subject at once.
package notify

import "sync"

// Variant is the severity of a notification.
type Variant string

const (
	Info    Variant = "info"
	Danger  Variant = "danger"
	Tip     Variant = "tip"
	Warning Variant = "warning"
	Success Variant = "success"
)

// Notification is a single alert.
type Notification struct {
	// Key groups related notifications: a new one with the same key replaces
	// the previous one.
	Key     string
	Text    string
	Variant Variant
	// ResourceID ties the alert to a single resource.
	ResourceID string
	Region     string
}

// Notifier is the write side used by stores and engines.
type Notifier interface {
	Show(n Notification)
	DismissByKey(key string)
	DismissByResourceID(resourceID string)
}

// Store is an ordered, concurrency-safe list of notifications.
type Store struct {
	mu          sync.Mutex
	items       []Notification
	subscribers []func([]Notification)
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Show appends n, first dropping any notification with the same key.
func (s *Store) Show(n Notification) {
	if n.Variant == "" {
		n.Variant = Info
	}
	s.mu.Lock()
	if n.Key != "" {
		s.items = filter(s.items, func(o Notification) bool { return o.Key != n.Key })
	}
	s.items = append(s.items, n)
	s.mu.Unlock()
	s.publish()
}

// Dismiss removes the notification at index. Out of range is a no-op.
func (s *Store) Dismiss(index int) {
	s.mu.Lock()
	if index < 0 || index >= len(s.items) {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:index:index], s.items[index+1:]...)
	s.mu.Unlock()
	s.publish()
}

// DismissByKey removes every notification with the given key.
func (s *Store) DismissByKey(key string) {
	s.mu.Lock()
	s.items = filter(s.items, func(o Notification) bool { return o.Key != key })
	s.mu.Unlock()
	s.publish()
}

// DismissByResourceID removes every notification tied to resourceID.
func (s *Store) DismissByResourceID(resourceID string) {
	if resourceID == "" {
		return
	}
	s.mu.Lock()
	s.items = filter(s.items, func(o Notification) bool { return o.ResourceID != resourceID })
	s.mu.Unlock()
	s.publish()
}

// List returns a snapshot in insertion order.
func (s *Store) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Find returns the notification with the given key.
func (s *Store) Find(key string) (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.items {
		if n.Key == key {
			return n, true
		}
	}
	return Notification{}, false
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *Store) Subscribe(fn func([]Notification)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

func (s *Store) publish() {
	s.mu.Lock()
	subs := make([]func([]Notification), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	if len(subs) == 0 {
		return
	}
	snapshot := s.List()
	for _, fn := range subs {
		fn(snapshot)
	}
}

func filter(items []Notification, keep func(Notification) bool) []Notification {
	out := items[:0:0]
	for _, n := range items {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
