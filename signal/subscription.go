package signal

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Observer is called with the instance and the previous and new value
// after a change. A returned error is passed back to the caller of Set.
type Observer[O any, T any] func(instance *O, old, new T) error

// Subscription is the handle returned by Subscribe and SubscribeType.
type Subscription struct {
	id     uuid.UUID
	once   sync.Once
	active atomic.Bool
	remove func()
}

func newSubscription(remove func()) *Subscription {
	s := &Subscription{id: uuid.New(), remove: remove}
	s.active.Store(true)
	return s
}

// ID identifies the subscription.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Active reports whether the observer still receives notifications.
func (s *Subscription) Active() bool {
	return s.active.Load()
}

// Unsubscribe removes the observer. The observer is not called again,
// even by a notification already in progress. Calling Unsubscribe more
// than once is a no-op.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.active.Store(false)
		s.remove()
	})
}

type observerEntry[O any, T any] struct {
	sub *Subscription
	fn  Observer[O, T]
}

func removeEntry[O any, T any](list []observerEntry[O, T], sub *Subscription) []observerEntry[O, T] {
	for i, e := range list {
		if e.sub == sub {
			out := make([]observerEntry[O, T], 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...)
		}
	}
	return list
}
