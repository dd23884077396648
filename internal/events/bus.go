package events

import "sync"

// Bus is an in-process change-notification fanout keyed by user id. A
// subscriber gets a coalescing trigger channel: notifications that arrive
// while one is already pending collapse into a single wakeup, so slow
// consumers re-aggregate once instead of queueing stale passes.
type Bus struct {
	mu   sync.RWMutex
	subs map[int64]map[*Subscription]struct{}
}

// Subscription is one listener's handle. Cancel must be called when the
// owner is done; a forgotten Cancel leaks the registration for the life of
// the process.
type Subscription struct {
	C      chan struct{}
	bus    *Bus
	userID int64
	once   sync.Once
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int64]map[*Subscription]struct{})}
}

// Subscribe registers for change notifications concerning userID.
func (b *Bus) Subscribe(userID int64) *Subscription {
	sub := &Subscription{
		C:      make(chan struct{}, 1),
		bus:    b,
		userID: userID,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[userID]; !ok {
		b.subs[userID] = make(map[*Subscription]struct{})
	}
	b.subs[userID][sub] = struct{}{}
	return sub
}

// Cancel removes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		if subs, ok := s.bus.subs[s.userID]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(s.bus.subs, s.userID)
			}
		}
	})
}

// Notify wakes every subscriber of the given users. Never blocks.
func (b *Bus) Notify(userIDs ...int64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, id := range userIDs {
		for sub := range b.subs[id] {
			select {
			case sub.C <- struct{}{}:
			default:
			}
		}
	}
}

// SubscriberCount reports active subscriptions for a user.
func (b *Bus) SubscriberCount(userID int64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}
