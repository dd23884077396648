package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeAndNotify(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(1)
	defer sub.Cancel()

	bus.Notify(1)

	select {
	case <-sub.C:
	default:
		t.Fatal("expected a pending trigger")
	}
}

func TestNotifyOnlyTargetsGivenUsers(t *testing.T) {
	bus := NewBus()
	subA := bus.Subscribe(1)
	defer subA.Cancel()
	subB := bus.Subscribe(2)
	defer subB.Cancel()

	bus.Notify(1)

	select {
	case <-subB.C:
		t.Fatal("user 2 must not receive a trigger for user 1")
	default:
	}
}

func TestNotifyCoalesces(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(1)
	defer sub.Cancel()

	bus.Notify(1)
	bus.Notify(1)
	bus.Notify(1)

	<-sub.C
	select {
	case <-sub.C:
		t.Fatal("consecutive notifications should collapse into one trigger")
	default:
	}
}

func TestNotifyUnknownUserDoesNotBlock(t *testing.T) {
	bus := NewBus()
	bus.Notify(42)
}

func TestCancelReleasesSubscription(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(1)
	require.Equal(t, 1, bus.SubscriberCount(1))

	sub.Cancel()
	sub.Cancel() // safe to repeat
	assert.Equal(t, 0, bus.SubscriberCount(1))

	// A notification after cancel must not reach the old channel.
	bus.Notify(1)
	select {
	case <-sub.C:
		t.Fatal("cancelled subscription received a trigger")
	default:
	}
}

func TestMultipleSubscribersPerUser(t *testing.T) {
	bus := NewBus()
	subA := bus.Subscribe(1)
	defer subA.Cancel()
	subB := bus.Subscribe(1)
	defer subB.Cancel()

	bus.Notify(1)

	for _, sub := range []*Subscription{subA, subB} {
		select {
		case <-sub.C:
		default:
			t.Fatal("every subscriber of the user should be woken")
		}
	}
}

func TestConcurrentSubscribeNotifyCancel(t *testing.T) {
	bus := NewBus()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			sub := bus.Subscribe(id % 5)
			sub.Cancel()
		}(int64(i))
		go func(id int64) {
			defer wg.Done()
			bus.Notify(id % 5)
		}(int64(i))
	}
	wg.Wait()

	for id := int64(0); id < 5; id++ {
		assert.Equal(t, 0, bus.SubscriberCount(id))
	}
}
