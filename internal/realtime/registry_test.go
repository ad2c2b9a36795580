package realtime

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubscriber(queueSize int) *Subscriber {
	return NewSubscriber(uuid.New(), queueSize, make(chan struct{}))
}

func drain(sub *Subscriber) [][]byte {
	var out [][]byte
	for {
		select {
		case payload := <-sub.Outbox():
			out = append(out, payload)
		default:
			return out
		}
	}
}

func TestRegisterThenBroadcastDelivers(t *testing.T) {
	r := NewRegistry()
	sheetID := uuid.New()
	sub := newTestSubscriber(8)

	r.Register(sheetID, sub)
	require.Equal(t, 1, r.ConnectionCount(sheetID))

	r.Broadcast(sheetID, Pong())

	got := drain(sub)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"type": "pong"}`, string(got[0]))
}

func TestBroadcastToEmptySpreadsheetIsNoOp(t *testing.T) {
	r := NewRegistry()
	// Must not panic or block.
	r.Broadcast(uuid.New(), Pong())
	assert.Equal(t, 0, r.ConnectionCount(uuid.New()))
}

func TestBroadcastIsolatedBetweenSpreadsheets(t *testing.T) {
	r := NewRegistry()
	sheetA := uuid.New()
	sheetB := uuid.New()
	subA := newTestSubscriber(8)
	subB := newTestSubscriber(8)

	r.Register(sheetA, subA)
	r.Register(sheetB, subB)

	r.Broadcast(sheetA, UserJoined(subA.UserID(), sheetA))

	assert.Len(t, drain(subA), 1)
	assert.Empty(t, drain(subB))
}

func TestAllSubscribersReceiveIdenticalPayload(t *testing.T) {
	r := NewRegistry()
	sheetID := uuid.New()
	subs := make([]*Subscriber, 5)
	for i := range subs {
		subs[i] = newTestSubscriber(8)
		r.Register(sheetID, subs[i])
	}

	msg := RowDeleted(sheetID, uuid.New(), uuid.New())
	r.Broadcast(sheetID, msg)

	want, err := msg.Encode()
	require.NoError(t, err)
	for i, sub := range subs {
		got := drain(sub)
		require.Len(t, got, 1, "subscriber %d", i)
		assert.Equal(t, want, got[0], "subscriber %d", i)
	}
}

func TestFullSubscriberDoesNotStallOthers(t *testing.T) {
	r := NewRegistry()
	sheetID := uuid.New()
	stuck := newTestSubscriber(1)
	healthy := newTestSubscriber(8)

	r.Register(sheetID, stuck)
	r.Register(sheetID, healthy)

	// Fill the stuck subscriber's outbox; subsequent offers drop.
	r.Broadcast(sheetID, Pong())
	r.Broadcast(sheetID, Pong())
	r.Broadcast(sheetID, Pong())

	assert.Len(t, drain(stuck), 1)
	assert.Len(t, drain(healthy), 3)
}

func TestClosedSubscriberDropsSilently(t *testing.T) {
	r := NewRegistry()
	sheetID := uuid.New()
	done := make(chan struct{})
	sub := NewSubscriber(uuid.New(), 8, done)
	r.Register(sheetID, sub)

	close(done)
	r.Broadcast(sheetID, Pong())

	assert.Empty(t, drain(sub))
}

func TestDeregisterRemovesByIdentity(t *testing.T) {
	r := NewRegistry()
	sheetID := uuid.New()
	userID := uuid.New()

	// Two connections for the same user must be tracked independently.
	first := NewSubscriber(userID, 8, make(chan struct{}))
	second := NewSubscriber(userID, 8, make(chan struct{}))
	r.Register(sheetID, first)
	r.Register(sheetID, second)
	require.Equal(t, 2, r.ConnectionCount(sheetID))

	r.Deregister(sheetID, first)
	assert.Equal(t, 1, r.ConnectionCount(sheetID))

	r.Broadcast(sheetID, Pong())
	assert.Empty(t, drain(first))
	assert.Len(t, drain(second), 1)
}

func TestDeregisterUnknownSubscriberIsNoOp(t *testing.T) {
	r := NewRegistry()
	sheetID := uuid.New()
	sub := newTestSubscriber(8)
	r.Register(sheetID, sub)

	r.Deregister(sheetID, newTestSubscriber(8))
	r.Deregister(uuid.New(), sub)

	assert.Equal(t, 1, r.ConnectionCount(sheetID))
}

func TestConcurrentRegisterBroadcastDeregister(t *testing.T) {
	r := NewRegistry()
	sheetID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := newTestSubscriber(4)
			r.Register(sheetID, sub)
			r.Broadcast(sheetID, Pong())
			r.Deregister(sheetID, sub)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.ConnectionCount(sheetID))
}

func TestProperty_RegistryCountMatchesNetRegistrations(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("connection count equals registrations minus deregistrations",
		prop.ForAll(
			func(registered int, deregistered int) bool {
				if deregistered > registered {
					deregistered = registered
				}
				r := NewRegistry()
				sheetID := uuid.New()

				subs := make([]*Subscriber, registered)
				for i := range subs {
					subs[i] = newTestSubscriber(1)
					r.Register(sheetID, subs[i])
				}
				for i := 0; i < deregistered; i++ {
					r.Deregister(sheetID, subs[i])
				}

				return r.ConnectionCount(sheetID) == registered-deregistered
			},
			gen.IntRange(0, 50),
			gen.IntRange(0, 50),
		))

	properties.Property("every registered subscriber with capacity receives each broadcast",
		prop.ForAll(
			func(subscribers int, broadcasts int) bool {
				r := NewRegistry()
				sheetID := uuid.New()

				subs := make([]*Subscriber, subscribers)
				for i := range subs {
					subs[i] = newTestSubscriber(broadcasts)
					r.Register(sheetID, subs[i])
				}
				for i := 0; i < broadcasts; i++ {
					r.Broadcast(sheetID, Pong())
				}

				for _, sub := range subs {
					if len(drain(sub)) != broadcasts {
						return false
					}
				}
				return true
			},
			gen.IntRange(1, 20),
			gen.IntRange(1, 16),
		))

	properties.TestingRun(t)
}
