package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Mufassa12/contrivance/internal/metrics"
)

// Broadcaster is the fan-out contract consumed by the mutation services.
// Broadcast never fails: delivery is best-effort and a spreadsheet with
// no subscribers is a no-op.
type Broadcaster interface {
	Broadcast(spreadsheetID uuid.UUID, msg Message)
}

// Subscriber is the lightweight send endpoint the registry holds for
// each connection. The owning Conn drains the outbox; the registry only
// ever performs non-blocking sends into it, so a slow or dead
// connection cannot stall a broadcast.
type Subscriber struct {
	userID uuid.UUID
	outbox chan []byte
	done   <-chan struct{}
}

// NewSubscriber constructs an endpoint with a bounded outbox. The done
// channel belongs to the owning connection; once it closes the
// subscriber silently drops everything offered to it.
func NewSubscriber(userID uuid.UUID, queueSize int, done <-chan struct{}) *Subscriber {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Subscriber{
		userID: userID,
		outbox: make(chan []byte, queueSize),
		done:   done,
	}
}

// UserID returns the owning user's ID
func (s *Subscriber) UserID() uuid.UUID { return s.userID }

// Outbox returns the channel the owning connection drains
func (s *Subscriber) Outbox() <-chan []byte { return s.outbox }

// offer attempts a non-blocking delivery. A full outbox or a finished
// connection drops the payload; the miss is recoverable client-side by
// re-fetching through the HTTP API.
func (s *Subscriber) offer(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.outbox <- payload:
		return true
	default:
		return false
	}
}

// Registry maps a spreadsheet ID to the ordered set of subscribers
// currently connected to it. One instance per process, explicitly
// constructed and injected so tests can create isolated registries.
//
// The RWMutex is scoped strictly around map access. Broadcast snapshots
// the subscriber slice under the read lock and delivers outside it;
// socket I/O never happens under the lock.
type Registry struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID][]*Subscriber
}

// NewRegistry constructs an empty connection registry
func NewRegistry() *Registry {
	return &Registry{
		subscribers: make(map[uuid.UUID][]*Subscriber),
	}
}

// Register appends the subscriber to the spreadsheet's set, creating
// the entry if absent. Ordering follows registration order.
func (r *Registry) Register(spreadsheetID uuid.UUID, sub *Subscriber) {
	r.mu.Lock()
	r.subscribers[spreadsheetID] = append(r.subscribers[spreadsheetID], sub)
	r.mu.Unlock()

	metrics.ActiveConnections.Inc()
	metrics.TotalConnections.Inc()
	log.Info().
		Str("spreadsheet_id", spreadsheetID.String()).
		Str("user_id", sub.userID.String()).
		Msg("connection registered")
}

// Deregister removes the subscriber by identity. When the set empties
// the spreadsheet entry is removed so the map never holds dangling
// empty entries. Removing an unknown subscriber is a no-op.
func (r *Registry) Deregister(spreadsheetID uuid.UUID, sub *Subscriber) {
	removed := false
	r.mu.Lock()
	subs := r.subscribers[spreadsheetID]
	for i, s := range subs {
		if s == sub {
			subs = append(subs[:i], subs[i+1:]...)
			removed = true
			break
		}
	}
	if len(subs) == 0 {
		delete(r.subscribers, spreadsheetID)
	} else {
		r.subscribers[spreadsheetID] = subs
	}
	r.mu.Unlock()

	if removed {
		metrics.ActiveConnections.Dec()
		log.Info().
			Str("spreadsheet_id", spreadsheetID.String()).
			Str("user_id", sub.userID.String()).
			Msg("connection deregistered")
	}
}

// Broadcast serializes msg once and offers the payload to every
// subscriber registered for the spreadsheet at call time, in
// registration order. Delivery is fire-and-forget: a full or dead
// subscriber is skipped and never affects the others or the caller.
func (r *Registry) Broadcast(spreadsheetID uuid.UUID, msg Message) {
	payload, err := msg.Encode()
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("failed to serialize broadcast message")
		return
	}

	r.mu.RLock()
	subs := r.subscribers[spreadsheetID]
	snapshot := make([]*Subscriber, len(subs))
	copy(snapshot, subs)
	r.mu.RUnlock()

	metrics.BroadcastsTotal.WithLabelValues(string(msg.Type)).Inc()
	for _, sub := range snapshot {
		if sub.offer(payload) {
			metrics.BroadcastDeliveries.Inc()
		} else {
			metrics.BroadcastDrops.Inc()
			log.Debug().
				Str("spreadsheet_id", spreadsheetID.String()).
				Str("user_id", sub.userID.String()).
				Str("type", string(msg.Type)).
				Msg("dropped broadcast for slow or closed subscriber")
		}
	}
}

// ConnectionCount returns the number of subscribers registered for the
// spreadsheet. Diagnostic read.
func (r *Registry) ConnectionCount(spreadsheetID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[spreadsheetID])
}

// TotalConnections returns the number of subscribers across all
// spreadsheets. Diagnostic read.
func (r *Registry) TotalConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, subs := range r.subscribers {
		total += len(subs)
	}
	return total
}
