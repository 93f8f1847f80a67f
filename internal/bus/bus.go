// internal/bus/bus.go
package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Topic names a stream of messages on the bus.
type Topic string

const (
	// TopicElementConfirmed carries a schemas.ConfirmedElement each time the
	// user confirms a pending selection.
	TopicElementConfirmed Topic = "ELEMENT_CONFIRMED"
	// TopicSnapshotLoaded carries a SnapshotLoaded after every parse pass.
	TopicSnapshotLoaded Topic = "SNAPSHOT_LOADED"
	// TopicSelectionChanged carries a selection.Event for every interaction
	// state transition.
	TopicSelectionChanged Topic = "SELECTION_CHANGED"
)

// ErrClosed is returned by Post once Shutdown has started.
var ErrClosed = errors.New("event bus is shut down")

// Message is the envelope delivered to subscribers.
type Message struct {
	ID        string
	Timestamp time.Time
	Topic     Topic
	Payload   interface{}
}

// SnapshotLoaded summarizes one parse pass.
type SnapshotLoaded struct {
	Elements int
	Caption  string
	Warning  string
}

// EventBus fans messages out to topic subscribers. Every delivered message
// must be acknowledged so Shutdown can wait for consumers.
type EventBus struct {
	logger *zap.Logger

	subscribers map[Topic][]chan Message
	// detached holds unsubscribed channels until Shutdown closes them. A Post
	// that copied its targets before the unsubscribe may still deliver there.
	detached   map[chan Message]struct{}
	mu         sync.RWMutex
	bufferSize int

	// processingWg counts delivered but unacknowledged messages.
	processingWg sync.WaitGroup
	// activePostsWg counts Post calls in progress.
	activePostsWg sync.WaitGroup

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	isShutdown   bool
	shutdownMu   sync.Mutex
}

// New creates a bus whose subscriber channels hold bufferSize messages.
func New(logger *zap.Logger, bufferSize int) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &EventBus{
		logger:       logger.Named("event_bus"),
		subscribers:  make(map[Topic][]chan Message),
		detached:     make(map[chan Message]struct{}),
		bufferSize:   bufferSize,
		shutdownChan: make(chan struct{}),
	}
}

// Post delivers payload to every subscriber of topic. It blocks while a
// subscriber's buffer is full, until ctx is done or the bus shuts down.
func (eb *EventBus) Post(ctx context.Context, topic Topic, payload interface{}) error {
	eb.shutdownMu.Lock()
	if eb.isShutdown {
		eb.shutdownMu.Unlock()
		return ErrClosed
	}
	eb.activePostsWg.Add(1)
	eb.shutdownMu.Unlock()
	defer eb.activePostsWg.Done()

	msg := Message{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Topic:     topic,
		Payload:   payload,
	}
	eb.logger.Debug("Posting message", zap.String("topic", string(topic)), zap.String("id", msg.ID))

	eb.mu.RLock()
	subs := eb.subscribers[topic]
	if len(subs) == 0 {
		eb.mu.RUnlock()
		return nil
	}
	targets := make([]chan Message, len(subs))
	copy(targets, subs)
	eb.mu.RUnlock()

	for _, ch := range targets {
		eb.processingWg.Add(1)
		select {
		case ch <- msg:
		case <-ctx.Done():
			eb.processingWg.Done()
			return ctx.Err()
		case <-eb.shutdownChan:
			eb.processingWg.Done()
			return ErrClosed
		}
	}
	return nil
}

// Subscribe returns a channel receiving messages of the given topics and a
// function that stops delivery. The channel is closed by Shutdown.
func (eb *EventBus) Subscribe(topics ...Topic) (<-chan Message, func()) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.isShutdownLocked() {
		closed := make(chan Message)
		close(closed)
		return closed, func() {}
	}
	if len(topics) == 0 {
		panic("bus: subscribe needs at least one topic")
	}

	ch := make(chan Message, eb.bufferSize)
	subscribed := append([]Topic(nil), topics...)
	for _, t := range subscribed {
		eb.subscribers[t] = append(eb.subscribers[t], ch)
	}

	unsubscribe := func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		found := false
		for _, t := range subscribed {
			subs := eb.subscribers[t]
			for i, c := range subs {
				if c != ch {
					continue
				}
				eb.subscribers[t] = append(subs[:i:i], subs[i+1:]...)
				if len(eb.subscribers[t]) == 0 {
					delete(eb.subscribers, t)
				}
				found = true
				break
			}
		}
		if !found {
			return
		}
		eb.detached[ch] = struct{}{}
		if n := eb.drainLocked(ch); n > 0 {
			eb.logger.Debug("Dropped unread messages on unsubscribe.", zap.Int("count", n))
		}
	}
	return ch, unsubscribe
}

func (eb *EventBus) isShutdownLocked() bool {
	eb.shutdownMu.Lock()
	defer eb.shutdownMu.Unlock()
	return eb.isShutdown
}

// drainLocked discards what is buffered in ch without blocking, releasing
// each message's processing slot.
func (eb *EventBus) drainLocked(ch chan Message) int {
	n := 0
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return n
			}
			n++
			eb.processingWg.Done()
		default:
			return n
		}
	}
}

// Acknowledge marks a received message as processed.
func (eb *EventBus) Acknowledge(Message) {
	eb.processingWg.Done()
}

// Shutdown stops accepting posts, closes every subscriber channel and waits
// for outstanding messages to be acknowledged. Buffered messages nobody read
// are dropped.
func (eb *EventBus) Shutdown() {
	eb.shutdownOnce.Do(func() {
		eb.shutdownMu.Lock()
		eb.isShutdown = true
		eb.shutdownMu.Unlock()

		close(eb.shutdownChan)
		eb.activePostsWg.Wait()

		eb.mu.Lock()
		unique := make(map[chan Message]struct{})
		for _, subs := range eb.subscribers {
			for _, ch := range subs {
				unique[ch] = struct{}{}
			}
		}
		for ch := range eb.detached {
			unique[ch] = struct{}{}
		}
		for ch := range unique {
			close(ch)
		}
		drained := 0
		for ch := range unique {
			for range ch {
				drained++
				eb.processingWg.Done()
			}
		}
		eb.subscribers = make(map[Topic][]chan Message)
		eb.detached = make(map[chan Message]struct{})
		eb.mu.Unlock()

		if drained > 0 {
			eb.logger.Debug("Dropped unread messages during shutdown.", zap.Int("count", drained))
		}
		eb.processingWg.Wait()
		eb.logger.Debug("Event bus shut down.")
	})
}
