// internal/app/live/synchronizer.go

// Package live turns the store's change notifications into ordered
// snapshot deliveries. A watcher receives the current state of its
// conversation or reply thread synchronously on attach, then a fresh
// re-queried snapshot after every store change, always in creation
// order. Bursts of changes may coalesce into one delivery; the final
// delivery always reflects the latest state.
package live

import (
	"context"
	"sync"

	messagestore "github.com/classline/classline/internal/app/store/messages"
	"github.com/classline/classline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Synchronizer fans store changes out to watchers. Permission checks
// happen before a watch is attached, not here.
type Synchronizer struct {
	store messagestore.Store
	log   *zap.Logger
}

func New(store messagestore.Store, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{store: store, log: logger}
}

// Subscription is one active watch. Cancel is idempotent and
// synchronous: once it returns, no further callback will run.
type Subscription struct {
	mu     sync.Mutex
	closed bool
	detach func()
	wake   chan struct{}
	done   chan struct{}
}

func newSubscription() *Subscription {
	return &Subscription{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// ping coalesces change notifications: while a refresh is pending,
// further pings fold into it.
func (s *Subscription) ping() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Cancel detaches the watch. Safe to call more than once and safe to
// call concurrently with deliveries; it blocks until any in-flight
// callback has returned.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()
	s.detach()
}

// run re-queries on every wake until cancelled. A refresh failure is
// terminal: the error callback fires once and the watch ends.
func (s *Subscription) run(ctx context.Context, refresh func(context.Context) error, onErr func(error)) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.Cancel()
			return
		case <-s.wake:
			if err := refresh(ctx); err != nil {
				s.fail(onErr, err)
				return
			}
		}
	}
}

func (s *Subscription) deliver(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fn()
}

func (s *Subscription) fail(onErr func(error), err error) {
	s.deliver(func() { onErr(err) })
	s.Cancel()
}

// WatchConversation attaches a live watch on a conversation. The
// current snapshot is delivered through onUpdate before this returns;
// later deliveries arrive from a dedicated goroutine. onErr fires at
// most once, after which the subscription is dead.
func (sy *Synchronizer) WatchConversation(ctx context.Context, conversationID string, onUpdate func([]models.Message), onErr func(error)) (*Subscription, error) {
	// Subscribe before the initial query. A write landing between the
	// two leaves a pending ping, so the follow-up refresh picks it up;
	// the reverse order would leave the watcher stale until some
	// unrelated later write.
	sub := newSubscription()
	sub.detach = sy.store.Subscribe(conversationID, sub.ping)

	initial, err := sy.store.Query(ctx, conversationID)
	if err != nil {
		sub.detach()
		return nil, err
	}

	refresh := func(ctx context.Context) error {
		msgs, err := sy.store.Query(ctx, conversationID)
		if err != nil {
			sy.log.Warn("conversation watch ended",
				zap.String("conversation_id", conversationID),
				zap.Error(err))
			return err
		}
		sub.deliver(func() { onUpdate(msgs) })
		return nil
	}

	sub.deliver(func() { onUpdate(initial) })
	go sub.run(ctx, refresh, onErr)
	return sub, nil
}

// WatchReplies attaches a live watch on a message's reply thread with
// the same delivery contract as WatchConversation.
func (sy *Synchronizer) WatchReplies(ctx context.Context, messageID primitive.ObjectID, onUpdate func([]models.Reply), onErr func(error)) (*Subscription, error) {
	sub := newSubscription()
	sub.detach = sy.store.SubscribeReplies(messageID, sub.ping)

	initial, err := sy.store.QueryReplies(ctx, messageID)
	if err != nil {
		sub.detach()
		return nil, err
	}

	refresh := func(ctx context.Context) error {
		replies, err := sy.store.QueryReplies(ctx, messageID)
		if err != nil {
			sy.log.Warn("reply watch ended",
				zap.String("message_id", messageID.Hex()),
				zap.Error(err))
			return err
		}
		sub.deliver(func() { onUpdate(replies) })
		return nil
	}

	sub.deliver(func() { onUpdate(initial) })
	go sub.run(ctx, refresh, onErr)
	return sub, nil
}
