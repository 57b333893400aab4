// internal/app/store/messages/messagestore.go

// Package messagestore is the append-only persistence boundary for
// messages and replies. It exposes the primitives the messaging core
// is written against: append with a store-assigned creation timestamp,
// ordered queries, a per-voter conditional write for polls, and change
// subscriptions for live views.
//
// Two implementations ship: Mongo (production) and an in-memory store
// (dev backend and deterministic tests). Both deliver change
// notifications through the same in-process hub, so a subscription
// observes every write that goes through its store instance, in write
// order.
package messagestore

import (
	"context"
	"errors"
	"sync"

	"github.com/classline/classline/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrVoteConflict is returned by SetPollVote when the voter already has
// an entry. Callers surface it as models.ErrAlreadyVoted; it exists
// separately so the adapter layer stays taxonomy-agnostic about
// *which* duplicate it saw (pre-checked or lost race).
var ErrVoteConflict = errors.New("vote already recorded")

// Store is the message store adapter contract.
//
// Append and AppendReply assign the record id and creation timestamp;
// the timestamp is the sole ordering key within a conversation or
// reply thread. SetPollVote is a conditional per-voter write: it sets
// poll_results[voter] only if the key is absent, so concurrent votes
// from the same voter resolve to exactly one winner and votes from
// different voters never conflict.
//
// Subscribe registers an onChange ping for a conversation and returns
// a detach func. Pings fire after the corresponding write completes;
// subscribers re-query for the ordered snapshot. onChange must not
// block.
type Store interface {
	Append(ctx context.Context, m models.Message) (models.Message, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.Message, error)
	Query(ctx context.Context, conversationID string) ([]models.Message, error)
	SetPollVote(ctx context.Context, id primitive.ObjectID, voterIDHex, vote string) (models.Message, error)

	AppendReply(ctx context.Context, r models.Reply) (models.Reply, error)
	QueryReplies(ctx context.Context, messageID primitive.ObjectID) ([]models.Reply, error)

	Subscribe(conversationID string, onChange func()) (cancel func())
	SubscribeReplies(messageID primitive.ObjectID, onChange func()) (cancel func())
}

const (
	topicConversation = "conv:"
	topicReplies      = "replies:"
)

// hub is the in-process change-notification registry shared by both
// store implementations. Publish runs callbacks synchronously, outside
// the registry lock, in registration-independent order; a detached
// subscriber is never invoked by a publish that starts after detach
// returns.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[string]func()
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[string]func())}
}

func (h *hub) subscribe(topic string, onChange func()) (cancel func()) {
	id := uuid.NewString()

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[string]func())
	}
	h.subs[topic][id] = onChange
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs[topic], id)
		if len(h.subs[topic]) == 0 {
			delete(h.subs, topic)
		}
		h.mu.Unlock()
	}
}

func (h *hub) publish(topic string) {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.subs[topic]))
	for _, fn := range h.subs[topic] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
