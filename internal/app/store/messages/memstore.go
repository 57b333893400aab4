// internal/app/store/messages/memstore.go
package messagestore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/classline/classline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore is the in-memory message store. It backs the "memory"
// store_backend for local development and gives tests a deterministic
// adapter with the same contract as the Mongo store, including
// monotonic creation timestamps and per-voter conditional vote writes.
type MemStore struct {
	mu       sync.Mutex
	messages map[primitive.ObjectID]models.Message
	replies  map[primitive.ObjectID][]models.Reply
	last     time.Time
	hub      *hub
}

func NewMem() *MemStore {
	return &MemStore{
		messages: make(map[primitive.ObjectID]models.Message),
		replies:  make(map[primitive.ObjectID][]models.Reply),
		hub:      newHub(),
	}
}

var _ Store = (*MemStore)(nil)

// tick returns a strictly increasing timestamp so that ordering by
// CreatedAt is total even when the wall clock does not advance between
// two appends. Callers hold s.mu.
func (s *MemStore) tick() time.Time {
	now := time.Now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func (s *MemStore) Append(_ context.Context, m models.Message) (models.Message, error) {
	s.mu.Lock()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = s.tick()
	s.messages[m.ID] = cloneMessage(m)
	s.mu.Unlock()

	s.hub.publish(topicConversation + m.Scope.ConversationID)
	return m, nil
}

func (s *MemStore) Get(_ context.Context, id primitive.ObjectID) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return models.Message{}, models.ErrNotFound
	}
	return cloneMessage(m), nil
}

func (s *MemStore) Query(_ context.Context, conversationID string) ([]models.Message, error) {
	s.mu.Lock()
	msgs := []models.Message{}
	for _, m := range s.messages {
		if m.Scope.ConversationID == conversationID {
			msgs = append(msgs, cloneMessage(m))
		}
	}
	s.mu.Unlock()

	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (s *MemStore) SetPollVote(_ context.Context, id primitive.ObjectID, voterIDHex, vote string) (models.Message, error) {
	s.mu.Lock()
	m, ok := s.messages[id]
	if !ok {
		s.mu.Unlock()
		return models.Message{}, models.ErrNotFound
	}
	if m.HasVoted(voterIDHex) {
		s.mu.Unlock()
		return models.Message{}, ErrVoteConflict
	}
	if m.PollResults == nil {
		m.PollResults = make(map[string]string)
	}
	m.PollResults[voterIDHex] = vote
	s.messages[id] = m
	out := cloneMessage(m)
	s.mu.Unlock()

	s.hub.publish(topicConversation + m.Scope.ConversationID)
	return out, nil
}

func (s *MemStore) AppendReply(_ context.Context, r models.Reply) (models.Reply, error) {
	s.mu.Lock()
	if _, ok := s.messages[r.MessageID]; !ok {
		s.mu.Unlock()
		return models.Reply{}, models.ErrNotFound
	}
	r.ID = primitive.NewObjectID()
	r.CreatedAt = s.tick()
	s.replies[r.MessageID] = append(s.replies[r.MessageID], r)
	s.mu.Unlock()

	s.hub.publish(topicReplies + r.MessageID.Hex())
	return r, nil
}

func (s *MemStore) QueryReplies(_ context.Context, messageID primitive.ObjectID) ([]models.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	replies := make([]models.Reply, len(s.replies[messageID]))
	copy(replies, s.replies[messageID])
	return replies, nil
}

func (s *MemStore) Subscribe(conversationID string, onChange func()) (cancel func()) {
	return s.hub.subscribe(topicConversation+conversationID, onChange)
}

func (s *MemStore) SubscribeReplies(messageID primitive.ObjectID, onChange func()) (cancel func()) {
	return s.hub.subscribe(topicReplies+messageID.Hex(), onChange)
}

// cloneMessage copies the poll map so callers never share mutable
// state with the store.
func cloneMessage(m models.Message) models.Message {
	if m.PollResults != nil {
		pr := make(map[string]string, len(m.PollResults))
		for k, v := range m.PollResults {
			pr[k] = v
		}
		m.PollResults = pr
	}
	return m
}
