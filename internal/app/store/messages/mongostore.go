// internal/app/store/messages/mongostore.go
package messagestore

import (
	"context"
	"errors"
	"time"

	"github.com/classline/classline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists messages in the "messages" collection and
// replies in "replies", and notifies subscribers through the
// in-process hub after each successful write.
type MongoStore struct {
	messages *mongo.Collection
	replies  *mongo.Collection
	hub      *hub
}

var _ Store = (*MongoStore)(nil)

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{
		messages: db.Collection("messages"),
		replies:  db.Collection("replies"),
		hub:      newHub(),
	}
}

func (s *MongoStore) Append(ctx context.Context, m models.Message) (models.Message, error) {
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	if _, err := s.messages.InsertOne(ctx, m); err != nil {
		return models.Message{}, models.StoreUnavailable(err)
	}
	s.hub.publish(topicConversation + m.Scope.ConversationID)
	return m, nil
}

func (s *MongoStore) Get(ctx context.Context, id primitive.ObjectID) (models.Message, error) {
	var m models.Message
	if err := s.messages.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Message{}, models.ErrNotFound
		}
		return models.Message{}, models.StoreUnavailable(err)
	}
	return m, nil
}

func (s *MongoStore) Query(ctx context.Context, conversationID string) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.messages.Find(ctx, bson.M{"scope.conversation_id": conversationID}, opts)
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	msgs := []models.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return msgs, nil
}

// SetPollVote records the voter's entry only if the key is absent: the
// filter matches the document just when poll_results.<voter> does not
// exist, so the first write wins and any later attempt sees a
// zero-match result. Never a read-modify-write of the whole map.
// The updated document comes back from the write itself, so the
// subscriber notification cannot be lost to a failed re-read.
func (s *MongoStore) SetPollVote(ctx context.Context, id primitive.ObjectID, voterIDHex, vote string) (models.Message, error) {
	field := "poll_results." + voterIDHex
	filter := bson.M{"_id": id, field: bson.M{"$exists": false}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m models.Message
	err := s.messages.FindOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{field: vote}}, opts).Decode(&m)
	if err == nil {
		s.hub.publish(topicConversation + m.Scope.ConversationID)
		return m, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Message{}, models.StoreUnavailable(err)
	}

	// Either the message does not exist or the voter already has an
	// entry; a second lookup tells them apart.
	existing, err := s.Get(ctx, id)
	if err != nil {
		return models.Message{}, err
	}
	if existing.HasVoted(voterIDHex) {
		return models.Message{}, ErrVoteConflict
	}
	return models.Message{}, models.ErrNotFound
}

func (s *MongoStore) AppendReply(ctx context.Context, r models.Reply) (models.Reply, error) {
	n, err := s.messages.CountDocuments(ctx, bson.M{"_id": r.MessageID})
	if err != nil {
		return models.Reply{}, models.StoreUnavailable(err)
	}
	if n == 0 {
		return models.Reply{}, models.ErrNotFound
	}
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now().UTC()
	if _, err := s.replies.InsertOne(ctx, r); err != nil {
		return models.Reply{}, models.StoreUnavailable(err)
	}
	s.hub.publish(topicReplies + r.MessageID.Hex())
	return r, nil
}

func (s *MongoStore) QueryReplies(ctx context.Context, messageID primitive.ObjectID) ([]models.Reply, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.replies.Find(ctx, bson.M{"message_id": messageID}, opts)
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	replies := []models.Reply{}
	if err := cur.All(ctx, &replies); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return replies, nil
}

func (s *MongoStore) Subscribe(conversationID string, onChange func()) (cancel func()) {
	return s.hub.subscribe(topicConversation+conversationID, onChange)
}

func (s *MongoStore) SubscribeReplies(messageID primitive.ObjectID, onChange func()) (cancel func()) {
	return s.hub.subscribe(topicReplies+messageID.Hex(), onChange)
}
