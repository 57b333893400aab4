package messagestore_test

import (
	"errors"
	"testing"

	"github.com/classline/classline/internal/app/conversation"
	messagestore "github.com/classline/classline/internal/app/store/messages"
	"github.com/classline/classline/internal/domain/models"
	"github.com/classline/classline/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMongoStore_AppendAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.NewMongo(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	scope := conversation.ResolveClass(primitive.NewObjectID())

	titles := []string{"one", "two", "three"}
	for _, title := range titles {
		if _, err := store.Append(ctx, classMessage(scope, title)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	msgs, err := store.Query(ctx, scope.ConversationID)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(msgs) != len(titles) {
		t.Fatalf("expected %d messages, got %d", len(titles), len(msgs))
	}
	for i, m := range msgs {
		if m.Title != titles[i] {
			t.Errorf("position %d: got %q, want %q", i, m.Title, titles[i])
		}
	}
}

func TestMongoStore_VoteFinality(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.NewMongo(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	scope := conversation.ResolveClass(primitive.NewObjectID())
	voter := primitive.NewObjectID().Hex()

	msg, err := store.Append(ctx, classMessage(scope, "HW1"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	updated, err := store.SetPollVote(ctx, msg.ID, voter, models.VoteYes)
	if err != nil {
		t.Fatalf("SetPollVote failed: %v", err)
	}
	if updated.PollResults[voter] != models.VoteYes {
		t.Errorf("PollResults[%s]: got %q, want %q", voter, updated.PollResults[voter], models.VoteYes)
	}

	if _, err := store.SetPollVote(ctx, msg.ID, voter, models.VoteNo); !errors.Is(err, messagestore.ErrVoteConflict) {
		t.Fatalf("expected ErrVoteConflict, got %v", err)
	}

	got, err := store.Get(ctx, msg.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.PollResults) != 1 || got.PollResults[voter] != models.VoteYes {
		t.Errorf("vote must be final, got %v", got.PollResults)
	}
}

func TestMongoStore_SetPollVote_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.NewMongo(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.SetPollVote(ctx, primitive.NewObjectID(), primitive.NewObjectID().Hex(), models.VoteYes)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMongoStore_Replies(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.NewMongo(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	scope := conversation.ResolveClass(primitive.NewObjectID())
	msg, err := store.Append(ctx, classMessage(scope, "HW1"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	bodies := []string{"done", "question"}
	for _, body := range bodies {
		_, err := store.AppendReply(ctx, models.Reply{
			MessageID:  msg.ID,
			AuthorID:   primitive.NewObjectID(),
			AuthorRole: models.RoleStudent,
			Body:       body,
			Kind:       models.ReplyNormal,
		})
		if err != nil {
			t.Fatalf("AppendReply failed: %v", err)
		}
	}

	replies, err := store.QueryReplies(ctx, msg.ID)
	if err != nil {
		t.Fatalf("QueryReplies failed: %v", err)
	}
	if len(replies) != len(bodies) {
		t.Fatalf("expected %d replies, got %d", len(bodies), len(replies))
	}
	for i, r := range replies {
		if r.Body != bodies[i] {
			t.Errorf("position %d: got %q, want %q", i, r.Body, bodies[i])
		}
	}
}

func TestMongoStore_SubscribeNotifiesOnWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.NewMongo(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	scope := conversation.ResolveClass(primitive.NewObjectID())

	pings := 0
	unsubscribe := store.Subscribe(scope.ConversationID, func() { pings++ })

	if _, err := store.Append(ctx, classMessage(scope, "HW1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if pings != 1 {
		t.Fatalf("expected 1 ping, got %d", pings)
	}

	unsubscribe()
	if _, err := store.Append(ctx, classMessage(scope, "after cancel")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if pings != 1 {
		t.Fatalf("expected no pings after cancel, got %d", pings)
	}
}

func TestMongoStore_SetPollVoteNotifiesSubscribers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.NewMongo(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	scope := conversation.ResolveClass(primitive.NewObjectID())
	voter := primitive.NewObjectID().Hex()

	msg, err := store.Append(ctx, classMessage(scope, "HW1"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	pings := 0
	unsubscribe := store.Subscribe(scope.ConversationID, func() { pings++ })
	defer unsubscribe()

	if _, err := store.SetPollVote(ctx, msg.ID, voter, models.VoteYes); err != nil {
		t.Fatalf("SetPollVote failed: %v", err)
	}
	if pings != 1 {
		t.Fatalf("expected 1 ping after vote, got %d", pings)
	}

	// A rejected duplicate changes nothing and must not notify.
	if _, err := store.SetPollVote(ctx, msg.ID, voter, models.VoteNo); !errors.Is(err, messagestore.ErrVoteConflict) {
		t.Fatalf("expected ErrVoteConflict, got %v", err)
	}
	if pings != 1 {
		t.Fatalf("expected no ping after rejected vote, got %d", pings)
	}
}
