package conversation_test

import (
	"errors"
	"testing"

	"github.com/classline/classline/internal/app/conversation"
	"github.com/classline/classline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestResolveClass(t *testing.T) {
	classID := primitive.NewObjectID()

	scope := conversation.ResolveClass(classID)

	if scope.Kind != models.ScopeClass {
		t.Errorf("Kind: got %q, want %q", scope.Kind, models.ScopeClass)
	}
	if scope.ConversationID != classID.Hex() {
		t.Errorf("ConversationID: got %q, want %q", scope.ConversationID, classID.Hex())
	}
	if len(scope.Participants) != 0 {
		t.Errorf("class scopes must not carry participants, got %v", scope.Participants)
	}
}

func TestResolveDM_Commutative(t *testing.T) {
	// The central correctness property: either call order yields the
	// identical identity.
	for i := 0; i < 50; i++ {
		a := primitive.NewObjectID()
		b := primitive.NewObjectID()

		ab, err := conversation.ResolveDM(a, b)
		if err != nil {
			t.Fatalf("ResolveDM(a, b) failed: %v", err)
		}
		ba, err := conversation.ResolveDM(b, a)
		if err != nil {
			t.Fatalf("ResolveDM(b, a) failed: %v", err)
		}

		if ab.ConversationID != ba.ConversationID {
			t.Fatalf("identity not commutative: %q vs %q", ab.ConversationID, ba.ConversationID)
		}
		if ab.Participants[0] != ba.Participants[0] || ab.Participants[1] != ba.Participants[1] {
			t.Fatalf("participants not commutative: %v vs %v", ab.Participants, ba.Participants)
		}
	}
}

func TestResolveDM_SortedPair(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	scope, err := conversation.ResolveDM(a, b)
	if err != nil {
		t.Fatalf("ResolveDM failed: %v", err)
	}

	if scope.Kind != models.ScopeDM {
		t.Errorf("Kind: got %q, want %q", scope.Kind, models.ScopeDM)
	}
	if len(scope.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(scope.Participants))
	}
	if scope.Participants[0] > scope.Participants[1] {
		t.Errorf("participants not sorted: %v", scope.Participants)
	}
	want := scope.Participants[0] + "_" + scope.Participants[1]
	if scope.ConversationID != want {
		t.Errorf("ConversationID: got %q, want %q", scope.ConversationID, want)
	}
}

func TestResolveDM_SelfRejected(t *testing.T) {
	a := primitive.NewObjectID()

	_, err := conversation.ResolveDM(a, a)
	if err == nil {
		t.Fatal("expected error for self-DM")
	}
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "participant" {
		t.Errorf("Field: got %q, want %q", ve.Field, "participant")
	}
}

func TestResolveDM_ZeroIDRejected(t *testing.T) {
	a := primitive.NewObjectID()

	if _, err := conversation.ResolveDM(a, primitive.NilObjectID); err == nil {
		t.Error("expected error for zero participant id")
	}
	if _, err := conversation.ResolveDM(primitive.NilObjectID, a); err == nil {
		t.Error("expected error for zero participant id")
	}
}

func TestResolveDM_IsParticipant(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	scope, err := conversation.ResolveDM(a, b)
	if err != nil {
		t.Fatalf("ResolveDM failed: %v", err)
	}

	if !scope.IsParticipant(a.Hex()) || !scope.IsParticipant(b.Hex()) {
		t.Error("both participants must be recognized")
	}
	if scope.IsParticipant(c.Hex()) {
		t.Error("outsider must not be a participant")
	}
}
