// internal/app/conversation/conversation.go

// Package conversation maps scopes to canonical conversation
// identities. Conversations are not stored entities; they exist
// implicitly whenever a message references their identity, so the
// resolver is pure and never touches the database. Foreign-key
// validity (does the class exist?) is checked at message-creation
// time, not here.
package conversation

import (
	"github.com/classline/classline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dmSeparator joins the sorted participant pair into one identity.
const dmSeparator = "_"

// ResolveClass returns the broadcast conversation identity for a class.
func ResolveClass(classID primitive.ObjectID) models.Scope {
	return models.Scope{
		Kind:           models.ScopeClass,
		ConversationID: classID.Hex(),
	}
}

// ResolveDM returns the direct-message conversation identity for two
// users. The pair is sorted lexicographically by id before joining, so
// both participants resolve to the same conversation no matter who
// initiates, and no duplicate parallel conversation between the same
// pair can exist.
//
// A user cannot message themself; equal ids are rejected.
func ResolveDM(userA, userB primitive.ObjectID) (models.Scope, error) {
	if userA.IsZero() || userB.IsZero() {
		return models.Scope{}, models.Invalid("participant", "participant id is required")
	}
	if userA == userB {
		return models.Scope{}, models.Invalid("participant", "cannot open a conversation with yourself")
	}
	a, b := userA.Hex(), userB.Hex()
	if b < a {
		a, b = b, a
	}
	return models.Scope{
		Kind:           models.ScopeDM,
		ConversationID: a + dmSeparator + b,
		Participants:   []string{a, b},
	}, nil
}
