// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scope kinds. A message belongs either to a class broadcast or to a
// two-party direct exchange.
const (
	ScopeClass = "class"
	ScopeDM    = "dm"
)

// Message types. Task and form carry a poll; material and event do not.
const (
	TypeMaterial = "material"
	TypeTask     = "task"
	TypeEvent    = "event"
	TypeForm     = "form"
)

// Poll vote values.
const (
	VoteYes = "yes"
	VoteNo  = "no"
)

// Reply kinds. "poll" is a classification tag only; replies never carry
// vote state.
const (
	ReplyNormal  = "normal"
	ReplyPoll    = "poll"
	ReplyRequest = "request"
)

// IsValidMessageType checks if a value is a known message type.
func IsValidMessageType(t string) bool {
	return t == TypeMaterial || t == TypeTask || t == TypeEvent || t == TypeForm
}

// IsPollBearing reports whether messages of this type carry a poll.
func IsPollBearing(t string) bool {
	return t == TypeTask || t == TypeForm
}

// IsValidVote checks if a value is a known vote value.
func IsValidVote(v string) bool {
	return v == VoteYes || v == VoteNo
}

// IsValidReplyKind checks if a value is a known reply kind.
func IsValidReplyKind(k string) bool {
	return k == ReplyNormal || k == ReplyPoll || k == ReplyRequest
}

// Scope is the conversation boundary a message belongs to. The
// ConversationID is the canonical grouping key: the class id for class
// broadcasts, the sorted participant pair for direct messages. It is
// immutable once the message is written.
type Scope struct {
	Kind           string   `bson:"kind" json:"kind"` // class | dm
	ConversationID string   `bson:"conversation_id" json:"conversation_id"`
	Participants   []string `bson:"participants,omitempty" json:"participants,omitempty"` // dm only, sorted
}

// IsParticipant reports whether the user id hex is one of the DM
// participants. Always false for class scopes.
func (s Scope) IsParticipant(idHex string) bool {
	for _, p := range s.Participants {
		if p == idHex {
			return true
		}
	}
	return false
}

// Message is a typed item in a conversation. Messages are append-only:
// after creation the only permitted mutation is adding one PollResults
// entry per voter, and entries are never removed or overwritten.
//
// SenderRole is captured at creation and stays fixed even if the
// sender's role later changes. CreatedAt is assigned by the store and
// is the sole ordering key within a conversation.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Scope      Scope              `bson:"scope" json:"scope"`
	Type       string             `bson:"type" json:"type"` // material | task | event | form
	Title      string             `bson:"title" json:"title"`
	Body       string             `bson:"body" json:"body"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	SenderRole string             `bson:"sender_role" json:"sender_role"`
	Deadline   *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Link       string             `bson:"link,omitempty" json:"link,omitempty"`

	// PollResults maps voter id (hex) to "yes" or "no". Present (may be
	// empty) iff the type is poll-bearing, absent otherwise.
	PollResults map[string]string `bson:"poll_results,omitempty" json:"poll_results,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// HasVoted reports whether the voter already has a recorded poll entry.
func (m Message) HasVoted(voterIDHex string) bool {
	_, ok := m.PollResults[voterIDHex]
	return ok
}

// Reply is a child record of a message, ordered by CreatedAt ascending
// within its parent. Replies are created once and never mutated.
type Reply struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MessageID  primitive.ObjectID `bson:"message_id" json:"message_id"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorRole string             `bson:"author_role" json:"author_role"`
	Body       string             `bson:"body" json:"body"`
	Kind       string             `bson:"kind" json:"kind"` // normal | poll | request

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
