// internal/app/policy/messagepolicy/messagepolicy.go

// Package messagepolicy provides authorization policies for
// conversations, messages, votes, and replies. It is the single choke
// point every mutating messaging operation passes through.
//
// Authorization rules:
//   - Admins can broadcast into any class and read/reply anywhere
//   - A teacher can broadcast only into a class they are the assigned
//     class teacher of; teachers and admins can always open DMs
//   - Students vote; one vote per poll-bearing message, final
//   - Conversation participants (roster students, the class teacher,
//     DM parties) can read and reply
//
// Predicates are pure and fail closed: the caller loads the contextual
// records (class rosters, the message) and passes them in; a missing
// record denies.
package messagepolicy

import (
	"github.com/classline/classline/internal/domain/models"
)

// CanCreateMessage reports whether the actor may create a message in
// the scope. For class scopes the class record is required: an
// arbitrary teacher may not broadcast into a class they do not own, so
// the actor must be an admin or the assigned class teacher.
func CanCreateMessage(actor models.User, scope models.Scope, class *models.Class) bool {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleTeacher {
		return false
	}
	switch scope.Kind {
	case models.ScopeClass:
		if class == nil {
			return false
		}
		return actor.Role == models.RoleAdmin || class.IsClassTeacher(actor.ID)
	case models.ScopeDM:
		return scope.IsParticipant(actor.ID.Hex())
	default:
		return false
	}
}

// CanVote reports whether the actor may cast a vote on the message.
// Voting is student-only; this is a policy decision, not something the
// roles imply; relax here if teachers are ever meant to vote. The
// message must be poll-bearing, the actor must belong to the
// conversation, and the actor must not have voted yet (votes are
// final).
func CanVote(actor models.User, msg models.Message, class *models.Class) bool {
	if actor.Role != models.RoleStudent {
		return false
	}
	if !models.IsPollBearing(msg.Type) {
		return false
	}
	if msg.HasVoted(actor.ID.Hex()) {
		return false
	}
	switch msg.Scope.Kind {
	case models.ScopeClass:
		return class != nil && class.HasStudent(actor.ID)
	case models.ScopeDM:
		return msg.Scope.IsParticipant(actor.ID.Hex())
	default:
		return false
	}
}

// CanReply reports whether the actor may append a reply to the message.
// Participants of the conversation may reply; admins always may, for
// moderation.
func CanReply(actor models.User, msg models.Message, class *models.Class) bool {
	return CanViewConversation(actor, msg.Scope, class)
}

// CanViewConversation reports whether the actor may read a
// conversation's messages. Admins always can; otherwise the actor must
// be a participant: on the class roster, the assigned class teacher,
// or a DM party.
func CanViewConversation(actor models.User, scope models.Scope, class *models.Class) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	switch scope.Kind {
	case models.ScopeClass:
		if class == nil {
			return false
		}
		return class.HasStudent(actor.ID) || class.IsClassTeacher(actor.ID)
	case models.ScopeDM:
		return scope.IsParticipant(actor.ID.Hex())
	default:
		return false
	}
}
