// internal/app/messaging/service.go

// Package messaging validates and creates messages, records poll
// votes, and appends replies. Every mutation consults the policy
// layer before touching the store, so authorization has a single
// choke point regardless of which surface called in.
package messaging

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/classline/classline/internal/app/policy/messagepolicy"
	directorystore "github.com/classline/classline/internal/app/store/directory"
	messagestore "github.com/classline/classline/internal/app/store/messages"
	"github.com/classline/classline/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Service is the message lifecycle manager.
type Service struct {
	directory directorystore.Store
	messages  messagestore.Store
	validate  *validator.Validate
	bodyHTML  *bluemonday.Policy // user-generated-content whitelist for bodies
	plain     *bluemonday.Policy // strips all markup; titles and links stay plain text
	log       *zap.Logger
}

func NewService(directory directorystore.Store, messages messagestore.Store, logger *zap.Logger) *Service {
	v := validator.New()
	// Report JSON field names so validation errors match the wire payloads.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		directory: directory,
		messages:  messages,
		validate:  v,
		bodyHTML:  bluemonday.UGCPolicy(),
		plain:     bluemonday.StrictPolicy(),
		log:       logger,
	}
}

// CreateMessageInput carries the sender-controlled fields of a new
// message. The deadline, when present, is informational; it is never
// ordered against "now".
type CreateMessageInput struct {
	Type     string     `json:"type" validate:"required,oneof=material task event form"`
	Title    string     `json:"title" validate:"required"`
	Body     string     `json:"body" validate:"required"`
	Deadline *time.Time `json:"deadline,omitempty"`
	Link     string     `json:"link,omitempty" validate:"omitempty,url"`
}

// CreateReplyInput carries the author-controlled fields of a reply.
type CreateReplyInput struct {
	Kind string `json:"kind" validate:"required,oneof=normal poll request"`
	Body string `json:"body" validate:"required"`
}

// CreateMessage validates and persists a new message in the scope.
// Poll-bearing types start with an empty poll-results map; other types
// carry none. The persisted message, with store-assigned id and
// timestamp, is returned.
func (s *Service) CreateMessage(ctx context.Context, actor models.User, scope models.Scope, in CreateMessageInput) (models.Message, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if err := s.checkInput(in); err != nil {
		return models.Message{}, err
	}

	class, err := s.classForScope(ctx, scope)
	if err != nil {
		return models.Message{}, err
	}
	if !messagepolicy.CanCreateMessage(actor, scope, class) {
		return models.Message{}, models.ErrPermissionDenied
	}

	m := models.Message{
		Scope:      scope,
		Type:       in.Type,
		Title:      s.plain.Sanitize(in.Title),
		Body:       s.bodyHTML.Sanitize(in.Body),
		SenderID:   actor.ID,
		SenderRole: actor.Role,
		Deadline:   in.Deadline,
		Link:       in.Link,
	}
	if models.IsPollBearing(in.Type) {
		m.PollResults = map[string]string{}
	}

	created, err := s.messages.Append(ctx, m)
	if err != nil {
		return models.Message{}, err
	}
	s.log.Info("message created",
		zap.String("message_id", created.ID.Hex()),
		zap.String("conversation_id", created.Scope.ConversationID),
		zap.String("type", created.Type),
		zap.String("sender_id", actor.ID.Hex()))
	return created, nil
}

// SubmitVote records the actor's vote on a poll-bearing message. A
// voter has exactly one irreversible transition, unvoted to voted;
// any later submission returns ErrAlreadyVoted and the recorded value
// stands. Concurrent submissions from the same voter resolve to one
// winner through the store's conditional write.
func (s *Service) SubmitVote(ctx context.Context, actor models.User, messageID primitive.ObjectID, value string) (models.Message, error) {
	if !models.IsValidVote(value) {
		return models.Message{}, models.Invalid("value", `must be "yes" or "no"`)
	}

	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if msg.HasVoted(actor.ID.Hex()) {
		return models.Message{}, models.ErrAlreadyVoted
	}

	class, err := s.classForScope(ctx, msg.Scope)
	if err != nil {
		return models.Message{}, err
	}
	if !messagepolicy.CanVote(actor, msg, class) {
		return models.Message{}, models.ErrPermissionDenied
	}

	updated, err := s.messages.SetPollVote(ctx, messageID, actor.ID.Hex(), value)
	if err != nil {
		if errors.Is(err, messagestore.ErrVoteConflict) {
			// Lost a race with our own earlier submission.
			return models.Message{}, models.ErrAlreadyVoted
		}
		return models.Message{}, err
	}
	s.log.Info("vote recorded",
		zap.String("message_id", messageID.Hex()),
		zap.String("voter_id", actor.ID.Hex()),
		zap.String("value", value))
	return updated, nil
}

// CreateReply validates and appends a reply to the message's thread.
func (s *Service) CreateReply(ctx context.Context, actor models.User, messageID primitive.ObjectID, in CreateReplyInput) (models.Reply, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := s.checkInput(in); err != nil {
		return models.Reply{}, err
	}

	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return models.Reply{}, err
	}
	class, err := s.classForScope(ctx, msg.Scope)
	if err != nil {
		return models.Reply{}, err
	}
	if !messagepolicy.CanReply(actor, msg, class) {
		return models.Reply{}, models.ErrPermissionDenied
	}

	reply := models.Reply{
		MessageID:  messageID,
		AuthorID:   actor.ID,
		AuthorRole: actor.Role,
		Body:       s.bodyHTML.Sanitize(in.Body),
		Kind:       in.Kind,
	}
	created, err := s.messages.AppendReply(ctx, reply)
	if err != nil {
		return models.Reply{}, err
	}
	s.log.Info("reply created",
		zap.String("reply_id", created.ID.Hex()),
		zap.String("message_id", messageID.Hex()),
		zap.String("author_id", actor.ID.Hex()))
	return created, nil
}

// AuthorizeView checks that the actor may read the conversation.
func (s *Service) AuthorizeView(ctx context.Context, actor models.User, scope models.Scope) error {
	class, err := s.classForScope(ctx, scope)
	if err != nil {
		return err
	}
	if !messagepolicy.CanViewConversation(actor, scope, class) {
		return models.ErrPermissionDenied
	}
	return nil
}

// Snapshot returns the conversation's messages ordered by creation
// time ascending, after checking read permission.
func (s *Service) Snapshot(ctx context.Context, actor models.User, scope models.Scope) ([]models.Message, error) {
	if err := s.AuthorizeView(ctx, actor, scope); err != nil {
		return nil, err
	}
	return s.messages.Query(ctx, scope.ConversationID)
}

// Replies returns a message's reply thread ordered by creation time
// ascending, after checking the actor may read the conversation the
// message belongs to.
func (s *Service) Replies(ctx context.Context, actor models.User, messageID primitive.ObjectID) ([]models.Reply, error) {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.AuthorizeView(ctx, actor, msg.Scope); err != nil {
		return nil, err
	}
	return s.messages.QueryReplies(ctx, messageID)
}

// Message loads one message, gated like its conversation.
func (s *Service) Message(ctx context.Context, actor models.User, messageID primitive.ObjectID) (models.Message, error) {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if err := s.AuthorizeView(ctx, actor, msg.Scope); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// classForScope loads the class record for class scopes; DM scopes
// need no directory context. A class id that does not resolve is
// NotFound; the resolver deliberately skips that check.
func (s *Service) classForScope(ctx context.Context, scope models.Scope) (*models.Class, error) {
	if scope.Kind != models.ScopeClass {
		return nil, nil
	}
	classID, err := primitive.ObjectIDFromHex(scope.ConversationID)
	if err != nil {
		return nil, models.Invalid("class_id", "malformed class id")
	}
	class, err := s.directory.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// checkInput runs struct validation and converts the first violation
// into the shared taxonomy.
func (s *Service) checkInput(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return models.Invalid(fe.Field(), "failed "+fe.Tag()+" validation")
	}
	return models.Invalid("input", err.Error())
}
