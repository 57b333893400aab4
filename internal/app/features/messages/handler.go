// internal/app/features/messages/handler.go

// Package messages is the conversation surface: posting typed
// messages into class broadcasts and direct conversations, casting
// poll votes, threading replies, and reading snapshots or live
// streams of either.
package messages

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/classline/classline/internal/app/conversation"
	"github.com/classline/classline/internal/app/live"
	"github.com/classline/classline/internal/app/messaging"
	directorystore "github.com/classline/classline/internal/app/store/directory"
	"github.com/classline/classline/internal/app/system/authz"
	"github.com/classline/classline/internal/app/system/httpjson"
	"github.com/classline/classline/internal/app/system/limits"
	"github.com/classline/classline/internal/app/system/timeouts"
	"github.com/classline/classline/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds dependencies for the messaging endpoints.
type Handler struct {
	Service   *messaging.Service
	Live      *live.Synchronizer
	Directory directorystore.Store
	Log       *zap.Logger
}

func NewHandler(svc *messaging.Service, sync *live.Synchronizer, directory directorystore.Store, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, Live: sync, Directory: directory, Log: logger}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	actor, err := authz.Actor(r, h.Directory)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return models.User{}, false
	}
	return actor, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	if err != nil {
		httpjson.BadRequest(w, "malformed "+param)
		return primitive.NilObjectID, false
	}
	return id, true
}

// scopeRequest picks the conversation a request addresses. Exactly one
// of ClassID or PeerID must be set; the actor is always the second DM
// participant.
type scopeRequest struct {
	ClassID string `json:"class_id,omitempty"`
	PeerID  string `json:"peer_id,omitempty"`
}

func (h *Handler) resolveScope(actor models.User, req scopeRequest) (models.Scope, error) {
	switch {
	case req.ClassID != "" && req.PeerID != "":
		return models.Scope{}, models.Invalid("scope", "class_id and peer_id are mutually exclusive")
	case req.ClassID != "":
		classID, err := primitive.ObjectIDFromHex(req.ClassID)
		if err != nil {
			return models.Scope{}, models.Invalid("class_id", "malformed class id")
		}
		return conversation.ResolveClass(classID), nil
	case req.PeerID != "":
		peerID, err := primitive.ObjectIDFromHex(req.PeerID)
		if err != nil {
			return models.Scope{}, models.Invalid("peer_id", "malformed peer id")
		}
		return conversation.ResolveDM(actor.ID, peerID)
	default:
		return models.Scope{}, models.Invalid("scope", "class_id or peer_id is required")
	}
}

// Create handles POST /messages.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req struct {
		scopeRequest
		messaging.CreateMessageInput
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxMessageBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}
	scope, err := h.resolveScope(actor, req.scopeRequest)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	msg, err := h.Service.CreateMessage(ctx, actor, scope, req.CreateMessageInput)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Respond(w, http.StatusCreated, msg)
}

// Get handles GET /messages/{messageID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	messageID, ok := h.pathID(w, r, "messageID")
	if !ok {
		return
	}

	msg, err := h.Service.Message(ctx, actor, messageID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, msg)
}

// Vote handles POST /messages/{messageID}/votes.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	messageID, ok := h.pathID(w, r, "messageID")
	if !ok {
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	msg, err := h.Service.SubmitVote(ctx, actor, messageID, req.Value)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, msg)
}

// CreateReply handles POST /messages/{messageID}/replies.
func (h *Handler) CreateReply(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	messageID, ok := h.pathID(w, r, "messageID")
	if !ok {
		return
	}

	var req messaging.CreateReplyInput
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxMessageBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	reply, err := h.Service.CreateReply(ctx, actor, messageID, req)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Respond(w, http.StatusCreated, reply)
}

// ListReplies handles GET /messages/{messageID}/replies.
func (h *Handler) ListReplies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	messageID, ok := h.pathID(w, r, "messageID")
	if !ok {
		return
	}

	replies, err := h.Service.Replies(ctx, actor, messageID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, replies)
}

// ListClassMessages handles GET /classes/{classID}/messages.
func (h *Handler) ListClassMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	classID, ok := h.pathID(w, r, "classID")
	if !ok {
		return
	}

	msgs, err := h.Service.Snapshot(ctx, actor, conversation.ResolveClass(classID))
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, msgs)
}

// ListDMMessages handles GET /dms/{peerID}/messages. The conversation
// is the one between the signed-in user and the peer.
func (h *Handler) ListDMMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	peerID, ok := h.pathID(w, r, "peerID")
	if !ok {
		return
	}

	scope, err := conversation.ResolveDM(actor.ID, peerID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	msgs, err := h.Service.Snapshot(ctx, actor, scope)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, msgs)
}
