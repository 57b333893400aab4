// internal/app/features/messages/stream.go
package messages

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/classline/classline/internal/app/conversation"
	"github.com/classline/classline/internal/app/system/httpjson"
	"github.com/classline/classline/internal/domain/models"
	"go.uber.org/zap"
)

// Live streams are server-sent events. Every event carries the full
// ordered snapshot, so a client that misses an event is made whole by
// the next one and reconnection needs no cursor bookkeeping.

// StreamClassMessages handles GET /classes/{classID}/messages/stream.
func (h *Handler) StreamClassMessages(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	classID, ok := h.pathID(w, r, "classID")
	if !ok {
		return
	}
	h.streamConversation(w, r, actor, conversation.ResolveClass(classID))
}

// StreamDMMessages handles GET /dms/{peerID}/messages/stream.
func (h *Handler) StreamDMMessages(w http.ResponseWriter, r *http.Request) {
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
	h.streamConversation(w, r, actor, scope)
}

func (h *Handler) streamConversation(w http.ResponseWriter, r *http.Request, actor models.User, scope models.Scope) {
	if err := h.Service.AuthorizeView(r.Context(), actor, scope); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpjson.BadRequest(w, "streaming not supported")
		return
	}

	// The watch goroutine never touches the ResponseWriter; snapshots
	// cross to the handler goroutine over the channel.
	snapshots := make(chan []models.Message, 4)
	watchErrs := make(chan error, 1)
	sub, err := h.Live.WatchConversation(r.Context(), scope.ConversationID,
		func(msgs []models.Message) { pushLatest(snapshots, msgs) },
		func(err error) { watchErrs <- err })
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	defer sub.Cancel()

	writeSSEHeaders(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case err := <-watchErrs:
			h.Log.Warn("conversation stream ended",
				zap.String("conversation_id", scope.ConversationID),
				zap.Error(err))
			writeSSEEvent(w, flusher, "error", map[string]string{"error": "stream ended"})
			return
		case msgs := <-snapshots:
			writeSSEEvent(w, flusher, "snapshot", msgs)
		}
	}
}

// StreamReplies handles GET /messages/{messageID}/replies/stream.
func (h *Handler) StreamReplies(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	messageID, ok := h.pathID(w, r, "messageID")
	if !ok {
		return
	}
	msg, err := h.Service.Message(r.Context(), actor, messageID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpjson.BadRequest(w, "streaming not supported")
		return
	}

	snapshots := make(chan []models.Reply, 4)
	watchErrs := make(chan error, 1)
	sub, err := h.Live.WatchReplies(r.Context(), msg.ID,
		func(replies []models.Reply) { pushLatest(snapshots, replies) },
		func(err error) { watchErrs <- err })
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	defer sub.Cancel()

	writeSSEHeaders(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case err := <-watchErrs:
			h.Log.Warn("reply stream ended",
				zap.String("message_id", msg.ID.Hex()),
				zap.Error(err))
			writeSSEEvent(w, flusher, "error", map[string]string{"error": "stream ended"})
			return
		case replies := <-snapshots:
			writeSSEEvent(w, flusher, "snapshot", replies)
		}
	}
}

// pushLatest enqueues a snapshot, evicting the oldest queued one when
// the client is slow. Every snapshot is complete, so the newest always
// supersedes anything still queued.
func pushLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func writeSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
