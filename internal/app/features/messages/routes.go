// internal/app/features/messages/routes.go
package messages

import (
	"github.com/classline/classline/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the messaging endpoints on the supplied
// router. Everything requires a session; per-conversation permissions
// are enforced in the handlers against the live directory.
func MountRoutes(r chi.Router, h *Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)

		r.Post("/messages", h.Create)
		r.Get("/messages/{messageID}", h.Get)
		r.Post("/messages/{messageID}/votes", h.Vote)
		r.Post("/messages/{messageID}/replies", h.CreateReply)
		r.Get("/messages/{messageID}/replies", h.ListReplies)
		r.Get("/messages/{messageID}/replies/stream", h.StreamReplies)

		r.Get("/classes/{classID}/messages", h.ListClassMessages)
		r.Get("/classes/{classID}/messages/stream", h.StreamClassMessages)

		r.Get("/dms/{peerID}/messages", h.ListDMMessages)
		r.Get("/dms/{peerID}/messages/stream", h.StreamDMMessages)
	})
}
