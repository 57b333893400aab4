// internal/app/features/session/handler.go

// Package session establishes and tears down signed-in sessions.
// Identity verification happens upstream; this surface accepts an
// already-verified user id, loads the directory record, and caches the
// identity in the session cookie. Role and membership are re-read from
// the directory on every request, so the cookie never grants more than
// "who you are".
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	directorystore "github.com/classline/classline/internal/app/store/directory"
	"github.com/classline/classline/internal/app/system/auth"
	"github.com/classline/classline/internal/app/system/httpjson"
	"github.com/classline/classline/internal/app/system/limits"
	"github.com/classline/classline/internal/app/system/ratelimit"
	"github.com/classline/classline/internal/app/system/timeouts"
	"github.com/classline/classline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds dependencies for session management.
type Handler struct {
	Directory directorystore.Store
	Limit     *ratelimit.SessionLimiter
	Log       *zap.Logger
}

func NewHandler(directory directorystore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Directory: directory,
		Limit:     ratelimit.NewSessionLimiter(),
		Log:       logger,
	}
}

type createRequest struct {
	UserID string `json:"user_id"`
}

type sessionResponse struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Create handles POST /session. The user must exist in the directory.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	if allowed, reason := h.Limit.Check(r, req.UserID); !allowed {
		httpjson.Respond(w, http.StatusTooManyRequests, map[string]string{"error": reason})
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		httpjson.Error(w, h.Log, models.Invalid("user_id", "malformed user id"))
		return
	}

	user, err := h.Directory.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Don't reveal which ids exist to unauthenticated callers.
			httpjson.Respond(w, http.StatusUnauthorized, map[string]string{"error": "unknown user"})
			return
		}
		httpjson.Error(w, h.Log, err)
		return
	}

	su := &auth.SessionUser{
		ID:   user.ID.Hex(),
		Name: user.FullName,
		Role: user.Role,
	}
	if user.DepartmentID != nil {
		su.DepartmentID = user.DepartmentID.Hex()
	}
	if user.ClassID != nil {
		su.ClassID = user.ClassID.Hex()
	}
	if err := auth.SignIn(w, r, su); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		httpjson.Respond(w, http.StatusInternalServerError, map[string]string{"error": "could not establish session"})
		return
	}

	h.Limit.ResetUser(req.UserID)
	h.Log.Info("session created",
		zap.String("user_id", su.ID),
		zap.String("role", su.Role))
	httpjson.Respond(w, http.StatusCreated, sessionResponse{
		UserID:   su.ID,
		FullName: su.Name,
		Role:     su.Role,
	})
}

// Destroy handles DELETE /session.
func (h *Handler) Destroy(w http.ResponseWriter, r *http.Request) {
	if err := auth.SignOut(w, r); err != nil {
		h.Log.Error("session clear failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
