// internal/app/features/session/handler_test.go
package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/classline/classline/internal/app/features/session"
	directorystore "github.com/classline/classline/internal/app/store/directory"
	"github.com/classline/classline/internal/app/system/auth"
	"github.com/classline/classline/internal/domain/models"
	"github.com/classline/classline/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func setupSessionStore(t *testing.T) {
	t.Helper()
	if err := auth.InitSessionStore(strings.Repeat("k", 32), "", false, zap.NewNop()); err != nil {
		t.Fatalf("init session store: %v", err)
	}
}

func postSession(t *testing.T, h *session.Handler, body string) *testutil.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(body))
	rec := testutil.NewRecorder()
	h.Create(rec.ResponseRecorder, req)
	return rec
}

func TestCreateSession(t *testing.T) {
	setupSessionStore(t)
	dir := directorystore.NewMem()
	u, err := dir.CreateUser(context.Background(), models.User{FullName: "Grace Form", Role: models.RoleTeacher})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h := session.NewHandler(dir, zap.NewNop())

	rec := postSession(t, h, `{"user_id":"`+u.ID.Hex()+`"}`)
	rec.AssertStatus(t, http.StatusCreated)

	var body struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.UserID != u.ID.Hex() || body.Role != models.RoleTeacher {
		t.Fatalf("body = %+v", body)
	}
	if cookies := rec.Result().Cookies(); len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}
}

func TestCreateSessionRejections(t *testing.T) {
	setupSessionStore(t)
	dir := directorystore.NewMem()
	h := session.NewHandler(dir, zap.NewNop())

	rec := postSession(t, h, `{"user_id":"not-an-id"}`)
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = postSession(t, h, `{"user_id":"`+primitive.NewObjectID().Hex()+`"}`)
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = postSession(t, h, `{nope`)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestCreateSessionThrottled(t *testing.T) {
	setupSessionStore(t)
	dir := directorystore.NewMem()
	h := session.NewHandler(dir, zap.NewNop())

	// Unknown but well-formed id; five failed attempts exhaust the
	// per-account window, the sixth is rejected outright.
	body := `{"user_id":"` + primitive.NewObjectID().Hex() + `"}`
	for i := 0; i < 5; i++ {
		rec := postSession(t, h, body)
		rec.AssertStatus(t, http.StatusUnauthorized)
	}

	rec := postSession(t, h, body)
	rec.AssertStatus(t, http.StatusTooManyRequests)
}

func TestDestroySession(t *testing.T) {
	setupSessionStore(t)
	h := session.NewHandler(directorystore.NewMem(), zap.NewNop())

	req := testutil.NewRequest(http.MethodDelete, "/session")
	rec := testutil.NewRecorder()
	h.Destroy(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)
}
