package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/classline/classline/internal/app/system/auth"
	"github.com/classline/classline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestRequireSignedIn(t *testing.T) {
	next, called := okHandler()
	h := auth.RequireSignedIn(next)

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d", rec.Code)
	}
	if *called {
		t.Fatal("handler ran for anonymous request")
	}

	req = auth.WithTestUser(httptest.NewRequest(http.MethodGet, "/messages", nil), &auth.SessionUser{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Ada",
		Role: models.RoleStudent,
	})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !*called {
		t.Fatalf("signed in: status = %d, called = %v", rec.Code, *called)
	}
}

func TestRequireRole(t *testing.T) {
	next, _ := okHandler()
	h := auth.RequireRole(models.RoleAdmin, models.RoleTeacher)(next)

	cases := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"student", &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleStudent}, http.StatusForbidden},
		{"teacher", &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleTeacher}, http.StatusOK},
		{"admin mixed case", &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "Admin"}, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/departments", nil)
		if tc.user != nil {
			req = auth.WithTestUser(req, tc.user)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestCurrentUserAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := auth.CurrentUser(req); ok {
		t.Fatal("expected no user in a bare request")
	}
}
