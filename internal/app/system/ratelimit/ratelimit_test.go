package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowsWithinLimit(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("key") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("key") {
		t.Error("fourth attempt should be blocked")
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	if !l.Allow("a") {
		t.Fatal("first attempt for a should be allowed")
	}
	if !l.Allow("b") {
		t.Error("first attempt for b should be allowed")
	}
	if l.Allow("a") {
		t.Error("second attempt for a should be blocked")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, 50*time.Millisecond)

	if !l.Allow("key") {
		t.Fatal("first attempt should be allowed")
	}
	if l.Allow("key") {
		t.Fatal("second attempt should be blocked")
	}

	time.Sleep(80 * time.Millisecond)

	if !l.Allow("key") {
		t.Error("attempt after window expiry should be allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)

	l.Allow("key")
	if l.Allow("key") {
		t.Fatal("second attempt should be blocked")
	}

	l.Reset("key")
	if !l.Allow("key") {
		t.Error("attempt after reset should be allowed")
	}
}

func TestClientIP_XForwardedFor(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	if ip := ClientIP(r); ip != "203.0.113.7" {
		t.Errorf("expected forwarded client ip, got %q", ip)
	}
}

func TestClientIP_RemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.5:4321"

	if ip := ClientIP(r); ip != "192.0.2.5" {
		t.Errorf("expected remote addr ip, got %q", ip)
	}
}

func TestSessionLimiter_BlocksHammeredAccount(t *testing.T) {
	sl := NewSessionLimiter()
	r := httptest.NewRequest("POST", "/session", nil)

	for i := 0; i < 5; i++ {
		allowed, _ := sl.Check(r, "user-1")
		if !allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	allowed, reason := sl.Check(r, "user-1")
	if allowed {
		t.Fatal("sixth attempt for the same account should be blocked")
	}
	if reason == "" {
		t.Error("blocked attempt should carry a reason")
	}

	// Other accounts are unaffected.
	if allowed, _ := sl.Check(r, "user-2"); !allowed {
		t.Error("different account should still be allowed")
	}
}

func TestSessionLimiter_ResetUser(t *testing.T) {
	sl := NewSessionLimiter()
	r := httptest.NewRequest("POST", "/session", nil)

	for i := 0; i < 5; i++ {
		sl.Check(r, "user-1")
	}
	sl.ResetUser("user-1")

	if allowed, _ := sl.Check(r, "user-1"); !allowed {
		t.Error("attempt after reset should be allowed")
	}
}
