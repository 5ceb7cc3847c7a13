package security

import (
	"crypto/tls"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
)

func TestCSRFToken(t *testing.T) {
	gen := NewCSRFGenerator("secret")

	token, err := gen.GenerateToken("session-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if !gen.ValidateToken("session-1", token) {
		t.Error("ValidateToken() should accept the token of its own session")
	}
	if gen.ValidateToken("session-2", token) {
		t.Error("ValidateToken() should reject a token from another session")
	}
	if NewCSRFGenerator("other").ValidateToken("session-1", token) {
		t.Error("ValidateToken() should reject a token made with another secret")
	}
	if _, err := gen.GenerateToken(""); err == nil {
		t.Error("GenerateToken(\"\") should fail")
	}
}

func TestTokenBoxRoundTrip(t *testing.T) {
	box := NewTokenBox("secret")

	sealed, err := box.Seal("eyJhbGciOi.backend.token")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if strings.Contains(sealed, "backend") {
		t.Fatal("sealed token should not contain the plaintext")
	}

	got, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got != "eyJhbGciOi.backend.token" {
		t.Errorf("Open() = %v, want original token", got)
	}

	if _, err := NewTokenBox("other").Open(sealed); err != ErrTokenTampered {
		t.Errorf("Open() with wrong key error = %v, want %v", err, ErrTokenTampered)
	}
	if _, err := box.Open("c2hvcnQ"); err != ErrTokenTampered {
		t.Errorf("Open() of short input error = %v, want %v", err, ErrTokenTampered)
	}
}

func TestRateLimiter(t *testing.T) {
	clk := testclock.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	rl := NewRateLimiter(3, time.Minute, clk)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("fourth request inside the window should be rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("another client should have its own bucket")
	}

	clk.Advance(time.Minute)
	if !rl.Allow("10.0.0.1") {
		t.Error("bucket should refill after the window")
	}

	clk.Advance(3 * time.Minute)
	if got := rl.Sweep(); got != 2 {
		t.Errorf("Sweep() = %d, want 2", got)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, want: "1.2.3.4"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "5.6.7.8"}, want: "5.6.7.8"},
		{name: "remote addr", remote: "9.9.9.9:1234", want: "9.9.9.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if tt.remote != "" {
				r.RemoteAddr = tt.remote
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionCookies(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	expires := time.Now().Add(time.Hour)

	c := CreateSessionCookie(r, "abc", expires)
	if c.Name != SessionCookieName || c.Value != "abc" || !c.HttpOnly || c.Secure {
		t.Errorf("unexpected session cookie: %+v", c)
	}

	r.TLS = &tls.ConnectionState{}
	if !CreateSessionCookie(r, "abc", expires).Secure {
		t.Error("cookie over TLS should be Secure")
	}

	del := CreateDeleteCookie(r)
	if del.MaxAge != -1 || del.Value != "" {
		t.Errorf("unexpected delete cookie: %+v", del)
	}

	if GenerateSessionID() == GenerateSessionID() {
		t.Error("GenerateSessionID() should not repeat")
	}
}
