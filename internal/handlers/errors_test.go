package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/juju/loggo/v2"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	body := strings.TrimSpace(recorder.Body.String())
	if body != "Teapot" {
		t.Fatalf("expected body 'Teapot', got %q", body)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	writer := &loggo.TestWriter{}
	ctx := loggo.NewContext(loggo.WARNING)
	if err := ctx.AddWriter("test", writer); err != nil {
		t.Fatalf("AddWriter() error = %v", err)
	}
	previous := logger
	logger = ctx.GetLogger("lifeline.handlers")
	defer func() { logger = previous }()

	recorder := httptest.NewRecorder()
	respondWithError(recorder, 500, "Internal server error", "", errors.New("boom"))

	logs := writer.Log()
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs))
	}
	if !strings.Contains(logs[0].Message, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logs[0].Message)
	}
	if !strings.Contains(logs[0].Message, "boom") {
		t.Fatalf("expected log to include error, got %q", logs[0].Message)
	}
}

func TestRedirectToLoginEncodesMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"", "/login"},
		{"access_denied", "/login?error=access_denied"},
		{"No code received", "/login?error=No+code+received"},
	}
	for _, tt := range tests {
		recorder := httptest.NewRecorder()
		redirectToLogin(recorder, httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil), tt.msg)
		if got := recorder.Header().Get("Location"); got != tt.want {
			t.Errorf("redirectToLogin(%q) Location = %q, want %q", tt.msg, got, tt.want)
		}
	}
}
