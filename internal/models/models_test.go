package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{name: "future expiration", expiresAt: now.Add(time.Hour), want: false},
		{name: "expires exactly now", expiresAt: now, want: true},
		{name: "expired yesterday", expiresAt: now.Add(-24 * time.Hour), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{ID: "test-session", ExpiresAt: tt.expiresAt}
			if got := session.IsExpired(now); got != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2024-01-15", want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{in: "2024-01-15T10:30:00", want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{in: "2024-01-15T10:30:00.123456", want: time.Date(2024, 1, 15, 10, 30, 0, 123456000, time.UTC)},
		{in: "2024-01-15T10:30:00Z", want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{in: "2024-01-15 10:30:00", want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if err != nil {
				t.Fatalf("ParseDate(%q) error = %v", tt.in, err)
			}
			if !got.Time.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got.Time, tt.want)
			}
		})
	}

	if _, err := ParseDate("15/01/2024"); err == nil {
		t.Error("ParseDate should reject unknown layouts")
	}
}

func TestIllnessLogDecodesNullEndDate(t *testing.T) {
	body := `{"id":3,"family_member_id":1,"family_member_name":"Ana","illness_name":"Flu",
		"start_date":"2024-02-01","end_date":null,"notes":null,"ai_suggestion":"Rest"}`

	var log IllnessLog
	if err := json.Unmarshal([]byte(body), &log); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if log.EndDate != nil {
		t.Errorf("EndDate = %v, want nil", log.EndDate)
	}
	if log.EndDate.Ptr() != nil {
		t.Error("Ptr() of nil Date should be nil")
	}
	if log.StartDate.Day() != 1 || log.AISuggestion != "Rest" {
		t.Errorf("unexpected decode result: %+v", log)
	}
}

func TestFeatureFlagsDefaultToEnabled(t *testing.T) {
	off := false
	tests := []struct {
		name  string
		flags FeatureFlags
		chat  bool
		ill   bool
		drive bool
	}{
		{name: "not loaded", flags: FeatureFlags{}, chat: true, ill: true, drive: true},
		{name: "chat off", flags: FeatureFlags{AIChatEnabled: &off}, chat: false, ill: true, drive: true},
		{name: "all off", flags: FeatureFlags{AIChatEnabled: &off, AIIllnessSuggestionsEnabled: &off, AIDriveEnabled: &off}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flags.ChatEnabled(); got != tt.chat {
				t.Errorf("ChatEnabled() = %v, want %v", got, tt.chat)
			}
			if got := tt.flags.IllnessSuggestionsEnabled(); got != tt.ill {
				t.Errorf("IllnessSuggestionsEnabled() = %v, want %v", got, tt.ill)
			}
			if got := tt.flags.DriveAIEnabled(); got != tt.drive {
				t.Errorf("DriveAIEnabled() = %v, want %v", got, tt.drive)
			}
		})
	}

	var partial FeatureFlags
	if err := json.Unmarshal([]byte(`{"ai_chat_enabled":false}`), &partial); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if partial.ChatEnabled() || !partial.DriveAIEnabled() {
		t.Errorf("absent flags should default to enabled, got %+v", partial)
	}
}

func TestTokenResponseUserID(t *testing.T) {
	tests := []struct {
		body string
		want UserID
	}{
		{body: `{"access_token":"t","user":{"id":42,"email":"a@b.c"}}`, want: "42"},
		{body: `{"access_token":"t","user":{"id":"u-1","email":"a@b.c"}}`, want: "u-1"},
	}

	for _, tt := range tests {
		var resp TokenResponse
		if err := json.Unmarshal([]byte(tt.body), &resp); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.body, err)
		}
		if resp.User.ID != tt.want {
			t.Errorf("User.ID = %q, want %q", resp.User.ID, tt.want)
		}
	}
}
