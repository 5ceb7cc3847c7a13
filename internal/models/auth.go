package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// UserID accepts both numeric and string ids from the backend
type UserID string

func (id *UserID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = UserID(strings.TrimSpace(n.String()))
	return nil
}

// AuthUser is the user block of the token exchange response
type AuthUser struct {
	ID    UserID `json:"id"`
	Email string `json:"email"`
}

// TokenResponse is the response of POST /auth/callback
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        *AuthUser `json:"user"`
}

// GoogleLoginResponse is the response of GET /auth/google-login
type GoogleLoginResponse struct {
	AuthURL string `json:"auth_url"`
}
