package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/juju/errors"
)

// ErrSessionRevoked marks a 401 from a backend-owned endpoint. The session has
// already been destroyed when this error is returned.
var ErrSessionRevoked = errors.New("session revoked by backend")

// Error is a non-2xx backend response
type Error struct {
	StatusCode int
	Detail     string
	Path       string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend returned %d %s for %s", e.StatusCode, http.StatusText(e.StatusCode), e.Path)
}

// Unwrap exposes the juju/errors kind of the status code, so callers can use
// errors.Is(err, errors.Forbidden) and friends.
func (e *Error) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return errors.Unauthorized
	case e.StatusCode == http.StatusForbidden:
		return errors.Forbidden
	case e.StatusCode == http.StatusNotFound:
		return errors.NotFound
	case e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity:
		return errors.NotValid
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return errors.BadRequest
	}
	return nil
}

// StatusCode returns the backend status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Detail returns the backend's detail message carried by err, or fallback
func Detail(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// IsSessionRevoked reports whether err ended the session
func IsSessionRevoked(err error) bool {
	return errors.Is(err, ErrSessionRevoked)
}

// parseDetail extracts the human readable message from an error body. The
// backend sends {"detail": "..."} or, for validation errors, {"detail": [{"msg": "..."}]}.
func parseDetail(raw []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	if len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return body.Message
}
