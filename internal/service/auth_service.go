package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"
	"github.com/juju/loggo/v2"

	"lifeline/internal/models"
	"lifeline/internal/security"
)

var logger = loggo.GetLogger("lifeline.service")

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrNoToken         = errors.New("No token received")
	ErrNoAuthURL       = errors.New("No authorization URL received")
)

// SessionStore persists sessions
type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	ReplaceSession(ctx context.Context, oldID string, s *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	ListActiveSessions(ctx context.Context, now time.Time) ([]models.Session, error)
}

// AuthService handles the Google sign-in exchange and the session lifecycle
type AuthService struct {
	sessions        SessionStore
	backend         Backend
	clock           clock.Clock
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service. backend must be unauthenticated.
func NewAuthService(sessions SessionStore, backend Backend, clk clock.Clock, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		sessions:        sessions,
		backend:         backend,
		clock:           clk,
		sessionDuration: sessionDuration,
	}
}

// GoogleLoginURL asks the backend where to send the browser for Google consent
func (s *AuthService) GoogleLoginURL(ctx context.Context) (string, error) {
	var resp models.GoogleLoginResponse
	if err := s.backend.Do(ctx, http.MethodGet, "/auth/google-login", nil, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to get google login url: %w", err)
	}
	if resp.AuthURL == "" {
		return "", ErrNoAuthURL
	}
	return resp.AuthURL, nil
}

// ExchangeCode trades an authorization code for a LifeLine bearer token
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (*models.TokenResponse, error) {
	var resp models.TokenResponse
	body := map[string]string{"code": code}
	if err := s.backend.Do(ctx, http.MethodPost, "/auth/callback", nil, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, ErrNoToken
	}
	return &resp, nil
}

// Login persists a new session holding token, userID and email in one write.
// A previous session id, when given, is replaced in the same transaction.
func (s *AuthService) Login(ctx context.Context, previousID, token, userID, email string) (*models.Session, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.sessionDuration)

	claims := tokenClaims(token)
	if userID == "" {
		userID = claims.subject
	}
	if email == "" {
		email = claims.email
	}
	if !claims.expiresAt.IsZero() && claims.expiresAt.Before(expiresAt) {
		expiresAt = claims.expiresAt
	}

	session := &models.Session{
		ID:        security.GenerateSessionID(),
		UserID:    userID,
		UserEmail: email,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	var err error
	if previousID != "" {
		err = s.sessions.ReplaceSession(ctx, previousID, session)
	} else {
		err = s.sessions.CreateSession(ctx, session)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	logger.Infof("session created for user %q", email)
	return session, nil
}

// ValidateSession returns the live session for sessionID
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired(s.clock.Now()) {
		if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
			logger.Errorf("failed to delete expired session %s: %v", shortID(sessionID), err)
		}
		return nil, ErrSessionExpired
	}
	return session, nil
}

// IsAuthenticated reports whether sessionID names a live session
func (s *AuthService) IsAuthenticated(ctx context.Context, sessionID string) bool {
	_, err := s.ValidateSession(ctx, sessionID)
	return err == nil
}

// Logout destroys the session, clearing token, user id and email together
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	logger.Infof("session %s destroyed", shortID(sessionID))
	return nil
}

// CleanupExpiredSessions removes expired sessions from the store
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}

// ActiveSessions lists sessions that have not expired
func (s *AuthService) ActiveSessions(ctx context.Context) ([]models.Session, error) {
	sessions, err := s.sessions.ListActiveSessions(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	return sessions, nil
}

type claimSet struct {
	subject   string
	email     string
	expiresAt time.Time
}

// tokenClaims reads identity hints from a JWT bearer token. The backend is the
// authority on the token, so the signature is not checked here; opaque tokens yield no hints.
func tokenClaims(token string) claimSet {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		logger.Debugf("bearer token is not a readable JWT: %v", err)
		return claimSet{}
	}

	var out claimSet
	if sub, err := claims.GetSubject(); err == nil {
		out.subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.expiresAt = exp.Time
	}
	if email, ok := claims["email"].(string); ok {
		out.email = email
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
