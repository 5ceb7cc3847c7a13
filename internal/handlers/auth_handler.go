package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/juju/clock"

	"lifeline/internal/apiclient"
	"lifeline/internal/models"
	"lifeline/internal/security"
	"lifeline/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth          Authenticator
	templates     *template.Template
	exchanges     *codeExchanger
	redirectDelay time.Duration
	onLogout      func(sessionID string)
}

// NewAuthHandler creates a new auth handler. onLogout, when set, runs after a
// session is destroyed by the logout route.
func NewAuthHandler(auth Authenticator, templates *template.Template, clk clock.Clock, redirectDelay time.Duration, onLogout func(sessionID string)) *AuthHandler {
	return &AuthHandler{
		auth:          auth,
		templates:     templates,
		exchanges:     newCodeExchanger(clk),
		redirectDelay: redirectDelay,
		onLogout:      onLogout,
	}
}

func sessionCookieValue(r *http.Request) string {
	cookie, err := r.Cookie(security.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if h.auth.IsAuthenticated(r.Context(), sessionCookieValue(r)) {
		http.Redirect(w, r, homePath, http.StatusSeeOther)
		return
	}

	data := map[string]interface{}{
		"Title": "Login - LifeLine",
		"Error": r.URL.Query().Get("error"),
	}

	if err := h.templates.ExecuteTemplate(w, "login.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering login template", err)
	}
}

// GoogleLogin sends the browser to the Google consent page chosen by the backend
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.auth.GoogleLoginURL(r.Context())
	if err != nil {
		logger.Errorf("failed to get google login url: %v", err)
		redirectToLogin(w, r, apiclient.Detail(err, ErrGoogleLoginFailed))
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback finishes Google sign-in. An error parameter or a missing code
// go back to the login page without calling the backend. A valid code is
// exchanged once, the session is stored, and the browser is sent home after
// a short delay.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		redirectToLogin(w, r, errParam)
		return
	}
	code := query.Get("code")
	if code == "" {
		redirectToLogin(w, r, ErrNoCodeReceived)
		return
	}

	previousID := sessionCookieValue(r)
	session, err := h.exchanges.Do(r.Context(), code, previousID, func(ctx context.Context) (*models.Session, error) {
		resp, err := h.auth.ExchangeCode(ctx, code)
		if err != nil {
			return nil, err
		}
		var userID, email string
		if resp.User != nil {
			userID, email = string(resp.User.ID), resp.User.Email
		}
		return h.auth.Login(ctx, previousID, resp.AccessToken, userID, email)
	})
	if err != nil {
		logger.Warningf("google sign-in failed: %v", err)
		redirectToLogin(w, r, exchangeErrorMessage(err))
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, session.ID, session.ExpiresAt))

	data := map[string]interface{}{
		"Title":       "Signing in - LifeLine",
		"Next":        homePath,
		"DelayMillis": h.redirectDelay.Milliseconds(),
	}
	w.Header().Set("Cache-Control", "no-store")
	if err := h.templates.ExecuteTemplate(w, "callback.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering callback template", err)
	}
}

func exchangeErrorMessage(err error) string {
	if errors.Is(err, service.ErrNoToken) {
		return service.ErrNoToken.Error()
	}
	return apiclient.Detail(err, ErrAuthenticationFail)
}

// Logout destroys the session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := sessionCookieValue(r); sessionID != "" {
		if err := h.auth.Logout(r.Context(), sessionID); err != nil {
			logger.Errorf("failed to logout: %v", err)
		}
		if h.onLogout != nil {
			h.onLogout(sessionID)
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r))
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}
