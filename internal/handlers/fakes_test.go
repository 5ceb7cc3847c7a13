package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"lifeline/internal/apiclient"
	"lifeline/internal/dashboard"
	"lifeline/internal/models"
	"lifeline/internal/security"
	"lifeline/internal/service"
	"lifeline/internal/templates"
)

var epoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// fakeAuth is an in-memory Authenticator
type fakeAuth struct {
	mu          sync.Mutex
	sessions    map[string]*models.Session
	loginURL    string
	loginURLErr error
	exchangeErr error
	exchanges   []string
	previous    []string
	logouts     []string
	next        int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{sessions: map[string]*models.Session{}, loginURL: "https://accounts.google.com/o/oauth2/auth?client_id=x"}
}

func (f *fakeAuth) addSession(id, token string) *models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &models.Session{ID: id, UserID: "7", UserEmail: "ana@example.com", Token: token, CreatedAt: epoch, ExpiresAt: epoch.Add(time.Hour)}
	f.sessions[id] = s
	return s
}

func (f *fakeAuth) exchangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.exchanges)
}

func (f *fakeAuth) GoogleLoginURL(ctx context.Context) (string, error) {
	return f.loginURL, f.loginURLErr
}

func (f *fakeAuth) ExchangeCode(ctx context.Context, code string) (*models.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchanges = append(f.exchanges, code)
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &models.TokenResponse{
		AccessToken: "token-" + code,
		TokenType:   "bearer",
		User:        &models.AuthUser{ID: "7", Email: "ana@example.com"},
	}, nil
}

func (f *fakeAuth) Login(ctx context.Context, previousID, token, userID, email string) (*models.Session, error) {
	if token == "" {
		return nil, service.ErrNoToken
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.previous = append(f.previous, previousID)
	delete(f.sessions, previousID)
	s := &models.Session{
		ID:        fmt.Sprintf("sess-%d", f.next),
		UserID:    userID,
		UserEmail: email,
		Token:     token,
		CreatedAt: epoch,
		ExpiresAt: epoch.Add(time.Hour),
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeAuth) ValidateSession(ctx context.Context, sessionID string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, service.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeAuth) IsAuthenticated(ctx context.Context, sessionID string) bool {
	_, err := f.ValidateSession(ctx, sessionID)
	return err == nil
}

func (f *fakeAuth) Logout(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
	f.logouts = append(f.logouts, sessionID)
	return nil
}

// backendStub plays the LifeLine REST backend
type backendStub struct {
	mu          sync.Mutex
	members     []models.FamilyMember
	medications []models.Medication
	files       []*models.DriveFile
	fail        map[string]int
	requests    []string
	auth        []string
}

func newBackendStub() *backendStub {
	return &backendStub{fail: map[string]int{}, files: []*models.DriveFile{}}
}

func (b *backendStub) failWith(route string, status int) {
	b.mu.Lock()
	b.fail[route] = status
	b.mu.Unlock()
}

func (b *backendStub) clearFailure(route string) {
	b.mu.Lock()
	delete(b.fail, route)
	b.mu.Unlock()
}

func (b *backendStub) setMembers(members []models.FamilyMember) {
	b.mu.Lock()
	b.members = members
	b.mu.Unlock()
}

func (b *backendStub) requested(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if r == route {
			n++
		}
	}
	return n
}

func (b *backendStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path

	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, route)
	b.auth = append(b.auth, r.Header.Get("Authorization"))

	if status, ok := b.fail[route]; ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": http.StatusText(status)})
		return
	}

	var out any
	switch route {
	case "GET /family-members":
		out = b.members
	case "GET /medications":
		out = b.medications
	case "POST /medications":
		var in models.MedicationInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, `{"detail":"bad json"}`, http.StatusBadRequest)
			return
		}
		med := models.Medication{ID: int64(len(b.medications) + 1), Name: in.Name, Quantity: in.Quantity}
		b.medications = append(b.medications, med)
		out = med
	case "GET /features":
		out = map[string]bool{}
	case "GET /illness-logs", "GET /medication-usage":
		out = []any{}
	case "GET /calendar/upcoming":
		out = models.UpcomingEvents{Events: map[string][]*models.CalendarEvent{}}
	case "GET /drive/files":
		out = models.DriveListing{Files: b.files, Connected: true}
	case "POST /drive/upload":
		out = models.DriveUpload{File: &models.DriveFile{Id: "new", Name: "upload"}, Message: "ok"}
	default:
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

type testApp struct {
	auth     *fakeAuth
	backend  *backendStub
	clock    *testclock.Clock
	csrf     *security.CSRFGenerator
	registry *dashboard.Registry
	handler  http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithLimit(t, 100)
}

func newTestAppWithLimit(t *testing.T, rateLimit int) *testApp {
	t.Helper()

	stub := newBackendStub()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	base, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}

	tmpl, err := templates.Load()
	if err != nil {
		t.Fatalf("templates.Load() error = %v", err)
	}

	clk := testclock.NewClock(epoch)
	auth := newFakeAuth()
	csrf := security.NewCSRFGenerator("test-secret")
	limiter := security.NewRateLimiter(rateLimit, time.Minute, clk)
	registry := dashboard.NewRegistry(clk)
	client := apiclient.New(base)
	factory := func(s *models.Session, onRevoked apiclient.RevokeFunc) dashboard.Backend {
		return dashboard.FromServices(service.NewServices(client.WithSession(s.Token, onRevoked)))
	}

	m := NewMiddleware(auth, csrf, limiter)
	authHandler := NewAuthHandler(auth, tmpl, clk, 100*time.Millisecond, registry.Drop)
	homeHandler := NewHomeHandler(auth, registry, factory, csrf, tmpl, clk, HomeOptions{Location: time.UTC, UploadMaxSize: 1 << 20})

	mux := http.NewServeMux()
	RegisterRoutes(mux, m, authHandler, homeHandler, 1<<20)

	return &testApp{
		auth:     auth,
		backend:  stub,
		clock:    clk,
		csrf:     csrf,
		registry: registry,
		handler:  mux,
	}
}

func (a *testApp) get(target, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// post sends form with the session's CSRF token added
func (a *testApp) post(target, sessionID string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	if sessionID != "" && form.Get(security.CSRFFieldName) == "" {
		token, _ := a.csrf.GenerateToken(sessionID)
		form.Set(security.CSRFFieldName, token)
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			return c
		}
	}
	return nil
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther && rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want a redirect to %s (body %q)", rec.Code, want, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != want {
		t.Fatalf("Location = %q, want %q", got, want)
	}
}
