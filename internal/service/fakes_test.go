package service

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"sort"
	"sync"
	"time"

	"lifeline/internal/models"
)

type call struct {
	method string
	path   string
	query  url.Values
	body   string
}

// fakeBackend answers every call with the JSON registered for "METHOD path"
type fakeBackend struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]string
	errs      map[string]error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{responses: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeBackend) on(method, path, response string) {
	f.responses[method+" "+path] = response
}

func (f *fakeBackend) fail(method, path string, err error) {
	f.errs[method+" "+path] = err
}

func (f *fakeBackend) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body string
	if in != nil {
		b, _ := json.Marshal(in)
		body = string(b)
	}
	return f.record(call{method: method, path: path, query: query, body: body}, out)
}

func (f *fakeBackend) Upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	b, _ := io.ReadAll(r)
	return f.record(call{method: "UPLOAD", path: path, body: field + ":" + filename + ":" + string(b)}, out)
}

func (f *fakeBackend) record(c call, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	key := c.method + " " + c.path
	if c.method == "UPLOAD" {
		key = "POST " + c.path
	}
	if err := f.errs[key]; err != nil {
		return err
	}
	if resp, ok := f.responses[key]; ok && out != nil {
		return json.Unmarshal([]byte(resp), out)
	}
	return nil
}

func (f *fakeBackend) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

// memSessions is an in-memory SessionStore
type memSessions struct {
	mu        sync.Mutex
	sessions  map[string]models.Session
	deleteErr error
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]models.Session{}}
}

func (m *memSessions) CreateSession(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memSessions) ReplaceSession(ctx context.Context, oldID string, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, oldID)
	m.sessions[s.ID] = *s
	return nil
}

func (m *memSessions) GetSession(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSessions) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.sessions, id)
	return nil
}

func (m *memSessions) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.IsExpired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) ListActiveSessions(ctx context.Context, now time.Time) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Session
	for _, s := range m.sessions {
		if !s.IsExpired(now) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
