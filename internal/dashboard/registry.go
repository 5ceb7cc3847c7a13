package dashboard

import (
	"sync"
	"time"

	"github.com/juju/clock"
)

type entry struct {
	home     *Home
	lastSeen time.Time
}

// Registry keeps one Home per session id
type Registry struct {
	clock clock.Clock

	mu    sync.Mutex
	homes map[string]*entry
}

// NewRegistry creates an empty registry
func NewRegistry(clk clock.Clock) *Registry {
	return &Registry{clock: clk, homes: map[string]*entry{}}
}

// Get returns the Home of sessionID, creating it with factory on first use
func (r *Registry) Get(sessionID string, factory func() *Home) *Home {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.homes[sessionID]
	if !ok {
		e = &entry{home: factory()}
		r.homes[sessionID] = e
	}
	e.lastSeen = r.clock.Now()
	return e.home
}

// Lookup returns the Home of sessionID if one exists
func (r *Registry) Lookup(sessionID string) (*Home, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.homes[sessionID]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.clock.Now()
	return e.home, true
}

// Drop forgets the Home of sessionID
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	delete(r.homes, sessionID)
	r.mu.Unlock()
}

// Sweep drops every Home unused for at least idle and returns how many went
func (r *Registry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.clock.Now().Add(-idle)
	n := 0
	for id, e := range r.homes {
		if !e.lastSeen.After(cutoff) {
			delete(r.homes, id)
			n++
		}
	}
	if n > 0 {
		logger.Debugf("swept %d idle dashboards", n)
	}
	return n
}

// Len returns the number of live dashboards
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.homes)
}
