package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/juju/clock"
	"golang.org/x/sync/singleflight"

	"lifeline/internal/models"
)

// codeExchangeMemo is how long a finished exchange is remembered for repeat
// deliveries of the same authorization code
const codeExchangeMemo = time.Minute

// errCodeUsed is returned for a spent authorization code presented by a
// browser that does not hold the session it produced
var errCodeUsed = errors.New("authorization code already used")

type exchanged struct {
	session *models.Session
	at      time.Time
}

// codeExchanger runs the code exchange at most once per authorization code.
// Concurrent callbacks share the in-flight exchange. Inside the memo window a
// repeat is answered only for the browser already holding the resulting
// session cookie.
type codeExchanger struct {
	clock clock.Clock
	group singleflight.Group

	mu   sync.Mutex
	done map[string]exchanged
}

func newCodeExchanger(clk clock.Clock) *codeExchanger {
	return &codeExchanger{clock: clk, done: map[string]exchanged{}}
}

// Do exchanges code once. cookieID is the session cookie the request carried.
func (e *codeExchanger) Do(ctx context.Context, code, cookieID string, exchange func(context.Context) (*models.Session, error)) (*models.Session, error) {
	if s, ok := e.lookup(code); ok {
		return e.repeat(s, cookieID)
	}

	v, err, _ := e.group.Do(code, func() (interface{}, error) {
		if _, ok := e.lookup(code); ok {
			return nil, errCodeUsed
		}
		// A cancelled first caller must not fail the callers sharing its result.
		s, err := exchange(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		e.remember(code, s)
		return s, nil
	})
	if errors.Is(err, errCodeUsed) {
		if s, ok := e.lookup(code); ok {
			return e.repeat(s, cookieID)
		}
	}
	if err != nil {
		return nil, err
	}
	return v.(*models.Session), nil
}

func (e *codeExchanger) repeat(s *models.Session, cookieID string) (*models.Session, error) {
	if cookieID == "" || cookieID != s.ID {
		logger.Warningf("rejected reuse of an authorization code from another client")
		return nil, errCodeUsed
	}
	logger.Debugf("reusing session for repeated authorization code")
	return s, nil
}

func (e *codeExchanger) lookup(code string) (*models.Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.done[code]
	if !ok || e.clock.Now().Sub(d.at) > codeExchangeMemo {
		return nil, false
	}
	return d.session, true
}

func (e *codeExchanger) remember(code string, s *models.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	for k, d := range e.done {
		if now.Sub(d.at) > codeExchangeMemo {
			delete(e.done, k)
		}
	}
	e.done[code] = exchanged{session: s, at: now}
}
