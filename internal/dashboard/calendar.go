package dashboard

import (
	"context"
	"sync"

	"github.com/juju/errors"

	"lifeline/internal/models"
)

// CalendarOverview shows upcoming events. A 403 means calendar scope was not
// granted and is shown apart from other failures.
type CalendarOverview struct {
	api CalendarAPI

	mu       sync.Mutex
	phase    Phase
	err      string
	events   map[string][]*models.CalendarEvent
	selected *models.CalendarEvent
}

// NewCalendarOverview creates an unmounted calendar
func NewCalendarOverview(api CalendarAPI) *CalendarOverview {
	return &CalendarOverview{api: api, events: map[string][]*models.CalendarEvent{}}
}

// Mount performs the initial fetch
func (w *CalendarOverview) Mount(ctx context.Context) {
	w.Refresh(ctx)
}

// Refresh re-fetches upcoming events
func (w *CalendarOverview) Refresh(ctx context.Context) {
	w.mu.Lock()
	w.phase = Loading
	w.err = ""
	w.mu.Unlock()

	upcoming, err := w.api.Upcoming(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case errors.Is(err, errors.Forbidden):
		logger.Infof("calendar access not granted")
		w.phase = NoAccess
	case err != nil:
		logger.Errorf("failed to load calendar events: %v", err)
		w.phase = Error
		w.err = detail(err, "Failed to load calendar events")
	default:
		w.events = upcoming.Events
		w.phase = Ready
	}
}

// Select opens the detail view of the event with id. It reports whether the event exists.
func (w *CalendarOverview) Select(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, day := range w.events {
		for _, ev := range day {
			if ev != nil && ev.Id == id {
				w.selected = ev
				return true
			}
		}
	}
	return false
}

// ClearSelection closes the detail view
func (w *CalendarOverview) ClearSelection() {
	w.mu.Lock()
	w.selected = nil
	w.mu.Unlock()
}

// CalendarSnapshot is a point-in-time copy of the calendar
type CalendarSnapshot struct {
	Phase    Phase
	Error    string
	Events   map[string][]*models.CalendarEvent
	Selected *models.CalendarEvent
}

// Snapshot copies the calendar state. Events are shared and must not be modified.
func (w *CalendarOverview) Snapshot() CalendarSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make(map[string][]*models.CalendarEvent, len(w.events))
	for k, v := range w.events {
		events[k] = append([]*models.CalendarEvent(nil), v...)
	}
	return CalendarSnapshot{
		Phase:    w.phase,
		Error:    w.err,
		Events:   events,
		Selected: w.selected,
	}
}
