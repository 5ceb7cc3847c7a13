package dashboard

import (
	"context"
	"sync"

	"lifeline/internal/models"
)

// IllnessTimeline lists illness logs, optionally filtered to one family member.
// The filter survives refreshes.
type IllnessTimeline struct {
	api IllnessLogAPI

	mu       sync.Mutex
	phase    Phase
	err      string
	logs     []models.IllnessLog
	filter   *int64
	deleting int64
}

// NewIllnessTimeline creates an unmounted timeline
func NewIllnessTimeline(api IllnessLogAPI) *IllnessTimeline {
	return &IllnessTimeline{api: api}
}

// Mount performs the initial fetch
func (w *IllnessTimeline) Mount(ctx context.Context) {
	w.Refresh(ctx)
}

// Refresh re-fetches the logs for the current filter
func (w *IllnessTimeline) Refresh(ctx context.Context) {
	w.mu.Lock()
	filter := w.filter
	w.phase = Loading
	w.err = ""
	w.mu.Unlock()

	logs, err := w.api.List(ctx, filter)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		logger.Errorf("failed to load illness logs: %v", err)
		w.phase = Error
		w.err = detail(err, "Failed to load illness logs")
		return
	}
	w.logs = logs
	w.phase = Ready
}

// SetFilter selects one family member, or all when memberID is nil, and re-fetches
func (w *IllnessTimeline) SetFilter(ctx context.Context, memberID *int64) {
	w.mu.Lock()
	w.filter = memberID
	w.mu.Unlock()
	w.Refresh(ctx)
}

// Delete removes one log and re-fetches. The returned error carries the user-facing message.
func (w *IllnessTimeline) Delete(ctx context.Context, id int64) error {
	w.mu.Lock()
	w.deleting = id
	w.mu.Unlock()

	err := w.api.Delete(ctx, id)

	w.mu.Lock()
	w.deleting = 0
	w.mu.Unlock()
	if err != nil {
		logger.Errorf("failed to delete illness log %d: %v", id, err)
		return &ActionError{Message: detail(err, "Failed to delete illness log"), Err: err}
	}
	w.Refresh(ctx)
	return nil
}

// IllnessSnapshot is a point-in-time copy of the timeline
type IllnessSnapshot struct {
	Phase    Phase
	Error    string
	Logs     []models.IllnessLog
	Filter   *int64
	Deleting int64
}

// Snapshot copies the timeline state
func (w *IllnessTimeline) Snapshot() IllnessSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := IllnessSnapshot{
		Phase:    w.phase,
		Error:    w.err,
		Logs:     append([]models.IllnessLog(nil), w.logs...),
		Deleting: w.deleting,
	}
	if w.filter != nil {
		id := *w.filter
		s.Filter = &id
	}
	return s
}
