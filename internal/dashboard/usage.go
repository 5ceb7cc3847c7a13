package dashboard

import (
	"context"
	"sync"

	"lifeline/internal/models"
)

// MedicationUsageWidget lists usage logs. The member filter is applied locally
// and does not re-fetch.
type MedicationUsageWidget struct {
	api UsageAPI

	mu     sync.Mutex
	phase  Phase
	err    string
	logs   []models.UsageLog
	filter *int64
}

// NewMedicationUsageWidget creates an unmounted usage widget
func NewMedicationUsageWidget(api UsageAPI) *MedicationUsageWidget {
	return &MedicationUsageWidget{api: api}
}

// Mount performs the initial fetch
func (w *MedicationUsageWidget) Mount(ctx context.Context) {
	w.Refresh(ctx)
}

// Refresh re-fetches every usage log
func (w *MedicationUsageWidget) Refresh(ctx context.Context) {
	w.mu.Lock()
	w.phase = Loading
	w.err = ""
	w.mu.Unlock()

	logs, err := w.api.List(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		logger.Errorf("failed to load usage logs: %v", err)
		w.phase = Error
		w.err = detail(err, "Failed to load usage logs")
		return
	}
	w.logs = logs
	w.phase = Ready
}

// SetFilter shows one family member, or everyone when memberID is nil
func (w *MedicationUsageWidget) SetFilter(memberID *int64) {
	w.mu.Lock()
	w.filter = memberID
	w.mu.Unlock()
}

// UsageSnapshot is a point-in-time copy of the usage widget with the filter applied
type UsageSnapshot struct {
	Phase  Phase
	Error  string
	Logs   []models.UsageLog
	Filter *int64
}

// Snapshot copies the widget state
func (w *MedicationUsageWidget) Snapshot() UsageSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := UsageSnapshot{Phase: w.phase, Error: w.err}
	for _, log := range w.logs {
		if w.filter == nil || log.FamilyMemberID == *w.filter {
			s.Logs = append(s.Logs, log)
		}
	}
	if w.filter != nil {
		id := *w.filter
		s.Filter = &id
	}
	return s
}
