package dashboard

import (
	"errors"
	"sync"
)

var (
	// ErrActionDisabled is returned when opening a modal whose prerequisites are missing
	ErrActionDisabled = errors.New("action is disabled")
	// ErrUnknownModal is returned for an unrecognised modal kind
	ErrUnknownModal = errors.New("unknown modal")
	// ErrNoModalOpen is returned when submitting with no modal open
	ErrNoModalOpen = errors.New("no modal is open")
	// ErrSubmitInFlight is returned when the open modal is already being submitted
	ErrSubmitInFlight = errors.New("submit already in progress")
)

// ModalKind is the one modal that may be open at a time
type ModalKind int

const (
	ModalNone ModalKind = iota
	ModalInventory
	ModalFamilyMember
	ModalScheduleEvent
	ModalLogUsage
	ModalLogIllness
)

// ModalKinds lists the launchable modals in display order
var ModalKinds = []ModalKind{ModalInventory, ModalFamilyMember, ModalScheduleEvent, ModalLogUsage, ModalLogIllness}

// String returns the URL slug of the kind
func (k ModalKind) String() string {
	switch k {
	case ModalInventory:
		return "inventory"
	case ModalFamilyMember:
		return "family-member"
	case ModalScheduleEvent:
		return "schedule-event"
	case ModalLogUsage:
		return "log-usage"
	case ModalLogIllness:
		return "log-illness"
	default:
		return ""
	}
}

// Label returns the launcher button text
func (k ModalKind) Label() string {
	switch k {
	case ModalInventory:
		return "Add/Update Inventory"
	case ModalFamilyMember:
		return "Add Family Member"
	case ModalScheduleEvent:
		return "Schedule Event"
	case ModalLogUsage:
		return "Log Usage"
	case ModalLogIllness:
		return "Log Illness"
	default:
		return ""
	}
}

// ParseModalKind resolves a URL slug
func ParseModalKind(s string) (ModalKind, bool) {
	for _, k := range ModalKinds {
		if k.String() == s {
			return k, true
		}
	}
	return ModalNone, false
}

// Disabled reports whether the launcher of kind is disabled for the given list sizes.
// Log Usage needs members and medications, Log Illness needs members.
func Disabled(kind ModalKind, members, medications int) bool {
	switch kind {
	case ModalLogUsage:
		return members == 0 || medications == 0
	case ModalLogIllness:
		return members == 0
	default:
		return false
	}
}

// CloseBehavior is what closing a modal notifies
type CloseBehavior int

const (
	// CloseOnly closes without refreshing anything
	CloseOnly CloseBehavior = iota
	// CloseAndRefresh refreshes the top-level lists
	CloseAndRefresh
	// CloseRefreshAndTarget refreshes the lists and the modal's target widget
	CloseRefreshAndTarget
	// CloseAndNotify runs the modal's success callback
	CloseAndNotify
)

// CloseBehaviorFor returns the close behavior of kind. Schedule Event only
// notifies when its owner supplied a success callback.
func CloseBehaviorFor(kind ModalKind, hasSuccessCallback bool) CloseBehavior {
	switch kind {
	case ModalInventory, ModalFamilyMember, ModalLogUsage:
		return CloseAndRefresh
	case ModalLogIllness:
		return CloseRefreshAndTarget
	case ModalScheduleEvent:
		if hasSuccessCallback {
			return CloseAndNotify
		}
		return CloseOnly
	default:
		return CloseOnly
	}
}

// Target returns the widget a modal refreshes, if any
func Target(kind ModalKind) (Handle, bool) {
	switch kind {
	case ModalLogIllness:
		return HandleIllness, true
	case ModalScheduleEvent:
		return HandleCalendar, true
	default:
		return "", false
	}
}

// ActionGrid is the single-open-modal state machine: None, then one kind, then None
type ActionGrid struct {
	mu         sync.Mutex
	active     ModalKind
	submitting bool
}

// Open makes kind the open modal, replacing any other
func (g *ActionGrid) Open(kind ModalKind, members, medications int) error {
	if kind.String() == "" {
		return ErrUnknownModal
	}
	if Disabled(kind, members, medications) {
		return ErrActionDisabled
	}
	g.mu.Lock()
	g.active = kind
	g.mu.Unlock()
	return nil
}

// Active returns the open modal, or ModalNone
func (g *ActionGrid) Active() ModalKind {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Close closes the open modal and returns which one it was
func (g *ActionGrid) Close() ModalKind {
	g.mu.Lock()
	defer g.mu.Unlock()
	kind := g.active
	g.active = ModalNone
	return kind
}

// BeginSubmit claims the open modal for one submit and returns its kind.
// A second submit is rejected until EndSubmit.
func (g *ActionGrid) BeginSubmit() (ModalKind, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == ModalNone {
		return ModalNone, ErrNoModalOpen
	}
	if g.submitting {
		return g.active, ErrSubmitInFlight
	}
	g.submitting = true
	return g.active, nil
}

// EndSubmit releases the claim. A successful submit closes the modal.
func (g *ActionGrid) EndSubmit(ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitting = false
	if ok {
		g.active = ModalNone
	}
}

// Submitting reports whether the open modal is being submitted
func (g *ActionGrid) Submitting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submitting
}
