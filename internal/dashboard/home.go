package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/juju/clock"
	"golang.org/x/sync/errgroup"

	"lifeline/internal/models"
)

// ErrMemberNotFound is returned when a family member id is not in the current list
var ErrMemberNotFound = errors.New("family member not found")

var successMessages = map[ModalKind]string{
	ModalInventory:     "Medication added successfully!",
	ModalFamilyMember:  "Family member added successfully!",
	ModalScheduleEvent: "Event scheduled successfully!",
	ModalLogUsage:      "Medication usage logged successfully!",
	ModalLogIllness:    "Illness logged successfully!",
}

// Home is the dashboard of one session. It owns the family member and
// medication lists and the feature flags, and refreshes the self-fetching
// widgets through their handles.
type Home struct {
	api   Backend
	clock clock.Clock
	loc   *time.Location

	mountOnce sync.Once

	mu          sync.Mutex
	loaded      bool
	members     []models.FamilyMember
	medications []models.Medication
	flags       models.FeatureFlags
	modalErr    string
	modalValues url.Values
	editing     *models.FamilyMember
	editErr     string
	editValues  url.Values
	notes       map[int64]bool
	flash       *Flash

	actions  ActionGrid
	Illness  *IllnessTimeline
	Calendar *CalendarOverview
	Drive    *DriveSection
	Usage    *MedicationUsageWidget

	handles map[Handle]Refresher
	// dependents are refreshed with the top-level lists
	dependents []Refresher
}

// NewHome creates an unmounted dashboard. A nil loc means time.Local.
func NewHome(api Backend, clk clock.Clock, loc *time.Location) *Home {
	if loc == nil {
		loc = time.Local
	}
	h := &Home{
		api:      api,
		clock:    clk,
		loc:      loc,
		notes:    map[int64]bool{},
		Illness:  NewIllnessTimeline(api.Illness),
		Calendar: NewCalendarOverview(api.Calendar),
		Drive:    NewDriveSection(api.Drive),
		Usage:    NewMedicationUsageWidget(api.Usage),
	}
	h.handles = map[Handle]Refresher{
		HandleIllness:  h.Illness,
		HandleCalendar: h.Calendar,
		HandleDrive:    h.Drive,
		HandleUsage:    h.Usage,
	}
	h.dependents = []Refresher{h.Usage}
	return h
}

// Mount loads the lists and flags concurrently, then mounts the widgets.
// Load failures are logged and the page renders with what did load. Only the
// first call does any work.
func (h *Home) Mount(ctx context.Context) {
	h.mountOnce.Do(func() {
		h.load(ctx)
		h.mountWidgets(ctx)
	})
}

// Reload is Mount for a full page load. After the first mount it re-fetches
// the lists and flags and refreshes every widget, keeping widget filters.
func (h *Home) Reload(ctx context.Context) {
	first := false
	h.mountOnce.Do(func() {
		first = true
		h.load(ctx)
		h.mountWidgets(ctx)
	})
	if first {
		return
	}
	h.load(ctx)
	h.refreshWidgets(ctx)
}

// Loaded reports whether the initial load has finished
func (h *Home) Loaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loaded
}

func (h *Home) load(ctx context.Context) {
	var (
		g           errgroup.Group
		members     []models.FamilyMember
		medications []models.Medication
		flags       models.FeatureFlags
		gotMembers  bool
		gotMeds     bool
		gotFlags    bool
	)
	g.Go(func() error {
		m, err := h.api.Members.List(ctx)
		if err != nil {
			logger.Errorf("failed to load family members: %v", err)
			return nil
		}
		members, gotMembers = m, true
		return nil
	})
	g.Go(func() error {
		m, err := h.api.Medications.List(ctx)
		if err != nil {
			logger.Errorf("failed to load medications: %v", err)
			return nil
		}
		medications, gotMeds = m, true
		return nil
	})
	g.Go(func() error {
		f, err := h.api.Features.Flags(ctx)
		if err != nil {
			logger.Errorf("failed to load feature flags: %v", err)
			return nil
		}
		flags, gotFlags = f, true
		return nil
	})
	_ = g.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if gotMembers {
		h.members = members
	}
	if gotMeds {
		h.medications = medications
	}
	if gotFlags || !h.loaded {
		h.flags = flags
	}
	h.loaded = true
}

func (h *Home) mountWidgets(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { h.Illness.Mount(ctx); return nil })
	g.Go(func() error { h.Calendar.Mount(ctx); return nil })
	g.Go(func() error { h.Drive.Mount(ctx); return nil })
	g.Go(func() error { h.Usage.Mount(ctx); return nil })
	_ = g.Wait()
}

func (h *Home) refreshWidgets(ctx context.Context) {
	var g errgroup.Group
	for _, r := range h.handles {
		g.Go(func() error { r.Refresh(ctx); return nil })
	}
	_ = g.Wait()
}

// Refresh re-fetches both top-level lists. A list that fails to load keeps its previous value.
func (h *Home) Refresh(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		members, err := h.api.Members.List(ctx)
		if err != nil {
			logger.Errorf("failed to refresh family members: %v", err)
			return nil
		}
		h.mu.Lock()
		h.members = members
		h.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		meds, err := h.api.Medications.List(ctx)
		if err != nil {
			logger.Errorf("failed to refresh medications: %v", err)
			return nil
		}
		h.mu.Lock()
		h.medications = meds
		h.mu.Unlock()
		return nil
	})
	for _, d := range h.dependents {
		g.Go(func() error { d.Refresh(ctx); return nil })
	}
	_ = g.Wait()
}

// RefreshWidget forces one widget to re-fetch without touching its local state
func (h *Home) RefreshWidget(ctx context.Context, handle Handle) error {
	r, ok := h.handles[handle]
	if !ok {
		return fmt.Errorf("unknown widget %q", handle)
	}
	r.Refresh(ctx)
	return nil
}

// Flags returns the feature flags. Flags that never loaded read as enabled.
func (h *Home) Flags() models.FeatureFlags {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flags
}

// Members returns a copy of the family member list
func (h *Home) Members() []models.FamilyMember {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.FamilyMember(nil), h.members...)
}

// Medications returns a copy of the medication list
func (h *Home) Medications() []models.Medication {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.Medication(nil), h.medications...)
}

// ActiveModal returns the open modal
func (h *Home) ActiveModal() ModalKind {
	return h.actions.Active()
}

// OpenModal opens kind if its prerequisites hold
func (h *Home) OpenModal(kind ModalKind) error {
	h.mu.Lock()
	members, meds := len(h.members), len(h.medications)
	h.mu.Unlock()

	if err := h.actions.Open(kind, members, meds); err != nil {
		return err
	}
	h.mu.Lock()
	h.modalErr = ""
	h.modalValues = nil
	h.mu.Unlock()
	return nil
}

// CloseModal dismisses the open modal without submitting and applies its close behavior
func (h *Home) CloseModal(ctx context.Context) {
	kind := h.actions.Close()
	h.mu.Lock()
	h.modalErr = ""
	h.modalValues = nil
	h.mu.Unlock()
	if kind != ModalNone {
		h.afterClose(ctx, kind, CloseBehaviorFor(kind, false))
	}
}

// SubmitModal validates and sends the open modal's form. On failure the modal
// stays open with the message and the posted values.
func (h *Home) SubmitModal(ctx context.Context, values url.Values) error {
	kind, err := h.actions.BeginSubmit()
	if err != nil {
		return err
	}
	members, meds := h.Members(), h.Medications()
	now := h.clock.Now().In(h.loc)

	switch kind {
	case ModalInventory:
		err = NewInventoryForm(values).Submit(ctx, h.api.Medications)
	case ModalFamilyMember:
		err = NewFamilyMemberForm(values).Submit(ctx, h.api.Members, now)
	case ModalScheduleEvent:
		err = NewScheduleEventForm(values).Submit(ctx, h.api.Calendar, h.loc)
	case ModalLogUsage:
		err = NewLogUsageForm(values).Submit(ctx, h.api.Usage, members, meds)
	case ModalLogIllness:
		err = NewLogIllnessForm(values).Submit(ctx, h.api.Illness, members)
	}
	if err != nil {
		h.mu.Lock()
		h.modalErr = Message(err)
		h.modalValues = values
		h.mu.Unlock()
		h.actions.EndSubmit(false)
		return err
	}

	h.actions.EndSubmit(true)
	h.mu.Lock()
	h.modalErr = ""
	h.modalValues = nil
	h.flash = success(successMessages[kind])
	h.mu.Unlock()

	// Home always supplies the schedule event success callback: refresh the calendar.
	h.afterClose(ctx, kind, CloseBehaviorFor(kind, true))
	return nil
}

func (h *Home) afterClose(ctx context.Context, kind ModalKind, behavior CloseBehavior) {
	switch behavior {
	case CloseAndRefresh:
		h.Refresh(ctx)
	case CloseRefreshAndTarget:
		h.Refresh(ctx)
		h.refreshTarget(ctx, kind)
	case CloseAndNotify:
		h.refreshTarget(ctx, kind)
	}
}

func (h *Home) refreshTarget(ctx context.Context, kind ModalKind) {
	if handle, ok := Target(kind); ok {
		_ = h.RefreshWidget(ctx, handle)
	}
}

func (h *Home) member(id int64) (models.FamilyMember, bool) {
	for _, m := range h.members {
		if m.ID == id {
			return m, true
		}
	}
	return models.FamilyMember{}, false
}

// EditMember opens the edit modal for member id
func (h *Home) EditMember(id int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.member(id)
	if !ok {
		return ErrMemberNotFound
	}
	h.editing = &m
	h.editErr = ""
	h.editValues = EditFormValues(m)
	return nil
}

// CancelEdit closes the edit modal
func (h *Home) CancelEdit() {
	h.mu.Lock()
	h.editing = nil
	h.editErr = ""
	h.editValues = nil
	h.mu.Unlock()
}

// UpdateMember submits the edit modal for member id
func (h *Home) UpdateMember(ctx context.Context, id int64, values url.Values) error {
	h.mu.Lock()
	_, ok := h.member(id)
	h.mu.Unlock()
	if !ok {
		return ErrMemberNotFound
	}

	err := NewEditFamilyMemberForm(id, values).Submit(ctx, h.api.Members, h.clock.Now().In(h.loc))
	if err != nil {
		h.mu.Lock()
		h.editErr = Message(err)
		h.editValues = values
		h.mu.Unlock()
		return err
	}

	h.CancelEdit()
	h.setFlash(success("Family member updated successfully!"))
	h.Refresh(ctx)
	return nil
}

// DeleteMember deletes member id and refreshes the lists
func (h *Home) DeleteMember(ctx context.Context, id int64) error {
	if err := h.api.Members.Delete(ctx, id); err != nil {
		logger.Errorf("failed to delete family member %d: %v", id, err)
		h.setFlash(failure(detail(err, "Failed to delete family member")))
		return err
	}
	h.mu.Lock()
	delete(h.notes, id)
	h.mu.Unlock()
	h.setFlash(success("Family member deleted"))
	h.Refresh(ctx)
	return nil
}

// ToggleNotes expands or collapses the health notes of member id
func (h *Home) ToggleNotes(id int64) {
	h.mu.Lock()
	h.notes[id] = !h.notes[id]
	h.mu.Unlock()
}

// DeleteMedication deletes medication id and refreshes the lists
func (h *Home) DeleteMedication(ctx context.Context, id int64) error {
	if err := h.api.Medications.Delete(ctx, id); err != nil {
		logger.Errorf("failed to delete medication %d: %v", id, err)
		h.setFlash(failure(detail(err, "Failed to delete medication")))
		return err
	}
	h.setFlash(success("Medication deleted"))
	h.Refresh(ctx)
	return nil
}

// DeleteIllness deletes illness log id and refreshes the timeline
func (h *Home) DeleteIllness(ctx context.Context, id int64) error {
	if err := h.Illness.Delete(ctx, id); err != nil {
		h.setFlash(failure(Message(err)))
		return err
	}
	return nil
}

// SetIllnessFilter filters the timeline to one member, or all when memberID is nil
func (h *Home) SetIllnessFilter(ctx context.Context, memberID *int64) {
	h.Illness.SetFilter(ctx, memberID)
}

// SetUsageFilter filters the usage widget to one member, or all when memberID is nil
func (h *Home) SetUsageFilter(memberID *int64) {
	h.Usage.SetFilter(memberID)
}

// SelectEvent opens the calendar event detail
func (h *Home) SelectEvent(id string) bool {
	return h.Calendar.Select(id)
}

// CloseEvent closes the calendar event detail
func (h *Home) CloseEvent() {
	h.Calendar.ClearSelection()
}

// UploadFile uploads one file to Drive
func (h *Home) UploadFile(ctx context.Context, filename string, r io.Reader) error {
	if err := h.Drive.Upload(ctx, filename, r); err != nil {
		h.setFlash(failure(Message(err)))
		return err
	}
	h.setFlash(success("File uploaded successfully!"))
	return nil
}

// RequestFileDelete opens the delete confirmation for a Drive file
func (h *Home) RequestFileDelete(id string) bool {
	return h.Drive.RequestDelete(id)
}

// CancelFileDelete closes the delete confirmation
func (h *Home) CancelFileDelete() {
	h.Drive.CancelDelete()
}

// ConfirmFileDelete deletes the file awaiting confirmation
func (h *Home) ConfirmFileDelete(ctx context.Context) error {
	pending, err := h.Drive.ConfirmDelete(ctx)
	if err != nil {
		h.setFlash(failure(Message(err)))
		return err
	}
	if pending {
		h.setFlash(success("File deleted successfully!"))
	}
	return nil
}

func (h *Home) setFlash(f *Flash) {
	h.mu.Lock()
	h.flash = f
	h.mu.Unlock()
}
