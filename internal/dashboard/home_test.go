package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	calendar "google.golang.org/api/calendar/v3"

	"lifeline/internal/apiclient"
	"lifeline/internal/models"
	"lifeline/internal/status"
)

var epoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestHome(t *testing.T, api *fakeAPI) (*Home, *testclock.Clock) {
	t.Helper()
	clk := testclock.NewClock(epoch)
	h := NewHome(api.backend(), clk, time.UTC)
	h.Mount(context.Background())
	return h, clk
}

func seeded() *fakeAPI {
	api := newFakeAPI()
	api.members = []models.FamilyMember{
		{ID: 1, Name: "Ana", DateOfBirth: date("1990-03-15"), Gender: "female"},
		{ID: 2, Name: "Ben"},
	}
	api.medications = []models.Medication{
		{ID: 10, Name: "Ibuprofen", Quantity: 5, ExpirationDate: date("2027-01-01")},
		{ID: 11, Name: "Paracetamol", Quantity: 50, ExpirationDate: date("2026-01-01")},
	}
	return api
}

func TestMountLoadsListsAndWidgets(t *testing.T) {
	api := seeded()
	h, _ := newTestHome(t, api)

	if !h.Loaded() {
		t.Fatal("Loaded() should be true after Mount")
	}
	if len(h.Members()) != 2 || len(h.Medications()) != 2 {
		t.Errorf("lists = %d members, %d medications", len(h.Members()), len(h.Medications()))
	}
	for _, name := range []string{"members.list", "meds.list", "features", "illness.list", "calendar.upcoming", "drive.list", "usage.list"} {
		if api.count(name) != 1 {
			t.Errorf("%s calls = %d, want 1", name, api.count(name))
		}
	}
}

func TestReloadRefetchesAndKeepsFilters(t *testing.T) {
	api := seeded()
	api.membersErr = &apiclient.Error{StatusCode: http.StatusInternalServerError}
	api.flags = models.FeatureFlags{AIChatEnabled: boolPtr(false)}
	h, _ := newTestHome(t, api)
	ctx := context.Background()

	if len(h.Members()) != 0 {
		t.Fatalf("members = %d, want 0 after a failed load", len(h.Members()))
	}
	h.SetIllnessFilter(ctx, int64Ptr(1))

	api.mu.Lock()
	api.membersErr = nil
	api.flagsErr = &apiclient.Error{StatusCode: http.StatusInternalServerError}
	api.members = append(api.members, models.FamilyMember{ID: 3, Name: "Zedediah"})
	api.mu.Unlock()

	h.Reload(ctx)

	if len(h.Members()) != 3 {
		t.Errorf("members = %d, want 3 after reload", len(h.Members()))
	}
	if h.Flags().ChatEnabled() {
		t.Error("a failed flags reload should keep the previous flags")
	}
	for _, name := range []string{"members.list", "meds.list", "features", "calendar.upcoming", "drive.list", "usage.list"} {
		if api.count(name) != 2 {
			t.Errorf("%s calls = %d, want 2", name, api.count(name))
		}
	}
	api.mu.Lock()
	last := api.illnessFilters[len(api.illnessFilters)-1]
	api.mu.Unlock()
	if last == nil || *last != 1 {
		t.Errorf("illness filter after reload = %v, want 1", last)
	}
}

func TestReloadMountsOnce(t *testing.T) {
	api := seeded()
	h := NewHome(api.backend(), testclock.NewClock(epoch), time.UTC)

	h.Reload(context.Background())
	h.Mount(context.Background())

	if api.count("members.list") != 1 {
		t.Errorf("members.list calls = %d, want 1", api.count("members.list"))
	}
}

func TestMountSwallowsFailures(t *testing.T) {
	api := seeded()
	api.medsErr = &apiclient.Error{StatusCode: http.StatusInternalServerError}
	api.flagsErr = &apiclient.Error{StatusCode: http.StatusInternalServerError}
	h, _ := newTestHome(t, api)

	if len(h.Members()) != 2 {
		t.Errorf("members = %d, want 2", len(h.Members()))
	}
	if len(h.Medications()) != 0 {
		t.Errorf("medications = %d, want 0", len(h.Medications()))
	}
	flags := h.Flags()
	if !flags.ChatEnabled() || !flags.IllnessSuggestionsEnabled() || !flags.DriveAIEnabled() {
		t.Error("flags should default to enabled when they fail to load")
	}
	v := h.View(epoch)
	if v.Loading {
		t.Error("page should render after a failed load")
	}
	for _, a := range v.Actions {
		if a.Kind == ModalLogUsage && !a.Disabled {
			t.Error("Log Usage should be disabled without medications")
		}
	}
}

func TestFlagsGateSections(t *testing.T) {
	api := seeded()
	api.flags = models.FeatureFlags{
		AIIllnessSuggestionsEnabled: boolPtr(false),
		AIDriveEnabled:              boolPtr(true),
	}
	h, _ := newTestHome(t, api)

	v := h.View(epoch)
	if v.Illness.ShowSuggestions {
		t.Error("AI suggestions should be hidden")
	}
	if !v.Drive.ShowAI {
		t.Error("AI drive decoration should be shown")
	}
	if !v.Flags.ChatEnabled() {
		t.Error("absent chat flag should read as enabled")
	}
}

func TestLogIllnessRefreshesListsAndTimeline(t *testing.T) {
	api := seeded()
	h, _ := newTestHome(t, api)
	ctx := context.Background()

	if err := h.OpenModal(ModalLogIllness); err != nil {
		t.Fatalf("OpenModal() error = %v", err)
	}
	illnessBefore := api.count("illness.list")
	membersBefore := api.count("members.list")

	err := h.SubmitModal(ctx, url.Values{"family_member_id": {"1"}, "illness_name": {"Flu"}, "start_date": {"2026-03-10"}})
	if err != nil {
		t.Fatalf("SubmitModal() error = %v", err)
	}

	if h.ActiveModal() != ModalNone {
		t.Error("modal should close on success")
	}
	if api.count("illness.list") != illnessBefore+1 {
		t.Error("illness timeline should refresh")
	}
	if api.count("members.list") != membersBefore+1 {
		t.Error("lists should refresh")
	}
	if v := h.View(epoch); v.Flash == nil || v.Flash.Message != "Illness logged successfully!" {
		t.Errorf("flash = %+v", v.Flash)
	}
	if v := h.View(epoch); v.Flash != nil {
		t.Error("flash should be shown once")
	}
}

func TestScheduleEventRefreshesCalendarOnly(t *testing.T) {
	api := seeded()
	h, _ := newTestHome(t, api)
	ctx := context.Background()

	h.OpenModal(ModalScheduleEvent)
	calendarBefore := api.count("calendar.upcoming")
	membersBefore := api.count("members.list")

	err := h.SubmitModal(ctx, url.Values{"summary": {"Dentist"}, "start_time": {"2026-03-15T10:00"}, "end_time": {"2026-03-15T11:00"}})
	if err != nil {
		t.Fatalf("SubmitModal() error = %v", err)
	}
	if api.count("calendar.upcoming") != calendarBefore+1 {
		t.Error("calendar should refresh after scheduling")
	}
	if api.count("members.list") != membersBefore {
		t.Error("lists should not refresh after scheduling")
	}

	h.OpenModal(ModalScheduleEvent)
	h.CloseModal(ctx)
	if api.count("calendar.upcoming") != calendarBefore+1 || api.count("members.list") != membersBefore {
		t.Error("cancelling schedule event should refresh nothing")
	}
}

func TestCancelInventoryRefreshesLists(t *testing.T) {
	api := seeded()
	h, _ := newTestHome(t, api)

	h.OpenModal(ModalInventory)
	before := api.count("meds.list")
	h.CloseModal(context.Background())
	if api.count("meds.list") != before+1 {
		t.Error("closing the inventory modal should refresh the lists")
	}
}

func TestSubmitFailureKeepsModalOpen(t *testing.T) {
	api := seeded()
	h, _ := newTestHome(t, api)
	ctx := context.Background()

	h.OpenModal(ModalInventory)
	values := url.Values{"name": {"Ibuprofen"}, "quantity": {"2"}}
	api.createErr = &apiclient.Error{StatusCode: http.StatusUnprocessableEntity, Detail: "Duplicate medication"}

	if err := h.SubmitModal(ctx, values); err == nil {
		t.Fatal("SubmitModal() should fail")
	}
	v := h.View(epoch)
	if v.Modal == nil || v.Modal.Kind != ModalInventory {
		t.Fatalf("modal = %+v, want inventory still open", v.Modal)
	}
	if v.Modal.Error != "Duplicate medication" {
		t.Errorf("modal error = %q", v.Modal.Error)
	}
	if v.Modal.Values.Get("name") != "Ibuprofen" {
		t.Error("posted values should be kept")
	}
}

func TestOpenDisabledModal(t *testing.T) {
	api := newFakeAPI()
	h, _ := newTestHome(t, api)

	if err := h.OpenModal(ModalLogIllness); !errors.Is(err, ErrActionDisabled) {
		t.Errorf("OpenModal() error = %v, want %v", err, ErrActionDisabled)
	}
	if err := h.SubmitModal(context.Background(), nil); !errors.Is(err, ErrNoModalOpen) {
		t.Errorf("SubmitModal() error = %v, want %v", err, ErrNoModalOpen)
	}
}

func TestEditAndDeleteMember(t *testing.T) {
	api := seeded()
	h, _ := newTestHome(t, api)
	ctx := context.Background()

	if err := h.EditMember(99); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("EditMember(99) error = %v", err)
	}
	if err := h.EditMember(1); err != nil {
		t.Fatalf("EditMember(1) error = %v", err)
	}
	if v := h.View(epoch); v.Editing == nil || v.Editing.Values.Get("date_of_birth") != "1990-03-15" {
		t.Fatalf("editing = %+v", v.Editing)
	}

	if err := h.UpdateMember(ctx, 1, url.Values{"name": {"Ana Maria"}, "profession": {"Nurse"}}); err != nil {
		t.Fatalf("UpdateMember() error = %v", err)
	}
	if got := api.updatedMembers[1]; got.Name != "Ana Maria" || got.Profession == nil || *got.Profession != "Nurse" {
		t.Errorf("update = %+v", got)
	}
	if h.View(epoch).Editing != nil {
		t.Error("edit modal should close")
	}

	if err := h.DeleteMember(ctx, 2); err != nil {
		t.Fatalf("DeleteMember() error = %v", err)
	}
	if len(h.Members()) != 1 {
		t.Errorf("members = %d after delete, want 1", len(h.Members()))
	}

	api.deleteErr = &apiclient.Error{StatusCode: http.StatusConflict}
	if err := h.DeleteMedication(ctx, 10); err == nil {
		t.Fatal("DeleteMedication() should fail")
	}
	if v := h.View(epoch); v.Flash == nil || v.Flash.Message != "Failed to delete medication" {
		t.Errorf("flash = %+v", v.Flash)
	}
}

func TestViewDerivesDisplayValues(t *testing.T) {
	api := seeded()
	api.illness = []models.IllnessLog{
		{ID: 1, FamilyMemberID: 1, IllnessName: "Flu", StartDate: *date("2026-03-12")},
	}
	api.usage = []models.UsageLog{
		{ID: 1, FamilyMemberID: 1, UsedAt: models.Date{Time: epoch.Add(-3 * time.Hour)}},
	}
	api.upcoming.Events["2026-03-15"] = []*models.CalendarEvent{
		{Id: "e1", Summary: "Checkup", Start: &calendar.EventDateTime{Date: "2026-03-15"}},
	}
	h, clk := newTestHome(t, api)

	v := h.View(clk.Now())
	if v.Members[0].Age != "35" {
		t.Errorf("age = %q, want 35 the day before the birthday", v.Members[0].Age)
	}
	if v.Members[0].Gender != "Female" || v.Members[1].Gender != "-" {
		t.Errorf("genders = %q, %q", v.Members[0].Gender, v.Members[1].Gender)
	}
	if v.Medications[0].Status != status.LowStock || v.Medications[1].Status != status.Expired {
		t.Errorf("statuses = %v, %v", v.Medications[0].Status, v.Medications[1].Status)
	}
	if row := v.Illness.Rows[0]; !row.Ongoing || row.End != "Ongoing" || row.Duration != "3 days" {
		t.Errorf("illness row = %+v", row)
	}
	if v.Usage.Rows[0].Ago != "3 hours ago" {
		t.Errorf("usage ago = %q", v.Usage.Rows[0].Ago)
	}
	if len(v.Calendar.Days) != 7 || v.Calendar.Days[0].Label != "Today" || v.Calendar.Days[1].Label != "Tomorrow" {
		t.Fatalf("days = %+v", v.Calendar.Days)
	}
	if ev := v.Calendar.Days[1].Events; len(ev) != 1 || ev[0].Time != "All day" {
		t.Errorf("tomorrow events = %+v", ev)
	}

	clk.Advance(24 * time.Hour)
	v = h.View(clk.Now())
	if v.Members[0].Age != "36" {
		t.Errorf("age = %q, want 36 on the birthday", v.Members[0].Age)
	}
	if v.Illness.Rows[0].Duration != "4 days" {
		t.Errorf("duration = %q, want 4 days a day later", v.Illness.Rows[0].Duration)
	}
}

func TestDriveActionsFlash(t *testing.T) {
	api := seeded()
	api.listing = &models.DriveListing{Connected: true, Files: []*models.DriveFile{{Id: "1", Name: "a.pdf"}}}
	h, _ := newTestHome(t, api)
	ctx := context.Background()

	if !h.RequestFileDelete("1") {
		t.Fatal("RequestFileDelete(1) = false")
	}
	if v := h.View(epoch); v.Drive.PendingDelete == nil || v.Drive.PendingDelete.Name != "a.pdf" {
		t.Fatalf("pending = %+v", v.Drive.PendingDelete)
	}
	if err := h.ConfirmFileDelete(ctx); err != nil {
		t.Fatalf("ConfirmFileDelete() error = %v", err)
	}
	if v := h.View(epoch); v.Flash == nil || v.Flash.Message != "File deleted successfully!" {
		t.Errorf("flash = %+v", v.Flash)
	}

	api.uploadErr = &apiclient.Error{StatusCode: http.StatusRequestEntityTooLarge}
	if err := h.UploadFile(ctx, "big.bin", strings.NewReader("x")); err == nil {
		t.Fatal("UploadFile() should fail")
	}
	if v := h.View(epoch); v.Flash == nil || v.Flash.Message != "Failed to upload file" {
		t.Errorf("flash = %+v", v.Flash)
	}
}

func TestSubmitModalRejectsDoubleSubmit(t *testing.T) {
	api := seeded()
	h, _ := newTestHome(t, api)
	ctx := context.Background()
	if err := h.OpenModal(ModalInventory); err != nil {
		t.Fatalf("OpenModal() error = %v", err)
	}

	started, release := make(chan struct{}), make(chan struct{})
	api.mu.Lock()
	api.createStarted, api.blockCreate = started, release
	api.mu.Unlock()

	values := url.Values{"name": {"Aspirin"}, "quantity": {"20"}}
	done := make(chan error, 1)
	go func() { done <- h.SubmitModal(ctx, values) }()
	<-started

	if err := h.SubmitModal(ctx, values); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("second SubmitModal() error = %v, want %v", err, ErrSubmitInFlight)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first SubmitModal() error = %v", err)
	}
	if n := api.count("meds.create"); n != 1 {
		t.Errorf("meds.create calls = %d, want 1", n)
	}
	if h.ActiveModal() != ModalNone {
		t.Errorf("ActiveModal() = %v, want none", h.ActiveModal())
	}
}
