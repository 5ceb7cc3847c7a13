package dashboard

import (
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"lifeline/internal/models"
	"lifeline/internal/status"
)

const calendarDays = 7

// HomeView is everything the home page template renders
type HomeView struct {
	Loading     bool
	Today       time.Time
	Flags       models.FeatureFlags
	Members     []MemberRow
	Medications []MedicationRow
	Actions     []ActionButton
	Modal       *ModalView
	Editing     *EditView
	Illness     IllnessView
	Calendar    CalendarView
	Drive       DriveView
	Usage       UsageView
	Flash       *Flash
}

// MemberRow is a family member with derived display values
type MemberRow struct {
	models.FamilyMember
	Age           string
	Gender        string
	NotesExpanded bool
}

// MedicationRow is a medication with its derived status
type MedicationRow struct {
	models.Medication
	Status     status.Stock
	Expiration string
}

// ActionButton is one modal launcher
type ActionButton struct {
	Kind     ModalKind
	Label    string
	Disabled bool
}

// ModalView is the open modal
type ModalView struct {
	Kind        ModalKind
	Title       string
	Error       string
	Values      url.Values
	Members     []models.FamilyMember
	Medications []models.Medication
}

// EditView is the open family member edit modal
type EditView struct {
	Member models.FamilyMember
	Error  string
	Values url.Values
}

// IllnessView is the rendered illness timeline
type IllnessView struct {
	Phase           Phase
	Error           string
	Rows            []IllnessRow
	Filter          int64
	Members         []models.FamilyMember
	ShowSuggestions bool
}

// IllnessRow is one illness log with derived display values
type IllnessRow struct {
	models.IllnessLog
	Start    string
	End      string
	Ongoing  bool
	Duration string
	Deleting bool
}

// CalendarView is the rendered calendar
type CalendarView struct {
	Phase    Phase
	Error    string
	Days     []CalendarDay
	Selected *EventDetail
}

// CalendarDay is one column of the upcoming week
type CalendarDay struct {
	Key     string
	Label   string
	Number  int
	Month   string
	IsToday bool
	Events  []EventCard
}

// EventCard is an event in a day column
type EventCard struct {
	ID      string
	Time    string
	Summary string
}

// EventDetail is the event detail modal
type EventDetail struct {
	ID          string
	Summary     string
	When        string
	Location    string
	Description string
	Link        string
}

// DriveView is the rendered drive section
type DriveView struct {
	Phase         Phase
	Error         string
	Message       string
	Files         []*models.DriveFile
	Uploading     bool
	PendingDelete *models.DriveFile
	ShowAI        bool
}

// UsageView is the rendered usage widget
type UsageView struct {
	Phase   Phase
	Error   string
	Rows    []UsageRow
	Filter  int64
	Members []models.FamilyMember
}

// UsageRow is one usage log with display times
type UsageRow struct {
	models.UsageLog
	When string
	Ago  string
}

// View snapshots the dashboard for rendering at now. The pending flash is
// consumed by the call.
func (h *Home) View(now time.Time) HomeView {
	now = now.In(h.loc)

	h.mu.Lock()
	v := HomeView{
		Loading: !h.loaded,
		Today:   now,
		Flags:   h.flags,
		Flash:   h.flash,
	}
	h.flash = nil
	members := append([]models.FamilyMember(nil), h.members...)
	meds := append([]models.Medication(nil), h.medications...)
	notes := make(map[int64]bool, len(h.notes))
	for k, val := range h.notes {
		notes[k] = val
	}
	if kind := h.actions.Active(); kind != ModalNone {
		v.Modal = &ModalView{
			Kind:        kind,
			Title:       kind.Label(),
			Error:       h.modalErr,
			Values:      h.modalValues,
			Members:     members,
			Medications: meds,
		}
		if v.Modal.Values == nil {
			v.Modal.Values = url.Values{}
		}
	}
	if h.editing != nil {
		v.Editing = &EditView{Member: *h.editing, Error: h.editErr, Values: h.editValues}
	}
	h.mu.Unlock()

	for _, m := range members {
		v.Members = append(v.Members, MemberRow{
			FamilyMember:  m,
			Age:           status.AgeLabel(m.DateOfBirth.Ptr(), now),
			Gender:        status.DisplayGender(m.Gender),
			NotesExpanded: notes[m.ID],
		})
	}
	for _, m := range meds {
		row := MedicationRow{Medication: m, Status: status.MedicationStock(m, now), Expiration: "-"}
		if m.ExpirationDate != nil {
			row.Expiration = status.FormatDate(m.ExpirationDate.Time)
		}
		v.Medications = append(v.Medications, row)
	}
	for _, kind := range ModalKinds {
		v.Actions = append(v.Actions, ActionButton{
			Kind:     kind,
			Label:    kind.Label(),
			Disabled: Disabled(kind, len(members), len(meds)),
		})
	}

	v.Illness = h.illnessView(now, members, v.Flags)
	v.Calendar = h.calendarView(now)
	v.Drive = h.driveView(v.Flags)
	v.Usage = h.usageView(now, members)
	return v
}

func (h *Home) illnessView(now time.Time, members []models.FamilyMember, flags models.FeatureFlags) IllnessView {
	snap := h.Illness.Snapshot()
	v := IllnessView{
		Phase:           snap.Phase,
		Error:           snap.Error,
		Members:         members,
		ShowSuggestions: flags.IllnessSuggestionsEnabled(),
	}
	if snap.Filter != nil {
		v.Filter = *snap.Filter
	}
	for _, log := range snap.Logs {
		end := log.EndDate.Ptr()
		v.Rows = append(v.Rows, IllnessRow{
			IllnessLog: log,
			Start:      status.FormatDate(log.StartDate.Time),
			End:        status.EndLabel(end),
			Ongoing:    status.IsOngoing(end),
			Duration:   status.IllnessDuration(log.StartDate.Time, end, now),
			Deleting:   snap.Deleting == log.ID,
		})
	}
	return v
}

func (h *Home) calendarView(now time.Time) CalendarView {
	snap := h.Calendar.Snapshot()
	v := CalendarView{Phase: snap.Phase, Error: snap.Error}
	for _, day := range status.NextDays(now, calendarDays) {
		key := status.DayKey(day)
		cd := CalendarDay{
			Key:     key,
			Label:   status.DayLabel(day, now),
			Number:  day.Day(),
			Month:   day.Format("Jan"),
			IsToday: key == status.DayKey(now),
		}
		for _, ev := range snap.Events[key] {
			if ev == nil {
				continue
			}
			cd.Events = append(cd.Events, EventCard{ID: ev.Id, Time: status.EventTime(ev, h.loc), Summary: ev.Summary})
		}
		v.Days = append(v.Days, cd)
	}
	if ev := snap.Selected; ev != nil {
		v.Selected = &EventDetail{
			ID:          ev.Id,
			Summary:     ev.Summary,
			When:        status.EventRange(ev, h.loc),
			Location:    ev.Location,
			Description: ev.Description,
			Link:        ev.HtmlLink,
		}
	}
	return v
}

func (h *Home) driveView(flags models.FeatureFlags) DriveView {
	snap := h.Drive.Snapshot()
	return DriveView{
		Phase:         snap.Phase,
		Error:         snap.Error,
		Message:       snap.Message,
		Files:         snap.Files,
		Uploading:     snap.Uploading,
		PendingDelete: snap.PendingDelete,
		ShowAI:        flags.DriveAIEnabled(),
	}
}

func (h *Home) usageView(now time.Time, members []models.FamilyMember) UsageView {
	snap := h.Usage.Snapshot()
	v := UsageView{Phase: snap.Phase, Error: snap.Error, Members: members}
	if snap.Filter != nil {
		v.Filter = *snap.Filter
	}
	for _, log := range snap.Logs {
		v.Rows = append(v.Rows, UsageRow{
			UsageLog: log,
			When:     log.UsedAt.In(h.loc).Format("Jan 2, 2006, 03:04 PM"),
			Ago:      humanize.RelTime(log.UsedAt.Time, now, "ago", "from now"),
		})
	}
	return v
}
