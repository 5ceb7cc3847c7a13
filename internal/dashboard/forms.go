package dashboard

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lifeline/internal/models"
)

const datetimeLocalLayout = "2006-01-02T15:04"

func field(v url.Values, key string) string {
	return strings.TrimSpace(v.Get(key))
}

func parseDay(s string) (time.Time, bool) {
	t, err := time.Parse(models.DateLayout, s)
	return t, err == nil
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

// submitError turns a backend failure into the modal's inline message
func submitError(err error, fallback string) error {
	return &ActionError{Message: detail(err, fallback), Err: err}
}

// InventoryForm adds a medication
type InventoryForm struct {
	Name           string
	Quantity       string
	ExpirationDate string
}

// NewInventoryForm reads the posted form
func NewInventoryForm(v url.Values) InventoryForm {
	return InventoryForm{
		Name:           field(v, "name"),
		Quantity:       field(v, "quantity"),
		ExpirationDate: field(v, "expiration_date"),
	}
}

// Validate checks the fields and builds the payload
func (f InventoryForm) Validate() (models.MedicationInput, error) {
	if f.Name == "" {
		return models.MedicationInput{}, invalid("Name is required")
	}
	qty, err := strconv.Atoi(f.Quantity)
	if err != nil || qty < 1 {
		return models.MedicationInput{}, invalid("Quantity must be at least 1")
	}
	if f.ExpirationDate != "" {
		if _, ok := parseDay(f.ExpirationDate); !ok {
			return models.MedicationInput{}, invalid("Expiration date is not a valid date")
		}
	}
	return models.MedicationInput{
		Name:           f.Name,
		Quantity:       qty,
		ExpirationDate: models.OptionalString(f.ExpirationDate),
	}, nil
}

// Submit validates and creates the medication
func (f InventoryForm) Submit(ctx context.Context, api MedicationAPI) error {
	in, err := f.Validate()
	if err != nil {
		return err
	}
	if _, err := api.Create(ctx, in); err != nil {
		return submitError(err, "Failed to add medication")
	}
	return nil
}

// FamilyMemberForm adds a family member
type FamilyMemberForm struct {
	Name        string
	DateOfBirth string
}

// NewFamilyMemberForm reads the posted form
func NewFamilyMemberForm(v url.Values) FamilyMemberForm {
	return FamilyMemberForm{
		Name:        field(v, "name"),
		DateOfBirth: field(v, "date_of_birth"),
	}
}

// Validate checks the fields and builds the payload
func (f FamilyMemberForm) Validate(today time.Time) (models.FamilyMemberInput, error) {
	if f.Name == "" {
		return models.FamilyMemberInput{}, invalid("Name is required")
	}
	if err := validateBirthDate(f.DateOfBirth, today); err != nil {
		return models.FamilyMemberInput{}, err
	}
	return models.FamilyMemberInput{
		Name:        f.Name,
		DateOfBirth: models.OptionalString(f.DateOfBirth),
	}, nil
}

// Submit validates and creates the family member
func (f FamilyMemberForm) Submit(ctx context.Context, api FamilyMemberAPI, today time.Time) error {
	in, err := f.Validate(today)
	if err != nil {
		return err
	}
	if _, err := api.Create(ctx, in); err != nil {
		return submitError(err, "Failed to add family member")
	}
	return nil
}

func validateBirthDate(s string, today time.Time) error {
	if s == "" {
		return nil
	}
	dob, ok := parseDay(s)
	if !ok {
		return invalid("Date of birth is not a valid date")
	}
	if dob.After(today) {
		return invalid("Date of birth cannot be in the future")
	}
	return nil
}

// EditFamilyMemberForm updates every field of an existing family member.
// Empty optional fields are sent as null.
type EditFamilyMemberForm struct {
	ID          int64
	Name        string
	DateOfBirth string
	Gender      string
	Profession  string
	HealthNotes string
}

// NewEditFamilyMemberForm reads the posted form for member id
func NewEditFamilyMemberForm(id int64, v url.Values) EditFamilyMemberForm {
	return EditFamilyMemberForm{
		ID:          id,
		Name:        field(v, "name"),
		DateOfBirth: field(v, "date_of_birth"),
		Gender:      field(v, "gender"),
		Profession:  field(v, "profession"),
		HealthNotes: strings.TrimSpace(v.Get("health_notes")),
	}
}

// EditFormValues pre-fills the edit modal from m
func EditFormValues(m models.FamilyMember) url.Values {
	v := url.Values{}
	v.Set("name", m.Name)
	if m.DateOfBirth != nil {
		v.Set("date_of_birth", m.DateOfBirth.Time.Format(models.DateLayout))
	}
	v.Set("gender", m.Gender)
	v.Set("profession", m.Profession)
	v.Set("health_notes", m.HealthNotes)
	return v
}

// Validate checks the fields and builds the payload
func (f EditFamilyMemberForm) Validate(today time.Time) (models.FamilyMemberInput, error) {
	if f.Name == "" {
		return models.FamilyMemberInput{}, invalid("Name is required")
	}
	if err := validateBirthDate(f.DateOfBirth, today); err != nil {
		return models.FamilyMemberInput{}, err
	}
	switch f.Gender {
	case "", "male", "female", "other":
	default:
		return models.FamilyMemberInput{}, invalid("Gender must be male, female or other")
	}
	return models.FamilyMemberInput{
		Name:        f.Name,
		DateOfBirth: models.OptionalString(f.DateOfBirth),
		Gender:      models.OptionalString(f.Gender),
		Profession:  models.OptionalString(f.Profession),
		HealthNotes: models.OptionalString(f.HealthNotes),
	}, nil
}

// Submit validates and updates the family member
func (f EditFamilyMemberForm) Submit(ctx context.Context, api FamilyMemberAPI, today time.Time) error {
	in, err := f.Validate(today)
	if err != nil {
		return err
	}
	if _, err := api.Update(ctx, f.ID, in); err != nil {
		return submitError(err, "Failed to update family member")
	}
	return nil
}

// ScheduleEventForm creates a calendar event. Times are datetime-local values
// interpreted in the dashboard's location.
type ScheduleEventForm struct {
	Summary     string
	StartTime   string
	EndTime     string
	Description string
}

// NewScheduleEventForm reads the posted form
func NewScheduleEventForm(v url.Values) ScheduleEventForm {
	return ScheduleEventForm{
		Summary:     field(v, "summary"),
		StartTime:   field(v, "start_time"),
		EndTime:     field(v, "end_time"),
		Description: strings.TrimSpace(v.Get("description")),
	}
}

// Validate checks the fields and builds the payload with UTC ISO-8601 times
func (f ScheduleEventForm) Validate(loc *time.Location) (models.CalendarEventInput, error) {
	if f.Summary == "" {
		return models.CalendarEventInput{}, invalid("Title is required")
	}
	start, err := time.ParseInLocation(datetimeLocalLayout, f.StartTime, loc)
	if err != nil {
		return models.CalendarEventInput{}, invalid("Start time is not valid")
	}
	end, err := time.ParseInLocation(datetimeLocalLayout, f.EndTime, loc)
	if err != nil {
		return models.CalendarEventInput{}, invalid("End time is not valid")
	}
	if !end.After(start) {
		return models.CalendarEventInput{}, invalid("End time must be after start time")
	}
	return models.CalendarEventInput{
		Summary:     f.Summary,
		StartTime:   start.UTC().Format(time.RFC3339),
		EndTime:     end.UTC().Format(time.RFC3339),
		Description: f.Description,
	}, nil
}

// Submit validates and creates the event
func (f ScheduleEventForm) Submit(ctx context.Context, api CalendarAPI, loc *time.Location) error {
	in, err := f.Validate(loc)
	if err != nil {
		return err
	}
	if _, err := api.CreateEvent(ctx, in); err != nil {
		return submitError(err, "Failed to schedule event")
	}
	return nil
}

// LogUsageForm records medication taken by a family member
type LogUsageForm struct {
	FamilyMemberID string
	MedicationID   string
	QuantityUsed   string
}

// NewLogUsageForm reads the posted form
func NewLogUsageForm(v url.Values) LogUsageForm {
	return LogUsageForm{
		FamilyMemberID: field(v, "family_member_id"),
		MedicationID:   field(v, "medication_id"),
		QuantityUsed:   field(v, "quantity_used"),
	}
}

// Validate checks the selection against the current lists. The quantity may
// not exceed what is in stock.
func (f LogUsageForm) Validate(members []models.FamilyMember, meds []models.Medication) (models.UsageLogInput, error) {
	memberID, ok := parseID(f.FamilyMemberID)
	if !ok || !hasMember(members, memberID) {
		return models.UsageLogInput{}, invalid("Select a family member")
	}
	medID, ok := parseID(f.MedicationID)
	if !ok {
		return models.UsageLogInput{}, invalid("Select a medication")
	}
	var med *models.Medication
	for i := range meds {
		if meds[i].ID == medID {
			med = &meds[i]
			break
		}
	}
	if med == nil {
		return models.UsageLogInput{}, invalid("Select a medication")
	}
	qty, err := strconv.Atoi(f.QuantityUsed)
	if err != nil || qty < 1 {
		return models.UsageLogInput{}, invalid("Quantity must be at least 1")
	}
	if qty > med.Quantity {
		return models.UsageLogInput{}, invalid(fmt.Sprintf("Only %d %s available", med.Quantity, med.Name))
	}
	return models.UsageLogInput{
		FamilyMemberID: memberID,
		MedicationID:   medID,
		QuantityUsed:   qty,
	}, nil
}

// Submit validates and records the usage
func (f LogUsageForm) Submit(ctx context.Context, api UsageAPI, members []models.FamilyMember, meds []models.Medication) error {
	in, err := f.Validate(members, meds)
	if err != nil {
		return err
	}
	if _, err := api.Create(ctx, in); err != nil {
		return submitError(err, "Failed to log usage")
	}
	return nil
}

// LogIllnessForm records an illness episode. An empty end date means ongoing.
type LogIllnessForm struct {
	FamilyMemberID string
	IllnessName    string
	StartDate      string
	EndDate        string
	Notes          string
}

// NewLogIllnessForm reads the posted form
func NewLogIllnessForm(v url.Values) LogIllnessForm {
	return LogIllnessForm{
		FamilyMemberID: field(v, "family_member_id"),
		IllnessName:    field(v, "illness_name"),
		StartDate:      field(v, "start_date"),
		EndDate:        field(v, "end_date"),
		Notes:          strings.TrimSpace(v.Get("notes")),
	}
}

// Validate checks the fields and builds the payload
func (f LogIllnessForm) Validate(members []models.FamilyMember) (models.IllnessLogInput, error) {
	memberID, ok := parseID(f.FamilyMemberID)
	if !ok || !hasMember(members, memberID) {
		return models.IllnessLogInput{}, invalid("Select a family member")
	}
	if f.IllnessName == "" {
		return models.IllnessLogInput{}, invalid("Illness name is required")
	}
	start, ok := parseDay(f.StartDate)
	if !ok {
		return models.IllnessLogInput{}, invalid("Start date is required")
	}
	if f.EndDate != "" {
		end, ok := parseDay(f.EndDate)
		if !ok {
			return models.IllnessLogInput{}, invalid("End date is not a valid date")
		}
		if end.Before(start) {
			return models.IllnessLogInput{}, invalid("End date cannot be before start date")
		}
	}
	return models.IllnessLogInput{
		FamilyMemberID: memberID,
		IllnessName:    f.IllnessName,
		StartDate:      f.StartDate,
		EndDate:        models.OptionalString(f.EndDate),
		Notes:          models.OptionalString(f.Notes),
	}, nil
}

// Submit validates and records the illness
func (f LogIllnessForm) Submit(ctx context.Context, api IllnessLogAPI, members []models.FamilyMember) error {
	in, err := f.Validate(members)
	if err != nil {
		return err
	}
	if _, err := api.Create(ctx, in); err != nil {
		return submitError(err, "Failed to log illness")
	}
	return nil
}

func hasMember(members []models.FamilyMember, id int64) bool {
	for _, m := range members {
		if m.ID == id {
			return true
		}
	}
	return false
}
