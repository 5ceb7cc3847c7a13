// Package dashboard holds the per-session state of the home page: the two
// top-level lists, feature flags, the open modal and the self-fetching widgets.
// Handlers drive it and templates render its View.
package dashboard

import (
	"context"
	"io"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"lifeline/internal/apiclient"
	"lifeline/internal/models"
	"lifeline/internal/service"
)

var logger = loggo.GetLogger("lifeline.dashboard")

// Phase is the fetch lifecycle of a self-fetching widget
type Phase int

const (
	Loading Phase = iota
	Ready
	NoAccess
	Error
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "ready"
	case NoAccess:
		return "no-access"
	case Error:
		return "error"
	default:
		return "loading"
	}
}

// Refresher is the handle a widget exposes so siblings can force a re-fetch
// without discarding its local state.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Handle names a refreshable widget
type Handle string

const (
	HandleIllness  Handle = "illness"
	HandleCalendar Handle = "calendar"
	HandleDrive    Handle = "drive"
	HandleUsage    Handle = "usage"
)

// FamilyMemberAPI is the family member resource
type FamilyMemberAPI interface {
	List(ctx context.Context) ([]models.FamilyMember, error)
	Create(ctx context.Context, in models.FamilyMemberInput) (*models.FamilyMember, error)
	Update(ctx context.Context, id int64, in models.FamilyMemberInput) (*models.FamilyMember, error)
	Delete(ctx context.Context, id int64) error
}

// MedicationAPI is the medication resource
type MedicationAPI interface {
	List(ctx context.Context) ([]models.Medication, error)
	Create(ctx context.Context, in models.MedicationInput) (*models.Medication, error)
	Delete(ctx context.Context, id int64) error
}

// IllnessLogAPI is the illness log resource
type IllnessLogAPI interface {
	List(ctx context.Context, memberID *int64) ([]models.IllnessLog, error)
	Create(ctx context.Context, in models.IllnessLogInput) (*models.IllnessLog, error)
	Delete(ctx context.Context, id int64) error
}

// UsageAPI is the medication usage resource
type UsageAPI interface {
	List(ctx context.Context) ([]models.UsageLog, error)
	Create(ctx context.Context, in models.UsageLogInput) (*models.UsageLog, error)
}

// CalendarAPI is the Google Calendar proxy
type CalendarAPI interface {
	Upcoming(ctx context.Context) (*models.UpcomingEvents, error)
	CreateEvent(ctx context.Context, in models.CalendarEventInput) (*models.CalendarEventCreated, error)
}

// DriveAPI is the Google Drive proxy
type DriveAPI interface {
	ListFiles(ctx context.Context) (*models.DriveListing, error)
	Upload(ctx context.Context, filename string, r io.Reader) (*models.DriveUpload, error)
	Delete(ctx context.Context, fileID string) error
}

// FeatureAPI serves the feature flags
type FeatureAPI interface {
	Flags(ctx context.Context) (models.FeatureFlags, error)
}

// Backend is everything a Home talks to
type Backend struct {
	Members     FamilyMemberAPI
	Medications MedicationAPI
	Illness     IllnessLogAPI
	Usage       UsageAPI
	Calendar    CalendarAPI
	Drive       DriveAPI
	Features    FeatureAPI
}

// FromServices adapts a session's services
func FromServices(s *service.Services) Backend {
	return Backend{
		Members:     s.FamilyMembers,
		Medications: s.Medications,
		Illness:     s.IllnessLogs,
		Usage:       s.Usage,
		Calendar:    s.Calendar,
		Drive:       s.Drive,
		Features:    s.Features,
	}
}

// Flash is a one-shot notice shown after an action
type Flash struct {
	Kind    string
	Message string
}

func success(msg string) *Flash {
	return &Flash{Kind: "success", Message: msg}
}

func failure(msg string) *Flash {
	return &Flash{Kind: "error", Message: msg}
}

// isNoAccess reports whether err means a Google scope was not granted
func isNoAccess(err error) bool {
	return errors.Is(err, errors.Forbidden) || errors.Is(err, errors.Unauthorized)
}

// detail returns the backend's message for err, or fallback
func detail(err error, fallback string) string {
	return apiclient.Detail(err, fallback)
}

// ActionError is a failed user action carrying the message to show
type ActionError struct {
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return e.Message
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func invalid(msg string) error {
	return &ActionError{Message: msg, Err: errors.NotValid}
}

// Message returns the user-facing text of err
func Message(err error) string {
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return actionErr.Message
	}
	return detail(err, "Something went wrong")
}
