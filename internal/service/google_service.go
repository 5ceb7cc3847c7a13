package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"lifeline/internal/models"
)

// CalendarService wraps the Google Calendar proxy endpoints
type CalendarService struct {
	backend Backend
}

// NewCalendarService creates a new calendar service
func NewCalendarService(b Backend) *CalendarService {
	return &CalendarService{backend: b}
}

// Upcoming returns upcoming events grouped by day
func (s *CalendarService) Upcoming(ctx context.Context) (*models.UpcomingEvents, error) {
	var out models.UpcomingEvents
	if err := s.backend.Do(ctx, http.MethodGet, "/calendar/upcoming", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to load upcoming events: %w", err)
	}
	if out.Events == nil {
		out.Events = map[string][]*models.CalendarEvent{}
	}
	return &out, nil
}

// CreateEvent schedules an event
func (s *CalendarService) CreateEvent(ctx context.Context, in models.CalendarEventInput) (*models.CalendarEventCreated, error) {
	var out models.CalendarEventCreated
	if err := s.backend.Do(ctx, http.MethodPost, "/calendar/events", nil, in, &out); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return &out, nil
}

// DriveService wraps the Google Drive proxy endpoints
type DriveService struct {
	backend Backend
}

// NewDriveService creates a new drive service
func NewDriveService(b Backend) *DriveService {
	return &DriveService{backend: b}
}

// ListFiles returns the app folder listing and whether Drive is connected
func (s *DriveService) ListFiles(ctx context.Context) (*models.DriveListing, error) {
	var out models.DriveListing
	if err := s.backend.Do(ctx, http.MethodGet, "/drive/files", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list drive files: %w", err)
	}
	return &out, nil
}

// Upload stores one file in Drive
func (s *DriveService) Upload(ctx context.Context, filename string, r io.Reader) (*models.DriveUpload, error) {
	var out models.DriveUpload
	if err := s.backend.Upload(ctx, "/drive/upload", "file", filename, r, &out); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	return &out, nil
}

// Delete removes a Drive file
func (s *DriveService) Delete(ctx context.Context, fileID string) error {
	if err := s.backend.Do(ctx, http.MethodDelete, "/drive/files/"+url.PathEscape(fileID), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete drive file %s: %w", fileID, err)
	}
	return nil
}

// FeatureService wraps /features
type FeatureService struct {
	backend Backend
}

// NewFeatureService creates a new feature service
func NewFeatureService(b Backend) *FeatureService {
	return &FeatureService{backend: b}
}

// Flags returns the feature flags. Flags missing from the response stay nil and read as enabled.
func (s *FeatureService) Flags(ctx context.Context) (models.FeatureFlags, error) {
	var flags models.FeatureFlags
	if err := s.backend.Do(ctx, http.MethodGet, "/features", nil, nil, &flags); err != nil {
		return models.FeatureFlags{}, fmt.Errorf("failed to load feature flags: %w", err)
	}
	return flags, nil
}
