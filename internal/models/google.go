package models

import (
	calendar "google.golang.org/api/calendar/v3"
	drive "google.golang.org/api/drive/v3"
)

// CalendarEvent is a Google Calendar event as proxied by the backend
type CalendarEvent = calendar.Event

// DriveFile is a Google Drive file as proxied by the backend
type DriveFile = drive.File

// UpcomingEvents is the response of GET /calendar/upcoming, keyed by YYYY-MM-DD
type UpcomingEvents struct {
	Events map[string][]*CalendarEvent `json:"events"`
}

// CalendarEventInput is the payload of POST /calendar/events. Times are ISO-8601.
type CalendarEventInput struct {
	Summary     string `json:"summary"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
}

// CalendarEventCreated is the response of POST /calendar/events
type CalendarEventCreated struct {
	Event   *CalendarEvent `json:"event"`
	Message string         `json:"message"`
}

// DriveListing is the response of GET /drive/files
type DriveListing struct {
	Files     []*DriveFile `json:"files"`
	Connected bool         `json:"connected"`
	Message   string       `json:"message,omitempty"`
}

// DriveUpload is the response of POST /drive/upload
type DriveUpload struct {
	File    *DriveFile `json:"file"`
	Message string     `json:"message"`
}
