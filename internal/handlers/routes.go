package handlers

import (
	"net/http"

	"lifeline/internal/dashboard"
)

// multipartOverhead is the body allowance above the upload limit for the
// multipart framing and the other form fields
const multipartOverhead = 1 << 20

// RegisterRoutes wires every page and action onto mux
func RegisterRoutes(mux *http.ServeMux, m *Middleware, auth *AuthHandler, home *HomeHandler, uploadMaxSize int64) {
	// Public routes
	mux.HandleFunc("GET /healthz", Healthz)
	mux.HandleFunc("GET /login", auth.ShowLogin)
	mux.HandleFunc("GET /auth/google", m.RateLimit(auth.GoogleLogin))
	mux.HandleFunc("GET /auth/google/callback", m.RateLimit(auth.OAuthCallback))
	mux.HandleFunc("POST /logout", m.RequireAuth(m.CSRFProtect(auth.Logout)))

	// Dashboard
	mux.HandleFunc("GET /{$}", m.RequireAuth(home.Home))

	// Action modals
	mux.HandleFunc("POST /actions/close", m.RequireAuth(m.CSRFProtect(home.CloseAction)))
	mux.HandleFunc("POST /actions/{kind}", m.RequireAuth(m.CSRFProtect(home.OpenAction)))
	mux.HandleFunc("POST /actions/{kind}/submit", m.RequireAuth(m.CSRFProtect(home.SubmitAction)))

	// Family members
	mux.HandleFunc("POST /family-members/edit/cancel", m.RequireAuth(m.CSRFProtect(home.CancelEdit)))
	mux.HandleFunc("POST /family-members/{id}/edit", m.RequireAuth(m.CSRFProtect(home.EditMember)))
	mux.HandleFunc("POST /family-members/{id}/update", m.RequireAuth(m.CSRFProtect(home.UpdateMember)))
	mux.HandleFunc("POST /family-members/{id}/delete", m.RequireAuth(m.CSRFProtect(home.DeleteMember)))
	mux.HandleFunc("POST /family-members/{id}/notes", m.RequireAuth(m.CSRFProtect(home.ToggleNotes)))

	// Medications
	mux.HandleFunc("POST /medications/{id}/delete", m.RequireAuth(m.CSRFProtect(home.DeleteMedication)))

	// Illness timeline
	mux.HandleFunc("POST /illness/filter", m.RequireAuth(m.CSRFProtect(home.FilterIllness)))
	mux.HandleFunc("POST /illness/refresh", m.RequireAuth(m.CSRFProtect(home.RefreshWidget(dashboard.HandleIllness))))
	mux.HandleFunc("POST /illness/{id}/delete", m.RequireAuth(m.CSRFProtect(home.DeleteIllness)))

	// Medication usage
	mux.HandleFunc("POST /usage/filter", m.RequireAuth(m.CSRFProtect(home.FilterUsage)))

	// Calendar
	mux.HandleFunc("POST /calendar/refresh", m.RequireAuth(m.CSRFProtect(home.RefreshWidget(dashboard.HandleCalendar))))
	mux.HandleFunc("GET /calendar/events/{id}", m.RequireAuth(home.ShowEvent))
	mux.HandleFunc("POST /calendar/events/close", m.RequireAuth(m.CSRFProtect(home.CloseEvent)))

	// Google Drive
	mux.HandleFunc("POST /drive/refresh", m.RequireAuth(m.CSRFProtect(home.RefreshWidget(dashboard.HandleDrive))))
	mux.HandleFunc("POST /drive/upload", m.RequireAuth(MaxBytes(uploadMaxSize+multipartOverhead, m.CSRFProtect(home.UploadFile))))
	mux.HandleFunc("POST /drive/files/{id}/delete", m.RequireAuth(m.CSRFProtect(home.RequestFileDelete)))
	mux.HandleFunc("POST /drive/delete/confirm", m.RequireAuth(m.CSRFProtect(home.ConfirmFileDelete)))
	mux.HandleFunc("POST /drive/delete/cancel", m.RequireAuth(m.CSRFProtect(home.CancelFileDelete)))
}
