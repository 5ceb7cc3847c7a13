package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/juju/clock"

	"lifeline/internal/apiclient"
	"lifeline/internal/dashboard"
	"lifeline/internal/models"
	"lifeline/internal/security"
)

// BackendFactory builds the resource APIs of one session. onRevoked must run
// when the backend rejects the session's token.
type BackendFactory func(session *models.Session, onRevoked apiclient.RevokeFunc) dashboard.Backend

// HomeOptions configures the home page
type HomeOptions struct {
	Location       *time.Location
	ChatWebhookURL string
	UploadMaxSize  int64
}

// HomeHandler serves the dashboard and every action on it
type HomeHandler struct {
	auth       Authenticator
	registry   *dashboard.Registry
	newBackend BackendFactory
	csrf       *security.CSRFGenerator
	templates  *template.Template
	clock      clock.Clock
	opts       HomeOptions
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(auth Authenticator, registry *dashboard.Registry, newBackend BackendFactory, csrf *security.CSRFGenerator, templates *template.Template, clk clock.Clock, opts HomeOptions) *HomeHandler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &HomeHandler{
		auth:       auth,
		registry:   registry,
		newBackend: newBackend,
		csrf:       csrf,
		templates:  templates,
		clock:      clk,
		opts:       opts,
	}
}

// home returns the mounted dashboard of the request's session
func (h *HomeHandler) home(r *http.Request) (*models.Session, *dashboard.Home) {
	session, home := h.lookup(r)
	// The first load outlives the request that triggered it.
	home.Mount(context.WithoutCancel(r.Context()))
	return session, home
}

// lookup returns the dashboard of the request's session without loading it
func (h *HomeHandler) lookup(r *http.Request) (*models.Session, *dashboard.Home) {
	session := GetSessionFromContext(r.Context())
	home := h.registry.Get(session.ID, func() *dashboard.Home {
		sessionID := session.ID
		revoke := func(ctx context.Context) {
			logger.Warningf("backend rejected session %s, logging out", shortID(sessionID))
			if err := h.auth.Logout(ctx, sessionID); err != nil {
				logger.Errorf("failed to logout revoked session: %v", err)
			}
			h.registry.Drop(sessionID)
		}
		return dashboard.NewHome(h.newBackend(session, revoke), h.clock, h.opts.Location)
	})
	return session, home
}

// revoked reports whether the session was destroyed while the request ran,
// in which case the browser has been sent to the login page
func (h *HomeHandler) revoked(w http.ResponseWriter, r *http.Request, session *models.Session) bool {
	if h.auth.IsAuthenticated(r.Context(), session.ID) {
		return false
	}
	http.SetCookie(w, security.CreateDeleteCookie(r))
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
	return true
}

// act runs fn against the session's dashboard and sends the browser back home
func (h *HomeHandler) act(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, home *dashboard.Home) error) {
	session, home := h.home(r)
	if err := fn(r.Context(), home); err != nil {
		logger.Debugf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	if h.revoked(w, r, session) {
		return
	}
	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

func (h *HomeHandler) render(w http.ResponseWriter, r *http.Request, session *models.Session, home *dashboard.Home) {
	token, err := h.csrf.GenerateToken(session.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
		return
	}

	view := home.View(h.clock.Now())
	data := map[string]interface{}{
		"Title":          "LifeLine",
		"UserEmail":      session.UserEmail,
		"CSRFToken":      token,
		"View":           view,
		"ChatEnabled":    h.opts.ChatWebhookURL != "" && view.Flags.ChatEnabled(),
		"ChatWebhookURL": h.opts.ChatWebhookURL,
		"UploadLimit":    h.uploadLimit(),
	}

	w.Header().Set("Cache-Control", "no-store")
	if err := h.templates.ExecuteTemplate(w, "home.tmpl", data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering home template", err)
	}
}

func (h *HomeHandler) uploadLimit() string {
	if h.opts.UploadMaxSize <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(h.opts.UploadMaxSize))
}

// Home renders the dashboard
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	session, home := h.lookup(r)
	// Every page load re-fetches, so a reload recovers from a failed load.
	home.Reload(context.WithoutCancel(r.Context()))
	if h.revoked(w, r, session) {
		return
	}
	h.render(w, r, session, home)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// formMemberID reads the optional family member filter. Empty means all members.
func formMemberID(r *http.Request) *int64 {
	id, err := strconv.ParseInt(r.FormValue("family_member_id"), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// OpenAction opens one of the action modals
func (h *HomeHandler) OpenAction(w http.ResponseWriter, r *http.Request) {
	kind, ok := dashboard.ParseModalKind(r.PathValue("kind"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.act(w, r, func(_ context.Context, home *dashboard.Home) error {
		return home.OpenModal(kind)
	})
}

// SubmitAction submits the open modal. A stale form for another modal is ignored.
func (h *HomeHandler) SubmitAction(w http.ResponseWriter, r *http.Request) {
	kind, ok := dashboard.ParseModalKind(r.PathValue("kind"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.act(w, r, func(ctx context.Context, home *dashboard.Home) error {
		if home.ActiveModal() != kind {
			return dashboard.ErrNoModalOpen
		}
		return home.SubmitModal(ctx, r.PostForm)
	})
}

// CloseAction dismisses the open modal
func (h *HomeHandler) CloseAction(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, home *dashboard.Home) error {
		home.CloseModal(ctx)
		return nil
	})
}

// EditMember opens the edit modal of a family member
func (h *HomeHandler) EditMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.act(w, r, func(_ context.Context, home *dashboard.Home) error {
		return home.EditMember(id)
	})
}

// CancelEdit closes the edit modal
func (h *HomeHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, home *dashboard.Home) error {
		home.CancelEdit()
		return nil
	})
}

// UpdateMember saves the edit modal
func (h *HomeHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.act(w, r, func(ctx context.Context, home *dashboard.Home) error {
		return home.UpdateMember(ctx, id, r.PostForm)
	})
}

// DeleteMember deletes a family member
func (h *HomeHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.act(w, r, func(ctx context.Context, home *dashboard.Home) error {
		return home.DeleteMember(ctx, id)
	})
}

// ToggleNotes expands or collapses a member's health notes
func (h *HomeHandler) ToggleNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.act(w, r, func(_ context.Context, home *dashboard.Home) error {
		home.ToggleNotes(id)
		return nil
	})
}

// DeleteMedication deletes a medication
func (h *HomeHandler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.act(w, r, func(ctx context.Context, home *dashboard.Home) error {
		return home.DeleteMedication(ctx, id)
	})
}

// FilterIllness filters the illness timeline by member
func (h *HomeHandler) FilterIllness(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, home *dashboard.Home) error {
		home.SetIllnessFilter(ctx, formMemberID(r))
		return nil
	})
}

// DeleteIllness deletes an illness log
func (h *HomeHandler) DeleteIllness(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.act(w, r, func(ctx context.Context, home *dashboard.Home) error {
		return home.DeleteIllness(ctx, id)
	})
}

// RefreshWidget re-fetches one self-fetching widget, named by the route
func (h *HomeHandler) RefreshWidget(handle dashboard.Handle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.act(w, r, func(ctx context.Context, home *dashboard.Home) error {
			return home.RefreshWidget(ctx, handle)
		})
	}
}

// FilterUsage filters the usage widget by member
func (h *HomeHandler) FilterUsage(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, home *dashboard.Home) error {
		home.SetUsageFilter(formMemberID(r))
		return nil
	})
}

// ShowEvent renders the dashboard with one calendar event opened
func (h *HomeHandler) ShowEvent(w http.ResponseWriter, r *http.Request) {
	session, home := h.home(r)
	if !home.SelectEvent(r.PathValue("id")) {
		http.Redirect(w, r, homePath, http.StatusSeeOther)
		return
	}
	if h.revoked(w, r, session) {
		return
	}
	h.render(w, r, session, home)
}

// CloseEvent closes the calendar event detail
func (h *HomeHandler) CloseEvent(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, home *dashboard.Home) error {
		home.CloseEvent()
		return nil
	})
}

// UploadFile uploads the posted file to Drive
func (h *HomeHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			respondWithError(w, http.StatusBadRequest, ErrNoFileUploaded, "", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "Error reading upload", err)
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if h.opts.UploadMaxSize > 0 && header.Size > h.opts.UploadMaxSize {
		respondWithError(w, http.StatusRequestEntityTooLarge, ErrFileTooLarge+" (max "+h.uploadLimit()+")", "", nil)
		return
	}

	h.act(w, r, func(ctx context.Context, home *dashboard.Home) error {
		return home.UploadFile(ctx, header.Filename, file)
	})
}

// RequestFileDelete asks for confirmation before deleting a Drive file
func (h *HomeHandler) RequestFileDelete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, home *dashboard.Home) error {
		home.RequestFileDelete(r.PathValue("id"))
		return nil
	})
}

// ConfirmFileDelete deletes the Drive file awaiting confirmation
func (h *HomeHandler) ConfirmFileDelete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, home *dashboard.Home) error {
		return home.ConfirmFileDelete(ctx)
	})
}

// CancelFileDelete closes the Drive delete confirmation
func (h *HomeHandler) CancelFileDelete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, home *dashboard.Home) error {
		home.CancelFileDelete()
		return nil
	})
}

// Healthz reports that the server is up
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
