package dashboard

import (
	"context"
	"errors"
	"io"
	"sync"

	"lifeline/internal/models"
)

// ErrUploadInProgress is returned while another upload is in flight
var ErrUploadInProgress = errors.New("an upload is already in progress")

// DriveSection lists the app's Drive folder, uploads single files and deletes
// after explicit confirmation.
type DriveSection struct {
	api DriveAPI

	mu            sync.Mutex
	phase         Phase
	err           string
	message       string
	files         []*models.DriveFile
	uploading     bool
	pendingDelete *models.DriveFile
}

// NewDriveSection creates an unmounted drive section
func NewDriveSection(api DriveAPI) *DriveSection {
	return &DriveSection{api: api}
}

// Mount performs the initial fetch
func (w *DriveSection) Mount(ctx context.Context) {
	w.Refresh(ctx)
}

// Refresh re-fetches the file list. It doubles as the "Connect Now" action.
func (w *DriveSection) Refresh(ctx context.Context) {
	w.mu.Lock()
	w.phase = Loading
	w.err = ""
	w.mu.Unlock()

	listing, err := w.api.ListFiles(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case err != nil && isNoAccess(err):
		logger.Infof("drive not connected: %v", err)
		w.phase = NoAccess
		w.files = nil
	case err != nil:
		logger.Errorf("failed to load drive files: %v", err)
		w.phase = Error
		w.err = detail(err, "Failed to load files")
	case !listing.Connected:
		w.phase = NoAccess
		w.message = listing.Message
		w.files = nil
	default:
		w.phase = Ready
		w.message = ""
		w.files = listing.Files
	}
}

// Upload stores one file and reloads the list. Only one upload runs at a time.
func (w *DriveSection) Upload(ctx context.Context, filename string, r io.Reader) error {
	w.mu.Lock()
	if w.uploading {
		w.mu.Unlock()
		return &ActionError{Message: "Please wait for the current upload to finish", Err: ErrUploadInProgress}
	}
	w.uploading = true
	w.mu.Unlock()

	_, err := w.api.Upload(ctx, filename, r)

	w.mu.Lock()
	w.uploading = false
	w.mu.Unlock()
	if err != nil {
		logger.Errorf("failed to upload %s: %v", filename, err)
		return &ActionError{Message: detail(err, "Failed to upload file"), Err: err}
	}
	w.Refresh(ctx)
	return nil
}

// RequestDelete opens the confirmation for the file with id. It reports whether the file is listed.
func (w *DriveSection) RequestDelete(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, f := range w.files {
		if f != nil && f.Id == id {
			w.pendingDelete = f
			return true
		}
	}
	return false
}

// CancelDelete closes the confirmation without deleting
func (w *DriveSection) CancelDelete() {
	w.mu.Lock()
	w.pendingDelete = nil
	w.mu.Unlock()
}

// ConfirmDelete deletes the pending file and reloads the list. The
// confirmation closes whatever the outcome. It returns false when nothing was pending.
func (w *DriveSection) ConfirmDelete(ctx context.Context) (bool, error) {
	w.mu.Lock()
	file := w.pendingDelete
	w.mu.Unlock()
	if file == nil {
		return false, nil
	}
	defer w.CancelDelete()

	if err := w.api.Delete(ctx, file.Id); err != nil {
		logger.Errorf("failed to delete drive file %s: %v", file.Id, err)
		return true, &ActionError{Message: detail(err, "Failed to delete file"), Err: err}
	}
	w.Refresh(ctx)
	return true, nil
}

// DriveSnapshot is a point-in-time copy of the drive section
type DriveSnapshot struct {
	Phase         Phase
	Error         string
	Message       string
	Files         []*models.DriveFile
	Uploading     bool
	PendingDelete *models.DriveFile
}

// Snapshot copies the drive state
func (w *DriveSection) Snapshot() DriveSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return DriveSnapshot{
		Phase:         w.phase,
		Error:         w.err,
		Message:       w.message,
		Files:         append([]*models.DriveFile(nil), w.files...),
		Uploading:     w.uploading,
		PendingDelete: w.pendingDelete,
	}
}
