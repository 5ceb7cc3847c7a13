package handlers

const (
	ErrInvalidFormData     = "Invalid form data"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests, please try again later"
	ErrInternalServerError = "Internal server error"
	ErrFileTooLarge        = "File is too large"
	ErrNoFileUploaded      = "No file uploaded"

	ErrNoCodeReceived      = "No code received"
	ErrAuthenticationFail  = "Authentication failed"
	ErrGoogleLoginFailed   = "Failed to start Google sign-in"
	loginPath              = "/login"
	homePath               = "/"
	multipartMemory        = 8 << 20
)
