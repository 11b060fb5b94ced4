package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrInternalServerError = "Internal server error"
	ErrTooManyRequests     = "Too many requests, slow down"
	ErrInvalidCSRFToken    = "Invalid CSRF token"

	// maxBodyBytes caps every JSON request body
	maxBodyBytes = 1 << 20
)
