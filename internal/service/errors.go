package service

import "net/http"

// Error is a business failure. It is reported inside the response envelope
// with Code, while the HTTP status stays 200.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func badRequest(message string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: message}
}

func notFound(message string) *Error {
	return &Error{Code: http.StatusNotFound, Message: message}
}

var (
	ErrConversationNotFound = notFound("Conversation not found")
	ErrNotInRecycleBin      = badRequest("Conversation is not in recycle bin")
	ErrRoleNotFound         = notFound("Role not found or you don't have permission")
	ErrAIRoleNotFound       = notFound("AI Role not found")
	ErrUserNotFound         = notFound("User not found")
	ErrUsernameTaken        = badRequest("Username already exists")
	ErrEmailTaken           = badRequest("Email already exists")
	ErrWrongPassword        = badRequest("Current password is incorrect")
	ErrInvalidCredentials   = &Error{Code: http.StatusUnauthorized, Message: "Invalid username or password"}
)

// Invalid reports a request that failed validation.
func Invalid(reason string) *Error {
	return badRequest("Validation failed: " + reason)
}
