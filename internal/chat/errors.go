package chat

import "errors"

// PreconditionError is raised locally before any request is issued.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

var (
	// ErrNoActiveConversation is returned by session operations when nothing is selected.
	ErrNoActiveConversation = &PreconditionError{Reason: "no active conversation"}

	// ErrConversationNotLoaded is returned when selecting an id the directory does not hold.
	ErrConversationNotLoaded = errors.New("conversation is not loaded")
)
