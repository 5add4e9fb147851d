package services

import "errors"

// Sentinel errors for conditions the API reports to clients. The strings are
// returned verbatim in response bodies, hence the sentence casing.
var (
	ErrUnauthenticated     = errors.New("You must be signed in.")
	ErrListingNotFound     = errors.New("Listing not found.")
	ErrListingMissingOwner = errors.New("Listing is missing an owner.")
	ErrSelfMessage         = errors.New("You cannot message your own listing.")
	ErrThreadNotFound      = errors.New("Thread not found.")
	ErrNotParticipant      = errors.New("You are not part of this conversation.")
	ErrEmptyMessage        = errors.New("Message cannot be empty.")
	ErrEmptyMessageBody    = errors.New("Message body cannot be empty.")
	ErrNotOwner            = errors.New("You do not own this listing.")
	ErrPhotoLimitReached   = errors.New("Listing already has the maximum number of photos.")
)

// ValidationError marks client input the service rejected. Handlers map it to
// a 400 response with the message as-is.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
