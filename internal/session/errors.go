package session

import "errors"

// Banner messages for local validation failures
const (
	MsgSelectFileFirst    = "Please select a file first"
	MsgSelectBothColumns  = "Please select both columns"
	MsgFileContentMissing = "File content not loaded. Please upload the file again."
)

var (
	// ErrBusy is returned when an operation is attempted while a request is in flight
	ErrBusy = errors.New("a request is already in progress")

	// ErrUnknownColumn is returned when selecting a column the analysis does not have
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNoAnalysis is returned by column operations before an analysis exists
	ErrNoAnalysis = errors.New("no analysis available")

	// ErrNoFile is returned when selecting a nil file
	ErrNoFile = errors.New("no file given")
)

// ValidationError is a local precondition failure. No request was made and
// Message is shown in the error banner.
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is a local validation failure
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
