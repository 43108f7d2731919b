package core

import (
	"fmt"
	"net/http"
)

const (
	MsgPredicted       = "Model is predicted successfully"
	MsgFileNotProvided = "File not provided"
	MsgMultipleFiles   = "Only one image file may be provided"
	MsgNotAnImage      = "File must be an image"
	MsgUndecodable     = "File could not be processed as an image"
	MsgInternal        = "An internal error occurred while predicting"
	MsgStoreFailed     = "Failed to store prediction result"
	MsgHistoriesFailed = "Failed to load prediction histories"
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 1_000_000

var MsgPayloadTooLarge = fmt.Sprintf("Payload content length greater than maximum allowed: %d", MaxImageBytes)

// ValidationError is a client-caused failure. Status is the HTTP status to
// answer with (400 or 413).
type ValidationError struct {
	Status  int
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(status int, message string, err error) *ValidationError {
	return &ValidationError{Status: status, Message: message, Err: err}
}

// FileNotProvided is returned when a request carries no image.
func FileNotProvided() *ValidationError {
	return newValidationError(http.StatusBadRequest, MsgFileNotProvided, nil)
}

// MultipleFiles is returned when a request carries more than one image.
func MultipleFiles() *ValidationError {
	return newValidationError(http.StatusBadRequest, MsgMultipleFiles, nil)
}

// InternalError signals a defect after the startup gate, e.g. an unusable model.
type InternalError struct {
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
