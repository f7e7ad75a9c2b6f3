package wizard

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"woundtrack-backend/internal/woundapi"
)

var (
	ErrNotFound        = errors.New("wizard not found")
	ErrUnknownRole     = errors.New("unknown role")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidStep     = errors.New("action not allowed at this step")
	ErrBusy            = errors.New("a request for this wizard is already in progress")
	ErrValidation      = errors.New("validation failed")
	ErrNotAnImage      = errors.New("file must be an image")
	ErrImageTooLarge   = errors.New("image exceeds the size limit")
	ErrMissingWound    = errors.New("wound_id is required before submitting")
	ErrWoundAlreadySet = errors.New("wizard already has a wound")
	ErrSessionExpired  = errors.New("session expired")
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field that failed a screen's checks.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Operation names used in RequestError.
const (
	OpUpload      = "upload_image"
	OpSubmit      = "create_tracking_record"
	OpCreateWound = "create_wound"
)

// RequestError is a backend call that failed. Message is user-facing copy.
type RequestError struct {
	Op      string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %v", e.Op, e.Status, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	return target == ErrSessionExpired && e.Status == http.StatusUnauthorized
}

// classifyUpload turns an upload failure into user-facing copy keyed by status.
func classifyUpload(err error) *RequestError {
	status := woundapi.StatusOf(err)
	re := &RequestError{Op: OpUpload, Status: status, Err: err}
	switch status {
	case http.StatusBadRequest:
		re.Code = "invalid_format"
		re.Message = "The selected file is not a supported image format."
	case http.StatusUnauthorized:
		re.Code = "session_expired"
		re.Message = "Your session has expired. Please sign in again."
	case http.StatusRequestEntityTooLarge:
		re.Code = "image_too_large"
		re.Message = "The image is too large. Please choose a smaller photo."
	default:
		re.Code = "upload_failed"
		re.Message = "We could not upload the photo. Please try again."
	}
	return re
}

// classifySubmit turns a tracking-record or wound creation failure into copy for role.
func classifySubmit(op string, role Role, err error) *RequestError {
	status := woundapi.StatusOf(err)
	re := &RequestError{Op: op, Status: status, Err: err}
	if status == http.StatusUnauthorized {
		re.Code = "session_expired"
		re.Message = "Your session has expired. Please sign in again."
		return re
	}
	re.Code = "request_failed"
	switch {
	case op == OpCreateWound:
		re.Message = "We could not register the wound. Please try again."
	case role.Specialist():
		re.Message = "The tracking record could not be saved. Review the data and try again."
	default:
		re.Message = "We could not save your update. Please try again."
	}
	return re
}
