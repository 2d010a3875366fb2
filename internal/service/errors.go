package service

import (
	"errors"
	"fmt"
)

// Stable error values crossing the service boundary. Handlers map these to
// responses; none carry internal detail.
var (
	ErrNotLoggedIn            = errors.New("not logged in")
	ErrInvalidRole            = errors.New("role is not allowed to perform this action")
	ErrInvalidPermission      = errors.New("no permission for this submission")
	ErrNotFound               = errors.New("record not found")
	ErrInvalidState           = errors.New("action not allowed in current status")
	ErrCommentRequired        = errors.New("a comment is required for this action")
	ErrConcurrentModification = errors.New("submission was modified concurrently")
	ErrValidationInFlight     = errors.New("validation run failed")
	ErrDispatchFailure        = errors.New("queue dispatch failed")
	ErrStorageFailure         = errors.New("object storage operation failed")
	ErrNoStorageBucket        = errors.New("submission has no storage bucket configured")
)

// Validation engine failure codes. The engine reports structured codes, not
// message text; the orchestrator's rollback rules key off these.
const (
	CodeNoNewValidationMetadata = "NO_NEW_VALIDATION_METADATA"
	CodeNoValidationMetadata    = "NO_VALIDATION_METADATA"
	CodeCrossSubmissionFailure  = "CROSS_SUBMISSION_FAILURE"
	CodeEngineUnavailable       = "ENGINE_UNAVAILABLE"
)

// EngineError is a structured failure from the validation engine. Types
// lists the requested validation types whose checks did not run.
type EngineError struct {
	Code    string
	Types   []string
	Message string
}

func (e *EngineError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation engine: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("validation engine: %s", e.Code)
}

func (e *EngineError) Unwrap() error {
	return ErrValidationInFlight
}
