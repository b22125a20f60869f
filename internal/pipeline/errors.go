package pipeline

import (
	"errors"
	"fmt"
)

// ErrVideoTimeout is returned when a remote video job does not reach a terminal
// state within the poll ceiling.
var ErrVideoTimeout = errors.New("video generation timed out")

// ErrNothingToRender is returned by the image stage when there are no prompts.
var ErrNothingToRender = errors.New("no prompts to render")

// StageError records which stage failed. Its message is "<Stage> failed: <cause>",
// or "<Stage> cancelled: <cause>" when Cancelled is set.
type StageError struct {
	Stage     string
	Err       error
	Cancelled bool
}

func (e *StageError) Error() string {
	if e.Cancelled {
		return fmt.Sprintf("%s cancelled: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// RemoteVideoError carries the failure reported by the remote video service.
type RemoteVideoError struct {
	RemoteID string
	Message  string
}

func (e *RemoteVideoError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote video job %s failed without a reason", e.RemoteID)
	}
	return fmt.Sprintf("remote video job %s failed: %s", e.RemoteID, e.Message)
}
