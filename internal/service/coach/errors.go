package coach

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a session does not exist or has nothing to report on.
var ErrNotFound = errors.New("no session found or session is empty")

// ValidationError reports a malformed request. Nothing is changed when it is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// GenerationError wraps a failure of the completion step.
type GenerationError struct {
	SessionID string
	Stage     string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed for session %s: %v", e.Stage, e.SessionID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Stages reported in GenerationError and in logs.
const (
	StageTurn   = "turn"
	StageAppend = "append"
	StageReport = "report"
	StageRender = "render"
)
