package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataUnavailable means the record source could not be read. A pass
	// that hits it fails before any detector runs.
	ErrDataUnavailable = errors.New("procurement records unavailable")

	// ErrAnalysisTimedOut means the caller's budget ran out. Nothing from the
	// aborted pass is committed.
	ErrAnalysisTimedOut = errors.New("analysis timed out")

	// ErrAnalysisInProgress is returned when a pass is already running on the
	// same engine.
	ErrAnalysisInProgress = errors.New("analysis already in progress")

	// ErrModelFit is raised by the learned detector's fit step on degenerate
	// input. It never leaves that detector.
	ErrModelFit = errors.New("outlier model fit failed")

	ErrNotFound = errors.New("not found")

	// ErrRunNotQueued is returned when starting a run that is already
	// running or finished.
	ErrRunNotQueued = errors.New("run is not queued")
)

// PartialPersistenceError reports findings the gateway could not store. The
// rest of the batch was stored.
type PartialPersistenceError struct {
	Failed int
	Causes []error
}

func (e *PartialPersistenceError) Error() string {
	msgs := make([]string, 0, 3)
	for i, c := range e.Causes {
		if i == 3 {
			break
		}
		msgs = append(msgs, c.Error())
	}
	if len(msgs) == 0 {
		return fmt.Sprintf("%d findings not stored", e.Failed)
	}
	return fmt.Sprintf("%d findings not stored: %s", e.Failed, strings.Join(msgs, "; "))
}

// Unwrap exposes the individual write failures to errors.Is/As.
func (e *PartialPersistenceError) Unwrap() []error { return e.Causes }

// FindingWriteError wraps a single failed write with the finding's identity.
type FindingWriteError struct {
	Key string
	Err error
}

func (e *FindingWriteError) Error() string { return fmt.Sprintf("store finding %s: %v", e.Key, e.Err) }
func (e *FindingWriteError) Unwrap() error { return e.Err }
