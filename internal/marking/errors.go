package marking

import (
	"errors"
	"fmt"
	"time"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

var (
	// ErrIncomplete blocks a submission while any student is still unmarked.
	ErrIncomplete = errors.New("attendance sheet has unmarked students")
	// ErrBusy is returned for edits or submissions while a load or commit is in flight.
	ErrBusy = errors.New("session is loading or saving")
	// ErrNotLoaded is returned when no sheet has been loaded successfully.
	ErrNotLoaded = errors.New("no attendance sheet loaded")
	// ErrSuperseded is returned by a load whose key was replaced by a newer load.
	ErrSuperseded = errors.New("load superseded by a newer class or date")
	// ErrUnknownStudent is returned when editing a student that is not on the roster.
	ErrUnknownStudent = errors.New("student is not on the class roster")
	// ErrInvalidStatus is returned for statuses that cannot be assigned.
	ErrInvalidStatus = errors.New("status cannot be assigned")
	// ErrNoPendingSubmit is returned by Confirm when nothing awaits confirmation.
	ErrNoPendingSubmit = errors.New("no submission awaiting confirmation")
)

// LoadError reports a failed roster or record fetch for a class and date.
type LoadError struct {
	ClassID int
	Date    time.Time
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load attendance for class %d on %s: %v", e.ClassID, e.Date.Format(model.DateLayout), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// CommitError reports a rejected ReplaceDay. The session keeps its marks.
type CommitError struct {
	ClassID int
	Date    time.Time
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit attendance for class %d on %s: %v", e.ClassID, e.Date.Format(model.DateLayout), e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
