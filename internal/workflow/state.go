// Package workflow sequences one file through validation, transfer and
// result display. The live session is a single tagged State advanced only by
// Reduce, so contradictory combinations (loading with an error, a report
// alongside a failure) cannot be represented.
package workflow

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/datasage-cli/internal/intake"
	"github.com/KaramelBytes/datasage-cli/internal/report"
)

// Phase names the variant of a State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseTransferring
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseTransferring:
		return "transferring"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Busy reports whether the phase must block new selections.
func (p Phase) Busy() bool { return p == PhaseValidating || p == PhaseTransferring }

// State is the session. Implementations are the five variants below; values
// are replaced wholesale, never mutated.
type State interface {
	Phase() Phase
	// SessionID is "" for Idle.
	SessionID() string
	state()
}

type Idle struct{}

type Validating struct {
	ID   string
	File intake.FileHandle
}

type Transferring struct {
	ID   string
	File intake.FileHandle
}

// Succeeded owns the received report. Readers must not modify it.
type Succeeded struct {
	ID     string
	Report *report.DataProfileReport
}

type Failed struct {
	ID      string
	Message string
}

func (Idle) Phase() Phase         { return PhaseIdle }
func (Validating) Phase() Phase   { return PhaseValidating }
func (Transferring) Phase() Phase { return PhaseTransferring }
func (Succeeded) Phase() Phase    { return PhaseSucceeded }
func (Failed) Phase() Phase       { return PhaseFailed }

func (Idle) SessionID() string           { return "" }
func (s Validating) SessionID() string   { return s.ID }
func (s Transferring) SessionID() string { return s.ID }
func (s Succeeded) SessionID() string    { return s.ID }
func (s Failed) SessionID() string       { return s.ID }

func (Idle) state()         {}
func (Validating) state()   {}
func (Transferring) state() {}
func (Succeeded) state()    {}
func (Failed) state()       {}

// Event drives Reduce.
type Event interface{ event() }

// Picked starts a new session for File. From a terminal state it implies a reset.
type Picked struct {
	ID   string
	File intake.FileHandle
}

// Accepted means validation passed; the transfer begins.
type Accepted struct{}

// Rejected means validation failed; no session survives.
type Rejected struct{ Reason string }

// Resolved delivers the report for session ID.
type Resolved struct {
	ID     string
	Report *report.DataProfileReport
}

// Errored delivers the failure message for session ID.
type Errored struct {
	ID      string
	Message string
}

// Reset discards the current result or error.
type Reset struct{}

func (Picked) event()   {}
func (Accepted) event() {}
func (Rejected) event() {}
func (Resolved) event() {}
func (Errored) event()  {}
func (Reset) event()    {}

var (
	// ErrBusy is returned when a selection arrives mid-session.
	ErrBusy = errors.New("an analysis is already in progress")
	// ErrInvalidTransition is returned for any other event the state cannot take.
	ErrInvalidTransition = errors.New("invalid transition")
)

// Reduce returns the state that follows s on ev. On error s is returned
// unchanged.
func Reduce(s State, ev Event) (State, error) {
	if s == nil {
		s = Idle{}
	}
	switch e := ev.(type) {
	case Picked:
		if s.Phase().Busy() {
			return s, ErrBusy
		}
		return Validating{ID: e.ID, File: e.File}, nil
	case Accepted:
		if v, ok := s.(Validating); ok {
			return Transferring{ID: v.ID, File: v.File}, nil
		}
	case Rejected:
		if _, ok := s.(Validating); ok {
			return Idle{}, nil
		}
	case Resolved:
		if t, ok := s.(Transferring); ok && t.ID == e.ID {
			if e.Report == nil {
				return Failed{ID: t.ID, Message: "empty analysis result"}, nil
			}
			return Succeeded{ID: t.ID, Report: e.Report}, nil
		}
	case Errored:
		if t, ok := s.(Transferring); ok && t.ID == e.ID {
			return Failed{ID: t.ID, Message: e.Message}, nil
		}
	case Reset:
		switch s.(type) {
		case Idle, Succeeded, Failed:
			return Idle{}, nil
		}
	}
	return s, fmt.Errorf("%w: %T in %s", ErrInvalidTransition, ev, s.Phase())
}
