package workflow

import (
	"context"
	"sync"

	"github.com/KaramelBytes/datasage-cli/internal/client"
	"github.com/KaramelBytes/datasage-cli/internal/intake"
	"github.com/KaramelBytes/datasage-cli/internal/report"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Analyzer performs the remote exchange for one file.
type Analyzer interface {
	Analyze(ctx context.Context, f intake.FileHandle) (*report.DataProfileReport, error)
}

// Workflow is the single writer of the session state.
type Workflow struct {
	mu       sync.Mutex
	state    State
	analyzer Analyzer
	describe func(error) string
	newID    func() string
	log      *zap.Logger
	onChange func(from, to State)
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger logs every transition at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.log = l
		}
	}
}

// WithDescriber overrides how analyzer errors become the failure message.
func WithDescriber(fn func(error) string) Option {
	return func(w *Workflow) { w.describe = fn }
}

// WithIDs overrides session ID generation (tests).
func WithIDs(fn func() string) Option {
	return func(w *Workflow) { w.newID = fn }
}

// OnChange registers a hook called after each transition, outside the lock.
func OnChange(fn func(from, to State)) Option {
	return func(w *Workflow) { w.onChange = fn }
}

// New returns an Idle workflow backed by a.
func New(a Analyzer, opts ...Option) *Workflow {
	w := &Workflow{
		state:    Idle{},
		analyzer: a,
		describe: client.Message,
		newID:    uuid.NewString,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// State returns the current session.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Phase returns the current phase. Intake surfaces disable themselves while
// Phase().Busy() is true.
func (w *Workflow) Phase() Phase { return w.State().Phase() }

// Reset returns to Idle from a terminal state, discarding the report or error.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	from, to, err := w.applyLocked(Reset{})
	w.mu.Unlock()
	w.notify(from, to, err)
	return err
}

// Submit validates f and, when accepted, starts the single transfer for a new
// session. A rejection returns *RejectedError and leaves the current state,
// including any displayed result, untouched.
// The transfer is not cancellable: ctx supplies values only.
func (w *Workflow) Submit(ctx context.Context, f intake.FileHandle, p intake.Policy) (*Pending, error) {
	w.mu.Lock()
	if w.state.Phase().Busy() {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	if out := intake.Validate(f, p); !out.Valid {
		w.mu.Unlock()
		w.log.Debug("selection rejected", zap.String("file", f.Name), zap.String("reason", out.Reason))
		return nil, &RejectedError{Outcome: out, Message: intake.Describe(out, p)}
	}
	id := w.newID()
	var transitions [][2]State
	for _, ev := range []Event{Picked{ID: id, File: f}, Accepted{}} {
		from, to, err := w.applyLocked(ev)
		if err != nil {
			w.mu.Unlock()
			w.notifyAll(transitions)
			return nil, err
		}
		transitions = append(transitions, [2]State{from, to})
	}
	w.mu.Unlock()
	w.notifyAll(transitions)

	pending := newPending(id)
	go w.transfer(context.WithoutCancel(ctx), id, f, pending)
	return pending, nil
}

// transfer is the only resolution path for a session.
func (w *Workflow) transfer(ctx context.Context, id string, f intake.FileHandle, p *Pending) {
	rep, err := w.analyzer.Analyze(ctx, f)
	var ev Event = Resolved{ID: id, Report: rep}
	if err != nil {
		w.log.Debug("analysis failed", zap.String("session_id", id), zap.Error(err))
		ev = Errored{ID: id, Message: w.describe(err)}
	}
	w.mu.Lock()
	from, to, rerr := w.applyLocked(ev)
	w.mu.Unlock()
	w.notify(from, to, rerr)
	p.resolve(to, err)
}

func (w *Workflow) applyLocked(ev Event) (from, to State, err error) {
	from = w.state
	to, err = Reduce(from, ev)
	if err != nil {
		return from, from, err
	}
	w.state = to
	return from, to, nil
}

func (w *Workflow) notify(from, to State, err error) {
	if err != nil {
		return
	}
	w.log.Debug("session transition",
		zap.String("session_id", firstNonEmpty(to.SessionID(), from.SessionID())),
		zap.Stringer("from", from.Phase()),
		zap.Stringer("to", to.Phase()),
	)
	if w.onChange != nil {
		w.onChange(from, to)
	}
}

func (w *Workflow) notifyAll(ts [][2]State) {
	for _, t := range ts {
		w.notify(t[0], t[1], nil)
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Pending resolves once the transfer for one session completes.
type Pending struct {
	id    string
	done  chan struct{}
	state State
	err   error
}

func newPending(id string) *Pending {
	return &Pending{id: id, done: make(chan struct{})}
}

func (p *Pending) resolve(s State, err error) {
	p.state = s
	p.err = err
	close(p.done)
}

// SessionID identifies the session this transfer belongs to.
func (p *Pending) SessionID() string { return p.id }

// Done is closed when the transfer has resolved.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until resolution and returns the state the session reached plus
// the raw analyzer error, if any.
func (p *Pending) Wait() (State, error) {
	<-p.done
	return p.state, p.err
}

// RejectedError reports a file that failed local validation.
type RejectedError struct {
	Outcome intake.Outcome
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

func (e *RejectedError) Unwrap() error { return e.Outcome.Err() }
