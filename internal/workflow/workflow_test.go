package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KaramelBytes/datasage-cli/internal/client"
	"github.com/KaramelBytes/datasage-cli/internal/intake"
	"github.com/KaramelBytes/datasage-cli/internal/render"
	"github.com/KaramelBytes/datasage-cli/internal/report"
)

// fakeAnalyzer blocks each call until release is closed, then answers.
type fakeAnalyzer struct {
	calls   atomic.Int32
	release chan struct{}
	rep     *report.DataProfileReport
	err     error
}

func newFake(rep *report.DataProfileReport, err error) *fakeAnalyzer {
	return &fakeAnalyzer{release: make(chan struct{}), rep: rep, err: err}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, h intake.FileHandle) (*report.DataProfileReport, error) {
	f.calls.Add(1)
	<-f.release
	return f.rep, f.err
}

func file(name string, size int64) intake.FileHandle {
	return intake.NewFileHandle(name, size, "", func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("")), nil
	})
}

func policy() intake.Policy {
	return intake.Policy{Accept: intake.ParseAccept(".csv,.xlsx,.xls"), MaxSizeBytes: 10 * 1024 * 1024}
}

func seqIDs() func() string {
	var n int
	return func() string { n++; return fmt.Sprintf("s%d", n) }
}

func waitResolved(t *testing.T, p *Pending) State {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("transfer did not resolve")
	}
	s, _ := p.Wait()
	return s
}

func TestSubmitSuccessScenario(t *testing.T) {
	rep := &report.DataProfileReport{FileName: "sales.csv", QualityScore: 92}
	a := newFake(rep, nil)
	var mu sync.Mutex
	var phases []Phase
	w := New(a, WithIDs(seqIDs()), OnChange(func(_, to State) {
		mu.Lock()
		phases = append(phases, to.Phase())
		mu.Unlock()
	}))

	p, err := w.Submit(context.Background(), file("sales.csv", 2048), policy())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if w.Phase() != PhaseTransferring {
		t.Fatalf("phase = %s, want transferring", w.Phase())
	}
	close(a.release)
	s := waitResolved(t, p)
	ok, isOK := s.(Succeeded)
	if !isOK || ok.Report != rep {
		t.Fatalf("expected Succeeded with report, got %#v", s)
	}
	if render.QualityTier(ok.Report.QualityScore) != render.TierGood {
		t.Fatalf("expected good tier")
	}
	mu.Lock()
	defer mu.Unlock()
	want := []Phase{PhaseValidating, PhaseTransferring, PhaseSucceeded}
	if fmt.Sprint(phases) != fmt.Sprint(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
}

func TestSubmitOversizedNeverLeavesIdle(t *testing.T) {
	a := newFake(nil, nil)
	w := New(a)
	_, err := w.Submit(context.Background(), file("big.csv", 11*1024*1024), policy())
	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if !errors.Is(err, intake.ErrSizeExceeded) {
		t.Fatalf("expected ErrSizeExceeded in chain")
	}
	if !strings.Contains(rej.Error(), "limit") {
		t.Fatalf("message should mention the limit: %q", rej.Error())
	}
	if w.Phase() != PhaseIdle {
		t.Fatalf("phase = %s, want idle", w.Phase())
	}
	if a.calls.Load() != 0 {
		t.Fatalf("no network call expected, got %d", a.calls.Load())
	}
}

func TestSubmitServerFailureScenario(t *testing.T) {
	a := newFake(nil, &client.ServiceError{StatusCode: 500, Detail: "parser crashed"})
	w := New(a)
	p, err := w.Submit(context.Background(), file("x.csv", 10), policy())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	close(a.release)
	s := waitResolved(t, p)
	failed, ok := s.(Failed)
	if !ok || failed.Message != "parser crashed" {
		t.Fatalf("expected Failed(parser crashed), got %#v", s)
	}
	if _, err := p.Wait(); err == nil {
		t.Fatalf("Pending should expose the raw error")
	}
}

func TestOnlyOneTransferInFlight(t *testing.T) {
	a := newFake(&report.DataProfileReport{}, nil)
	w := New(a)
	p, err := w.Submit(context.Background(), file("a.csv", 10), policy())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := w.Submit(context.Background(), file("b.csv", 10), policy()); !errors.Is(err, ErrBusy) {
			t.Fatalf("expected ErrBusy, got %v", err)
		}
	}
	close(a.release)
	waitResolved(t, p)
	if got := a.calls.Load(); got != 1 {
		t.Fatalf("analyzer invoked %d times, want 1", got)
	}
}

func TestResetFromSucceeded(t *testing.T) {
	a := newFake(&report.DataProfileReport{}, nil)
	close(a.release)
	w := New(a)
	p, err := w.Submit(context.Background(), file("a.csv", 10), policy())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitResolved(t, p)
	if err := w.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, ok := w.State().(Idle); !ok {
		t.Fatalf("expected Idle, got %#v", w.State())
	}
}

func TestNewSelectionAfterFailureResetsImplicitly(t *testing.T) {
	a := newFake(nil, errors.New("down"))
	close(a.release)
	w := New(a, WithIDs(seqIDs()))
	p1, err := w.Submit(context.Background(), file("a.csv", 10), policy())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if waitResolved(t, p1).Phase() != PhaseFailed {
		t.Fatalf("expected failure")
	}
	a.err = nil
	a.rep = &report.DataProfileReport{}
	p2, err := w.Submit(context.Background(), file("b.csv", 10), policy())
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	s := waitResolved(t, p2)
	if s.Phase() != PhaseSucceeded || s.SessionID() != "s2" {
		t.Fatalf("expected new succeeded session s2, got %#v", s)
	}
	if a.calls.Load() != 2 {
		t.Fatalf("expected one call per cycle, got %d", a.calls.Load())
	}
}

func TestResetDuringTransferIsRefused(t *testing.T) {
	a := newFake(&report.DataProfileReport{}, nil)
	w := New(a)
	p, err := w.Submit(context.Background(), file("a.csv", 10), policy())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := w.Reset(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	close(a.release)
	if waitResolved(t, p).Phase() != PhaseSucceeded {
		t.Fatalf("transfer should still complete")
	}
}

func TestTransferIgnoresCallerCancellation(t *testing.T) {
	a := newFake(&report.DataProfileReport{}, nil)
	w := New(a)
	ctx, cancel := context.WithCancel(context.Background())
	p, err := w.Submit(ctx, file("a.csv", 10), policy())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	cancel()
	close(a.release)
	if waitResolved(t, p).Phase() != PhaseSucceeded {
		t.Fatalf("cancelling the caller must not abort the transfer")
	}
}

func TestRejectedSelectionKeepsDisplayedResult(t *testing.T) {
	rep := &report.DataProfileReport{FileName: "a.csv"}
	a := newFake(rep, nil)
	close(a.release)
	var changes atomic.Int32
	w := New(a, WithIDs(seqIDs()), OnChange(func(_, _ State) { changes.Add(1) }))
	p, err := w.Submit(context.Background(), file("a.csv", 10), policy())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitResolved(t, p)
	before := changes.Load()

	_, err = w.Submit(context.Background(), file("b.exe", 10), policy())
	var rej *RejectedError
	if !errors.As(err, &rej) || !errors.Is(err, intake.ErrUnsupportedType) {
		t.Fatalf("expected unsupported-type rejection, got %v", err)
	}
	s, ok := w.State().(Succeeded)
	if !ok || s.Report != rep || s.SessionID() != "s1" {
		t.Fatalf("expected the s1 result to survive, got %#v", w.State())
	}
	if changes.Load() != before {
		t.Fatalf("rejection must not emit transitions")
	}
	if a.calls.Load() != 1 {
		t.Fatalf("analyzer invoked %d times, want 1", a.calls.Load())
	}
}

func TestRejectedSelectionKeepsFailure(t *testing.T) {
	a := newFake(nil, errors.New("down"))
	close(a.release)
	w := New(a)
	p, err := w.Submit(context.Background(), file("a.csv", 10), policy())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := waitResolved(t, p)
	if _, err := w.Submit(context.Background(), file("big.csv", 11*1024*1024), policy()); !errors.Is(err, intake.ErrSizeExceeded) {
		t.Fatalf("expected size rejection, got %v", err)
	}
	if got := w.State(); got != want {
		t.Fatalf("state changed: got %#v, want %#v", got, want)
	}
}

func TestBusyTakesPrecedenceOverRejection(t *testing.T) {
	a := newFake(&report.DataProfileReport{}, nil)
	w := New(a)
	p, err := w.Submit(context.Background(), file("a.csv", 10), policy())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := w.Submit(context.Background(), file("b.exe", 10), policy()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(a.release)
	waitResolved(t, p)
}
