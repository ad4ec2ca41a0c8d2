package workflow

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/datasage-cli/internal/intake"
	"github.com/KaramelBytes/datasage-cli/internal/report"
)

func TestReduceTransitions(t *testing.T) {
	f := intake.NewFileHandle("a.csv", 1, "", nil)
	rep := &report.DataProfileReport{ID: "r"}
	cases := []struct {
		name string
		from State
		ev   Event
		want Phase
		err  error
	}{
		{"idle picks", Idle{}, Picked{ID: "s1", File: f}, PhaseValidating, nil},
		{"validating accepts", Validating{ID: "s1", File: f}, Accepted{}, PhaseTransferring, nil},
		{"validating rejects", Validating{ID: "s1", File: f}, Rejected{Reason: "x"}, PhaseIdle, nil},
		{"transfer resolves", Transferring{ID: "s1", File: f}, Resolved{ID: "s1", Report: rep}, PhaseSucceeded, nil},
		{"transfer errors", Transferring{ID: "s1", File: f}, Errored{ID: "s1", Message: "boom"}, PhaseFailed, nil},
		{"succeeded resets", Succeeded{ID: "s1", Report: rep}, Reset{}, PhaseIdle, nil},
		{"failed resets", Failed{ID: "s1", Message: "boom"}, Reset{}, PhaseIdle, nil},
		{"idle resets", Idle{}, Reset{}, PhaseIdle, nil},
		{"succeeded picks new file", Succeeded{ID: "s1", Report: rep}, Picked{ID: "s2", File: f}, PhaseValidating, nil},
		{"failed picks new file", Failed{ID: "s1"}, Picked{ID: "s2", File: f}, PhaseValidating, nil},
		{"pick while transferring", Transferring{ID: "s1", File: f}, Picked{ID: "s2", File: f}, PhaseTransferring, ErrBusy},
		{"pick while validating", Validating{ID: "s1", File: f}, Picked{ID: "s2", File: f}, PhaseValidating, ErrBusy},
		{"reset while transferring", Transferring{ID: "s1", File: f}, Reset{}, PhaseTransferring, ErrInvalidTransition},
		{"stale resolution", Transferring{ID: "s2", File: f}, Resolved{ID: "s1", Report: rep}, PhaseTransferring, ErrInvalidTransition},
		{"resolve in idle", Idle{}, Resolved{ID: "s1", Report: rep}, PhaseIdle, ErrInvalidTransition},
		{"accept in idle", Idle{}, Accepted{}, PhaseIdle, ErrInvalidTransition},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Reduce(tc.from, tc.ev)
			if !errors.Is(err, tc.err) {
				t.Fatalf("err = %v, want %v", err, tc.err)
			}
			if got.Phase() != tc.want {
				t.Fatalf("phase = %s, want %s", got.Phase(), tc.want)
			}
		})
	}
}

func TestReduceFailedCarriesOnlyMessage(t *testing.T) {
	s, err := Reduce(Transferring{ID: "s1"}, Errored{ID: "s1", Message: "parser crashed"})
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	failed, ok := s.(Failed)
	if !ok || failed.Message != "parser crashed" || failed.ID != "s1" {
		t.Fatalf("unexpected state %#v", s)
	}
}

func TestReduceNilReportFails(t *testing.T) {
	s, _ := Reduce(Transferring{ID: "s1"}, Resolved{ID: "s1"})
	if s.Phase() != PhaseFailed {
		t.Fatalf("nil report must not produce Succeeded, got %s", s.Phase())
	}
}

func TestResetDropsEverything(t *testing.T) {
	s, err := Reduce(Succeeded{ID: "s1", Report: &report.DataProfileReport{}}, Reset{})
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if _, ok := s.(Idle); !ok || s.SessionID() != "" {
		t.Fatalf("expected bare Idle, got %#v", s)
	}
}
