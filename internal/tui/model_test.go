package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/datasage-cli/internal/intake"
	"github.com/KaramelBytes/datasage-cli/internal/report"
	"github.com/KaramelBytes/datasage-cli/internal/workflow"
	tea "github.com/charmbracelet/bubbletea"
)

type stubAnalyzer struct {
	release chan struct{}
	rep     *report.DataProfileReport
	err     error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, f intake.FileHandle) (*report.DataProfileReport, error) {
	<-s.release
	return s.rep, s.err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func paste(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s), Paste: true}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// settle runs cmd (and any batched children) until the transfer result shows up.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	deadline := time.After(2 * time.Second)
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		select {
		case <-deadline:
			t.Fatal("transfer did not resolve")
		default:
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case resolvedMsg:
			next, _ := m.Update(msg)
			return next.(Model)
		}
	}
	t.Fatal("no resolution message produced")
	return m
}

func newTestModel(t *testing.T, a workflow.Analyzer) (Model, string) {
	t.Helper()
	dir := t.TempDir()
	wf := workflow.New(a)
	return NewModel(context.Background(), wf, intake.NewSurface(intake.DefaultPolicy()), dir), dir
}

func TestPasteSubmitsAndDisablesSurface(t *testing.T) {
	a := &stubAnalyzer{release: make(chan struct{}), rep: &report.DataProfileReport{FileName: "sales.csv", QualityScore: 91}}
	m, dir := newTestModel(t, a)
	p := writeFile(t, dir, "sales.csv", "a,b\n1,2\n")

	next, cmd := m.Update(paste("'" + p + "'"))
	m = next.(Model)
	if got := m.wf.Phase(); got != workflow.PhaseTransferring {
		t.Fatalf("phase = %v, want transferring", got)
	}
	if !m.surface.Disabled() {
		t.Fatal("surface should be disabled during transfer")
	}
	if !strings.Contains(m.View(), "Analyzing sales.csv") {
		t.Errorf("view missing progress line:\n%s", m.View())
	}

	// A second drop while busy is ignored.
	other := writeFile(t, dir, "other.csv", "x\n1\n")
	next, _ = m.Update(paste(other))
	m = next.(Model)

	close(a.release)
	m = settle(t, m, cmd)
	if got := m.wf.Phase(); got != workflow.PhaseSucceeded {
		t.Fatalf("phase = %v, want succeeded", got)
	}
	if m.surface.Disabled() {
		t.Error("surface should be enabled after resolution")
	}
	if s := m.wf.State().(workflow.Succeeded); s.Report.FileName != "sales.csv" {
		t.Errorf("report for %q, want sales.csv", s.Report.FileName)
	}

	next, _ = m.Update(runes("r"))
	m = next.(Model)
	if got := m.wf.Phase(); got != workflow.PhaseIdle {
		t.Fatalf("after reset phase = %v, want idle", got)
	}
}

func TestRejectedDropStaysLocal(t *testing.T) {
	a := &stubAnalyzer{release: make(chan struct{})}
	m, dir := newTestModel(t, a)
	p := writeFile(t, dir, "notes.pdf", "%PDF")

	next, cmd := m.Update(paste(p))
	m = next.(Model)
	if cmd != nil {
		t.Error("rejected drop should not start a transfer")
	}
	if got := m.wf.Phase(); got != workflow.PhaseIdle {
		t.Fatalf("phase = %v, want idle", got)
	}
	if !strings.HasPrefix(m.surface.Error(), "Unsupported file type.") {
		t.Errorf("surface error = %q", m.surface.Error())
	}
	if !strings.Contains(m.View(), "Unsupported file type.") {
		t.Error("view should show the rejection")
	}
}

func TestDropZoneCapturesLetters(t *testing.T) {
	a := &stubAnalyzer{release: make(chan struct{})}
	m, _ := newTestModel(t, a)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.focus != focusDropZone {
		t.Fatal("tab should focus the drop zone")
	}
	next, _ = m.Update(runes("q"))
	m = next.(Model)
	if m.quitting {
		t.Fatal("q typed into the drop zone should not quit")
	}
	if got := m.drop.Value(); got != "q" {
		t.Errorf("drop zone value = %q, want q", got)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	next, _ = m.Update(runes("q"))
	if !next.(Model).quitting {
		t.Error("q in the picker should quit")
	}
}

func TestDropZoneEnterSubmits(t *testing.T) {
	a := &stubAnalyzer{release: make(chan struct{}), err: context.DeadlineExceeded}
	m, dir := newTestModel(t, a)
	p := writeFile(t, dir, "data.csv", "a\n1\n")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	next, _ = m.Update(runes(p))
	m = next.(Model)
	if !m.surface.Entered() {
		t.Error("typing into the drop zone should mark it hot")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.surface.Entered() || m.drop.Value() != "" {
		t.Error("esc should clear the drop zone")
	}

	next, _ = m.Update(runes(p))
	m = next.(Model)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if got := m.wf.Phase(); got != workflow.PhaseTransferring {
		t.Fatalf("phase = %v, want transferring", got)
	}
	close(a.release)
	m = settle(t, m, cmd)
	f, ok := m.wf.State().(workflow.Failed)
	if !ok {
		t.Fatalf("state = %T, want Failed", m.wf.State())
	}
	if f.Message == "" {
		t.Error("failure should carry a message")
	}
	if !strings.Contains(m.View(), "✗ "+f.Message) {
		t.Error("view should show the failure message")
	}
}
