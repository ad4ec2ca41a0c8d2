// Package tui is the interactive upload surface: a file picker plus a drop
// zone that accepts paths pasted (or dragged) into the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/datasage-cli/internal/intake"
	"github.com/KaramelBytes/datasage-cli/internal/render"
	"github.com/KaramelBytes/datasage-cli/internal/workflow"
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type focusArea int

const (
	focusPicker focusArea = iota
	focusDropZone
)

// resolvedMsg arrives when the in-flight transfer settles.
type resolvedMsg struct {
	state workflow.State
}

// Model is a Bubble Tea model driving one workflow.
type Model struct {
	ctx     context.Context
	wf      *workflow.Workflow
	surface *intake.Surface

	picker  filepicker.Model
	drop    textinput.Model
	spinner spinner.Model
	focus   focusArea

	notice   string
	width    int
	height   int
	quitting bool
}

// NewModel builds the model. dir is where the picker starts; empty means the
// working directory.
func NewModel(ctx context.Context, wf *workflow.Workflow, surface *intake.Surface, dir string) Model {
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.ShowSize = true

	ti := textinput.New()
	ti.Placeholder = "drop or paste a file path here"
	ti.Prompt = "⇣ "
	ti.CharLimit = 4096

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = render.TitleStyle.UnsetMarginBottom()

	return Model{
		ctx:     ctx,
		wf:      wf,
		surface: surface,
		picker:  fp,
		drop:    ti,
		spinner: sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.picker.Init()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.drop.Width = max(20, msg.Width-8)

	case resolvedMsg:
		m.surface.SetDisabled(false)
		return m, nil

	case spinner.TickMsg:
		if m.wf.Phase().Busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Directory listings and other picker internals.
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}
	// A drag-and-drop onto the terminal arrives as a bracketed paste.
	if msg.Paste {
		if m.surface.Disabled() {
			return m, nil
		}
		m.surface.Handle(intake.DragEnter{})
		return m.deliver(intake.Drop{Paths: intake.SplitDropPayload(string(msg.Runes))})
	}

	// Letters belong to the drop zone while it has focus.
	typing := m.focus == focusDropZone && m.wf.Phase() != workflow.PhaseSucceeded
	if !typing {
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Reset):
			if p := m.wf.Phase(); p == workflow.PhaseSucceeded || p == workflow.PhaseFailed {
				if err := m.wf.Reset(); err != nil {
					m.notice = err.Error()
				} else {
					m.notice = ""
				}
			}
			return m, nil
		}
	}
	if m.surface.Disabled() {
		return m, nil
	}
	if key.Matches(msg, keys.Focus) {
		return m.toggleFocus(), nil
	}

	if m.focus == focusDropZone {
		return m.updateDropZone(msg)
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		return m.deliver(intake.PickerChange{Paths: []string{path}})
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		return m.deliver(intake.PickerChange{Paths: []string{path}})
	}
	return m, cmd
}

func (m Model) toggleFocus() Model {
	if m.focus == focusPicker {
		m.focus = focusDropZone
		m.drop.Focus()
		return m
	}
	m.focus = focusPicker
	m.drop.Blur()
	m.surface.Handle(intake.DragLeave{})
	return m
}

func (m Model) updateDropZone(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Submit):
		paths := intake.SplitDropPayload(m.drop.Value())
		m.drop.Reset()
		return m.deliver(intake.Drop{Paths: paths})
	case key.Matches(msg, keys.Leave):
		m.drop.Reset()
		m.surface.Handle(intake.DragLeave{})
		return m, nil
	}
	if msg.Type == tea.KeyRunes {
		if m.surface.Entered() {
			m.surface.Handle(intake.DragOver{})
		} else {
			m.surface.Handle(intake.DragEnter{})
		}
	}
	var cmd tea.Cmd
	m.drop, cmd = m.drop.Update(msg)
	return m, cmd
}

// deliver routes a surface event and submits whatever it accepts.
func (m Model) deliver(ev intake.Event) (tea.Model, tea.Cmd) {
	f, ok := m.surface.Handle(ev)
	if !ok {
		return m, nil
	}
	pending, err := m.wf.Submit(m.ctx, f, m.surface.Policy())
	if err != nil {
		var rej *workflow.RejectedError
		if errors.As(err, &rej) {
			m.notice = rej.Message
		} else {
			m.notice = err.Error()
		}
		return m, nil
	}
	m.notice = ""
	m.surface.SetDisabled(true)
	return m, tea.Batch(m.spinner.Tick, waitFor(pending))
}

func waitFor(p *workflow.Pending) tea.Cmd {
	return func() tea.Msg {
		s, _ := p.Wait()
		return resolvedMsg{state: s}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(render.TitleStyle.Render("DataSage · upload a dataset"))
	b.WriteString("\n")

	switch s := m.wf.State().(type) {
	case workflow.Transferring:
		fmt.Fprintf(&b, "%s Analyzing %s (%s)…\n", m.spinner.View(), s.File.Name, humanize.IBytes(uint64(s.File.SizeBytes)))
	case workflow.Succeeded:
		b.WriteString(render.View(s.Report))
		b.WriteString("\n" + helpLine(keys.Reset, keys.Quit))
		return b.String()
	case workflow.Failed:
		b.WriteString(render.BadStyle.Render("✗ "+s.Message) + "\n\n")
		b.WriteString(m.intakeView())
		b.WriteString("\n" + helpLine(keys.Reset, keys.Focus, keys.Quit))
		return b.String()
	default:
		b.WriteString(m.intakeView())
	}
	b.WriteString("\n" + helpLine(keys.Focus, keys.Submit, keys.Leave, keys.Quit))
	return b.String()
}

func (m Model) intakeView() string {
	var b strings.Builder
	pickerStyle, dropStyle := zoneStyle, zoneStyle
	if m.focus == focusPicker {
		pickerStyle = activeZoneStyle
	} else {
		dropStyle = activeZoneStyle
	}
	if m.surface.Entered() {
		dropStyle = hotZoneStyle
	}
	if m.surface.Disabled() {
		pickerStyle, dropStyle = disabledZoneStyle, disabledZoneStyle
	}
	b.WriteString(pickerStyle.Render(m.picker.View()))
	b.WriteString("\n")
	b.WriteString(dropStyle.Render(m.drop.View()))
	b.WriteString("\n")
	b.WriteString(render.MutedStyle.Render(fmt.Sprintf("Accepted: %s · max %s",
		strings.Join(m.surface.Policy().Accept, ", "),
		humanize.IBytes(uint64(m.surface.Policy().MaxSizeBytes)))))
	b.WriteString("\n")
	if e := m.surface.Error(); e != "" {
		b.WriteString(render.BadStyle.Render("✗ "+e) + "\n")
	}
	if m.notice != "" {
		b.WriteString(render.WarnStyle.Render("⚠ "+m.notice) + "\n")
	}
	return b.String()
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " · "))
}

var (
	zoneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6B7280")).
			Padding(0, 1)
	activeZoneStyle   = zoneStyle.BorderForeground(lipgloss.Color("#7C3AED"))
	hotZoneStyle      = zoneStyle.BorderForeground(lipgloss.Color("#10B981")).BorderStyle(lipgloss.DoubleBorder())
	disabledZoneStyle = zoneStyle.Faint(true)
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).MarginTop(1)
)

// Run starts the interactive surface and blocks until the user quits.
func Run(ctx context.Context, wf *workflow.Workflow, surface *intake.Surface, dir string) error {
	p := tea.NewProgram(NewModel(ctx, wf, surface, dir), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
