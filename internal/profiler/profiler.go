package profiler

import (
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/datasage-cli/internal/report"
)

// ErrUnreadable wraps failures to read the uploaded table. These are the
// caller's fault, as opposed to failures generating insights.
var ErrUnreadable = errors.New("unreadable table")

// Profiler turns uploaded bytes into a complete report.
type Profiler struct {
	opt       Options
	insighter Insighter
	now       func() time.Time
}

// New returns a profiler using the heuristic insighter.
func New(opt Options) *Profiler {
	if opt.SampleValues == 0 {
		opt.SampleValues = DefaultOptions().SampleValues
	}
	return &Profiler{opt: opt, insighter: Heuristic{}, now: time.Now}
}

// WithInsighter swaps the insight generator.
func (p *Profiler) WithInsighter(in Insighter) *Profiler {
	p.insighter = in
	return p
}

// Analyze profiles content named name. The caller assigns the report ID.
func (p *Profiler) Analyze(name string, content []byte) (*report.DataProfileReport, error) {
	t, err := ReadTable(name, content, p.opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	cols := Columns(t, p.opt.SampleValues)
	in, err := p.insighter.Insights(len(t.Rows), cols)
	if err != nil {
		return nil, fmt.Errorf("generate insights: %w", err)
	}
	return &report.DataProfileReport{
		FileName:        name,
		RowCount:        len(t.Rows),
		ColumnCount:     len(cols),
		Columns:         cols,
		AIInsights:      in.Text,
		QualityScore:    in.QualityScore,
		Recommendations: in.Recommendations,
		CreatedAt:       report.NewTimestamp(p.now()),
	}, nil
}
