package profiler

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/datasage-cli/internal/report"
)

const (
	attentionNullPct   = 10.0
	moderateNullPct    = 5.0
	wideTableColumns   = 10
	maxRecommendations = 5
)

// Insights is the narrative part of a report.
type Insights struct {
	Text            string
	QualityScore    float64
	Recommendations []string
}

// Insighter produces insights for a profiled table. The reference service
// uses Heuristic; a model-backed implementation can be swapped in.
type Insighter interface {
	Insights(rows int, cols []report.ColumnProfile) (Insights, error)
}

// Heuristic derives insights from null rates alone.
type Heuristic struct{}

func (Heuristic) Insights(rows int, cols []report.ColumnProfile) (Insights, error) {
	var total float64
	for _, c := range cols {
		total += c.NullPercentage
	}
	var avg float64
	if len(cols) > 0 {
		avg = total / float64(len(cols))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Your dataset contains %d rows and %d columns. ", rows, len(cols))
	switch {
	case avg > attentionNullPct:
		fmt.Fprintf(&sb, "Data quality needs attention - average null rate is %.1f%%.", avg)
	case avg > moderateNullPct:
		sb.WriteString("Data quality is moderate with some missing values.")
	default:
		sb.WriteString("Data quality is excellent with minimal missing values.")
	}

	var recs []string
	for _, c := range cols {
		if c.NullPercentage > attentionNullPct {
			recs = append(recs, fmt.Sprintf("Column '%s' has %.1f%% missing values - consider imputation or investigation", c.Name, c.NullPercentage))
		}
	}
	if len(recs) == 0 {
		recs = append(recs,
			"Data appears clean - proceed with analysis",
			"Consider checking for outliers in numeric columns",
		)
	}
	if len(cols) > wideTableColumns {
		recs = append(recs, "Large number of columns - consider dimensionality reduction")
	}
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}

	return Insights{
		Text:            sb.String(),
		QualityScore:    round(max(0, 100-avg*2), 1),
		Recommendations: recs,
	}, nil
}
