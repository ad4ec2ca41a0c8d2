// Package render derives display-only aggregates from a DataProfileReport and
// formats it for the terminal or for export. Nothing here mutates the report.
package render

import (
	"fmt"
	"strconv"

	"github.com/KaramelBytes/datasage-cli/internal/report"
)

// Missing-value thresholds, in percent.
const (
	HighMissingAbove   = 20.0
	MediumMissingAbove = 5.0
)

// Quality-score thresholds.
const (
	GoodScoreFrom     = 80.0
	ModerateScoreFrom = 60.0
)

// PreviewLimit caps the sample values shown per column.
const PreviewLimit = 3

// Severity buckets a column's missing-value rate.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Tier buckets the overall quality score.
type Tier string

const (
	TierGood     Tier = "good"
	TierModerate Tier = "moderate"
	TierPoor     Tier = "poor"
)

// Completeness is the share of non-null cells, in percent. It is 0 for an
// empty table.
func Completeness(r *report.DataProfileReport) float64 {
	if r == nil {
		return 0
	}
	cells := r.RowCount * r.ColumnCount
	if cells <= 0 {
		return 0
	}
	nulls := 0
	for _, c := range r.Columns {
		nulls += c.NullCount
	}
	pct := 100 * float64(cells-nulls) / float64(cells)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// ColumnSeverity classifies a null percentage.
func ColumnSeverity(nullPercentage float64) Severity {
	switch {
	case nullPercentage > HighMissingAbove:
		return SeverityHigh
	case nullPercentage > MediumMissingAbove:
		return SeverityMedium
	}
	return SeverityLow
}

// QualityTier classifies a quality score.
func QualityTier(score float64) Tier {
	switch {
	case score >= GoodScoreFrom:
		return TierGood
	case score >= ModerateScoreFrom:
		return TierModerate
	}
	return TierPoor
}

// Preview returns up to PreviewLimit formatted values and how many were left out.
func Preview(values []any) (shown []string, overflow int) {
	n := len(values)
	if n > PreviewLimit {
		overflow = n - PreviewLimit
		n = PreviewLimit
	}
	shown = make([]string, 0, n)
	for _, v := range values[:n] {
		shown = append(shown, FormatValue(v))
	}
	return shown, overflow
}

// FormatValue renders one sample value. nil renders as "null".
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprint(v)
}
