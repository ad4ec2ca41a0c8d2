package render

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/datasage-cli/internal/report"
	"github.com/KaramelBytes/datasage-cli/internal/utils"
	"gopkg.in/yaml.v3"
)

// Formats accepted by Export.
const (
	FormatMarkdown = "md"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// Export renders r in the named format.
func Export(r *report.DataProfileReport, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatMarkdown, "markdown":
		return []byte(Markdown(r)), nil
	case FormatJSON:
		return utils.PrettyJSON(r)
	case FormatYAML, "yml":
		b, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unsupported format: %s (use md|json|yaml)", format)
}

// Markdown renders a compact, plain-text report.
func Markdown(r *report.DataProfileReport) string {
	var b strings.Builder
	b.WriteString("[DATA PROFILE]\n")
	b.WriteString(fmt.Sprintf("File: %s\n", r.FileName))
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.RowCount))
	b.WriteString(fmt.Sprintf("Columns: %d\n", r.ColumnCount))
	b.WriteString(fmt.Sprintf("Completeness: %.1f%%\n", Completeness(r)))
	b.WriteString(fmt.Sprintf("Quality score: %.0f (%s)\n", r.QualityScore, QualityTier(r.QualityScore)))
	if !r.CreatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Analyzed: %s\n", r.CreatedAt.UTC().Format("2006-01-02 15:04:05Z")))
	}

	b.WriteString("\n[COLUMNS]\n")
	for _, c := range r.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s (missing %.1f%%, %s; unique %d)",
			safeCell(c.Name), c.Dtype, c.NullPercentage, ColumnSeverity(c.NullPercentage), c.UniqueCount))
		if shown, more := Preview(c.SampleValues); len(shown) > 0 {
			for i := range shown {
				shown[i] = safeCell(shown[i])
			}
			b.WriteString(" — e.g., ")
			b.WriteString(strings.Join(shown, " | "))
			if more > 0 {
				b.WriteString(fmt.Sprintf(" (+%d more)", more))
			}
		}
		b.WriteString("\n")
	}

	if s := strings.TrimSpace(r.AIInsights); s != "" {
		b.WriteString("\n[AI INSIGHTS]\n")
		b.WriteString(s)
		b.WriteString("\n")
	}
	if len(r.Recommendations) > 0 {
		b.WriteString("\n[RECOMMENDATIONS]\n")
		for i, rec := range r.Recommendations {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, rec))
		}
	}
	return b.String()
}

func safeCell(s string) string { return strings.ReplaceAll(s, "\n", " ") }
