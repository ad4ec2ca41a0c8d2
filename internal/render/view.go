package render

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/datasage-cli/internal/report"
	"github.com/charmbracelet/lipgloss"
)

// View renders r as styled terminal output.
func View(r *report.DataProfileReport) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Data Profile · " + r.FileName))
	b.WriteString("\n")

	tier := QualityTier(r.QualityScore)
	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Rows", fmt.Sprintf("%d", r.RowCount), StatValueStyle),
		statBox("Columns", fmt.Sprintf("%d", r.ColumnCount), StatValueStyle),
		statBox("Completeness", fmt.Sprintf("%.1f%%", Completeness(r)), StatValueStyle),
		statBox("Quality", fmt.Sprintf("%.0f · %s", r.QualityScore, tier), StatValueStyle.Inherit(TierStyle(tier))),
	)
	b.WriteString(stats)
	b.WriteString("\n\n")

	var cols strings.Builder
	for _, c := range r.Columns {
		sev := ColumnSeverity(c.NullPercentage)
		cols.WriteString(fmt.Sprintf("%s %-10s %s  unique %d",
			LabelStyle.Render(truncate(c.Name, 15)),
			c.Dtype,
			SeverityStyle(sev).Render(fmt.Sprintf("%5.1f%% missing", c.NullPercentage)),
			c.UniqueCount,
		))
		if shown, more := Preview(c.SampleValues); len(shown) > 0 {
			line := strings.Join(shown, ", ")
			if more > 0 {
				line += fmt.Sprintf(" +%d", more)
			}
			cols.WriteString("  " + MutedStyle.Render(line))
		}
		cols.WriteString("\n")
	}
	b.WriteString(BoxStyle.Render(strings.TrimRight(cols.String(), "\n")))
	b.WriteString("\n")

	if s := strings.TrimSpace(r.AIInsights); s != "" {
		b.WriteString("\n" + TitleStyle.Render("AI Insights") + "\n")
		b.WriteString(s + "\n")
	}
	if len(r.Recommendations) > 0 {
		b.WriteString("\n" + TitleStyle.Render("Recommendations") + "\n")
		for _, rec := range r.Recommendations {
			b.WriteString(fmt.Sprintf("  • %s\n", rec))
		}
	}
	return b.String()
}

func statBox(label, value string, valueStyle lipgloss.Style) string {
	return StatBoxStyle.Render(StatLabelStyle.Render(label) + "\n" + valueStyle.Render(value))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
