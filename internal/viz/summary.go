package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Width(14).Align(lipgloss.Right)
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Width(16)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Padding(1, 2)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// RenderScores renders the per-controller metric scores as a bordered table,
// controllers as columns and metrics as rows.
func RenderScores(scores map[string]map[string]float64) string {
	if len(scores) == 0 {
		return ""
	}

	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	metricSet := make(map[string]bool)
	for _, byMetric := range scores {
		for metric := range byMetric {
			metricSet[metric] = true
		}
	}
	metricNames := make([]string, 0, len(metricSet))
	for metric := range metricSet {
		metricNames = append(metricNames, metric)
	}
	sort.Strings(metricNames)

	var b strings.Builder
	b.WriteString(labelStyle.Render("metric"))
	for _, name := range names {
		b.WriteString(nameStyle.Render(name))
	}
	b.WriteString("\n")

	for _, metric := range metricNames {
		b.WriteString(labelStyle.Render(metric))
		for _, name := range names {
			b.WriteString(valueStyle.Render(fmt.Sprintf("%.4f", scores[name][metric])))
		}
		b.WriteString("\n")
	}

	title := headerStyle.Render("controller comparison")
	return lipgloss.JoinVertical(lipgloss.Left, title, panelStyle.Render(strings.TrimRight(b.String(), "\n")))
}
