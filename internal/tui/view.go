package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xaenox/supportlens/internal/dashboard"
	"github.com/xaenox/supportlens/internal/models"
)

const barWidth = 24

// View implements tea.Model.
func (model Model) View() string {
	sections := []string{
		model.renderHeader(),
		model.renderAnalytics(),
		model.renderTabs(),
		model.search.View(),
	}
	if model.view.Err != "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(model.theme.ErrorText).
			Render("⚠ "+model.view.Err))
	}
	sections = append(sections, model.renderTraces(), model.renderHelp())
	return strings.Join(sections, "\n\n")
}

func (model Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(model.theme.Accent).
		Render("SupportLens")
	subtitle := lipgloss.NewStyle().
		Foreground(model.theme.FaintText).
		Render(" · conversation observability")

	status := ""
	if model.view.Refreshing {
		status = "  " + model.spinner.View() + " refreshing"
	}
	return title + subtitle + status
}

func (model Model) renderAnalytics() string {
	analytics := model.view.Analytics
	if analytics == nil {
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("No analytics yet")
	}

	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	summary := fmt.Sprintf("%s %d   %s %s",
		faint.Render("Total traces"), analytics.TotalTraces,
		faint.Render("Avg response"), dashboard.FormatLatency(analytics.AvgResponseTimeMS))

	lines := []string{summary}
	for _, s := range model.view.Breakdown.Stats {
		lines = append(lines, model.renderStat(string(s.Category), s))
	}
	for _, s := range model.view.Breakdown.Unclassified {
		lines = append(lines, model.renderStat("Unclassified: "+string(s.Category), s))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(model.theme.Border).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func (model Model) renderStat(label string, s models.CategoryStat) string {
	color := model.theme.CategoryColor(s.Category)
	filled := int(math.Round(s.Percentage / 100 * barWidth))
	filled = min(max(filled, 0), barWidth)

	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(model.theme.Border).Render(strings.Repeat("░", barWidth-filled))
	name := lipgloss.NewStyle().Foreground(color).Width(26).Render(label)
	return fmt.Sprintf("%s %s %4d  %s", name, bar, s.Count, dashboard.FormatPercentage(s.Percentage))
}

func (model Model) renderTabs() string {
	tabs := make([]string, len(model.tabs))
	for i, c := range model.tabs {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(model.theme.FaintText)
		if i == model.tab {
			style = style.
				Bold(true).
				Foreground(model.theme.SelectedForeground).
				Background(model.theme.Accent)
		}
		tabs[i] = style.Render(string(c))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (model Model) renderTraces() string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	if model.view.Loading {
		return model.spinner.View() + faint.Render(" Loading traces…")
	}
	if len(model.view.Traces) == 0 {
		return faint.Render("No traces found")
	}

	textWidth := max(model.width-42, 20)
	rows := make([]string, 0, len(model.view.Traces))
	for i, t := range model.view.Traces {
		badge := lipgloss.NewStyle().
			Foreground(model.theme.CategoryColor(t.Category)).
			Width(16).
			Render(string(t.Category))
		row := fmt.Sprintf("%-12s %s %7s  %s",
			dashboard.FormatTimestamp(t.Timestamp.Time),
			badge,
			dashboard.FormatLatency(float64(t.ResponseTimeMS)),
			dashboard.Truncate(t.UserMessage, min(textWidth, dashboard.TruncateLimit)))

		if i == model.cursor {
			row = lipgloss.NewStyle().
				Background(model.theme.SelectedBackground).
				Foreground(model.theme.SelectedForeground).
				Render(row)
		}
		rows = append(rows, row)

		if t.ID == model.expanded {
			rows = append(rows, model.renderDetail(t))
		}
	}
	return strings.Join(rows, "\n")
}

func (model Model) renderDetail(t models.Trace) string {
	label := lipgloss.NewStyle().Bold(true).Foreground(model.theme.FaintText)
	body := lipgloss.NewStyle().Width(max(model.width-8, 20))
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(model.theme.CategoryColor(t.Category)).
		PaddingLeft(1).
		MarginLeft(2).
		Render(strings.Join([]string{
			label.Render("USER MESSAGE"),
			body.Render(t.UserMessage),
			label.Render("BOT RESPONSE"),
			body.Render(t.BotResponse),
		}, "\n"))
}

func (model Model) renderHelp() string {
	var parts []string
	for _, b := range model.keys.helpBindings() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(strings.Join(parts, " · "))
}
