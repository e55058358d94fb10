package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/xaenox/supportlens/internal/models"
)

// Theme is the dashboard colour palette.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Accent     lipgloss.Color
	ErrorText  lipgloss.Color
	Border     lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	Categories map[models.Category]lipgloss.Color
	// Unknown colours categories outside the known set.
	Unknown lipgloss.Color
}

var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("#e2e8f0"),
	FaintText:          lipgloss.Color("#64748b"),
	Accent:             lipgloss.Color("#6366f1"),
	ErrorText:          lipgloss.Color("#ef4444"),
	Border:             lipgloss.Color("#334155"),
	SelectedBackground: lipgloss.Color("#1e293b"),
	SelectedForeground: lipgloss.Color("#f8fafc"),
	Categories: map[models.Category]lipgloss.Color{
		models.CategoryBilling:        lipgloss.Color("#6366f1"),
		models.CategoryRefund:         lipgloss.Color("#f59e0b"),
		models.CategoryAccountAccess:  lipgloss.Color("#10b981"),
		models.CategoryCancellation:   lipgloss.Color("#ef4444"),
		models.CategoryGeneralInquiry: lipgloss.Color("#3b82f6"),
	},
	Unknown: lipgloss.Color("#94a3b8"),
}

// CategoryColor returns the colour for c, or Unknown when c is not a known category.
func (t Theme) CategoryColor(c models.Category) lipgloss.Color {
	if color, ok := t.Categories[c]; ok {
		return color
	}
	return t.Unknown
}
