package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/chukul/daintree/internal/notify"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	quitTextStyle  = lipgloss.NewStyle().Margin(1, 0, 2, 2)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
	drawerStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	emptyTextStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
)

var variantColors = map[notify.Variant]lipgloss.Color{
	notify.Info:    lipgloss.Color("39"),
	notify.Danger:  lipgloss.Color("196"),
	notify.Tip:     lipgloss.Color("141"),
	notify.Warning: lipgloss.Color("214"),
	notify.Success: lipgloss.Color("42"),
}

func notificationStyle(v notify.Variant) lipgloss.Style {
	c, ok := variantColors[v]
	if !ok {
		c = variantColors[notify.Info]
	}
	return lipgloss.NewStyle().Foreground(c)
}
