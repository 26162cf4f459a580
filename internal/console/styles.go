package console

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
)

var (
	colorTitle    = lipgloss.Color("#7aa2f7")
	colorPositive = lipgloss.Color("#9ece6a")
	colorActive   = lipgloss.Color("#7dcfff")
	colorWarn     = lipgloss.Color("#e0af68")
	colorError    = lipgloss.Color("#f7768e")
	colorBorder   = lipgloss.Color("#3b4261")
	colorFg       = lipgloss.Color("#c0caf5")
	colorDim      = lipgloss.Color("#565f89")
	colorSelBg    = lipgloss.Color("#283457")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTitle).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)
	tabStyle       = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(colorFg).Background(colorSelBg).Padding(0, 1)
	dimStyle       = lipgloss.NewStyle().Foreground(colorDim)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	noticeStyle    = lipgloss.NewStyle().Foreground(colorPositive)
	promptStyle    = lipgloss.NewStyle().Foreground(colorActive)
	cardStyle      = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(30)
	cardValueStyle = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
)

func toneColor(t types.Tone) lipgloss.Color {
	switch t {
	case types.TonePositive:
		return colorPositive
	case types.ToneSecondary:
		return colorActive
	case types.ToneDestructive:
		return colorError
	default:
		return colorDim
	}
}

// callStatusBadge renders s in its tone; statuses the upstream does not
// document keep their raw text and are marked unrecognized
func callStatusBadge(s types.CallStatus) string {
	label := string(s)
	if !s.Known() {
		label += " (unrecognized)"
	}
	return lipgloss.NewStyle().Foreground(toneColor(s.Tone())).Render(label)
}

func agentStatusColor(s types.AgentStatus) lipgloss.Color {
	switch s {
	case types.StatusAvailable:
		return colorPositive
	case types.StatusOnCall:
		return colorActive
	case types.StatusUnavailable:
		return colorWarn
	default:
		return colorDim
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(colorFg)
	s.Selected = s.Selected.
		Foreground(colorFg).
		Background(colorSelBg).
		Bold(false)
	return s
}
