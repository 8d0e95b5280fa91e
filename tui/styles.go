package tui

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("63")).Foreground(lipgloss.Color("255")).Padding(0, 1)

	RowNumberStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "245", Dark: "238"})
	AddressStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "15"})
	DetailStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "244"})
	SkippedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "250", Dark: "236"}).Italic(true)
	NeverStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	AwaitingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true) // they spoke last
	StarStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

	StatusBarSuccessStyle = lipgloss.NewStyle().Background(lipgloss.Color("28")).Foreground(lipgloss.Color("255")).Padding(0, 1)
	StatusBarNormalStyle  = lipgloss.NewStyle().Background(lipgloss.Color("235")).Foreground(lipgloss.Color("250")).Padding(0, 1)
	StatusBarErrorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("196")).Foreground(lipgloss.Color("255")).Padding(0, 1)
)
