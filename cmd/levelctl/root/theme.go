package root

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	cPrimary = lipgloss.Color("63")
	cGood    = lipgloss.Color("42")
	cWarn    = lipgloss.Color("214")
	cBad     = lipgloss.Color("196")
	cMuted   = lipgloss.Color("244")
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Key   = lipgloss.NewStyle().Bold(true)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
)

func labelValue(label string, value interface{}) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}
