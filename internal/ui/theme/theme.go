// Package theme holds the colors and styles shared by the views.
package theme

import "github.com/charmbracelet/lipgloss"

var (
	Accent = lipgloss.Color("#FF6600")
	Error  = lipgloss.Color("#FF0000")
	Muted  = lipgloss.Color("#828282")
	Dim    = lipgloss.Color("#666666")

	// DepthColors cycles through these for nested comment bars.
	DepthColors = []lipgloss.Color{
		"#FF6600", // orange
		"#828282", // gray
		"#00BFFF", // deep sky blue
		"#32CD32", // lime green
		"#FFD700", // gold
		"#FF69B4", // hot pink
		"#9370DB", // medium purple
		"#20B2AA", // light sea green
	}

	TitleStyle = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	HintStyle  = lipgloss.NewStyle().Foreground(Muted)
	ErrorStyle = lipgloss.NewStyle().Foreground(Error)
	LabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)

	AuthorStyle = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	MetaStyle   = lipgloss.NewStyle().Foreground(Dim)

	OPBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(Accent).
			Bold(true)

	SelectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#333333"))

	SeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
)

// DepthColor returns the bar color for a nesting level.
func DepthColor(depth int) lipgloss.Color {
	if depth < 0 {
		depth = 0
	}
	return DepthColors[depth%len(DepthColors)]
}
