package render

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used in transcripts
type Styles struct {
	Header   lipgloss.Style
	Dice     lipgloss.Style
	Bet      lipgloss.Style
	Call     lipgloss.Style
	Result   lipgloss.Style
	Loss     lipgloss.Style
	Winner   lipgloss.Style
	Fallback lipgloss.Style
	Info     lipgloss.Style
}

// NewStyles builds the transcript styles for renderer r
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true),
		Dice: r.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Bet: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Call: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Result: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")),
		Loss: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")),
		Winner: r.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Fallback: r.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true),
		Info: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
	}
}
