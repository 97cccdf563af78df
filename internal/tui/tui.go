// Package tui is a terminal front end for playing a match against bots.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
)

const (
	placeholderTurn = "Your move (3x2, reroll 1,3 4x2, call, help)"
	placeholderWait = "Waiting for the other players... 'quit' to exit"
	placeholderDone = "Match over. Enter to exit"
)

// LogMsg appends lines to the game log
type LogMsg struct {
	Lines []string
}

// PromptMsg asks the player for a move. Err explains why the previous
// input was rejected.
type PromptMsg struct {
	Obs game.Observation
	Err string
}

// TableMsg updates the sidebar
type TableMsg struct {
	Round      int
	DiceCounts []int
	Bet        dice.BetIndex
}

// DoneMsg marks the end of the match
type DoneMsg struct {
	Text string
}

// QuitMsg is a custom message to signal quit
type QuitMsg struct{}

// TUIModel is the Bubble Tea model for a local match
type TUIModel struct {
	logger *log.Logger

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// State
	gameLog     []string
	inputs      chan string
	quitting    bool
	done        bool
	focusedPane int // 0 = log, 1 = input

	// Display state
	names      []string
	seat       int
	round      int
	diceCounts []int
	currentBet dice.BetIndex
	prompt     *game.Observation
	inputErr   string

	// Dimensions
	width       int
	height      int
	initialized bool
}

// NewTUIModel creates a model for the player in seat, named by names
func NewTUIModel(names []string, seat int, logger *log.Logger) *TUIModel {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = placeholderWait
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &TUIModel{
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		inputs:      make(chan string, 1),
		focusedPane: 1,
		names:       names,
		seat:        seat,
		currentBet:  dice.NoBet,
	}
}

// Inputs delivers the lines the player submits on their turn
func (m *TUIModel) Inputs() <-chan string { return m.inputs }

// Init initializes the TUI model
func (m *TUIModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages in the TUI
func (m *TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case QuitMsg:
		return m.quit()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case LogMsg:
		m.AddLogEntry(msg.Lines...)

	case PromptMsg:
		obs := msg.Obs
		m.prompt = &obs
		m.inputErr = msg.Err
		m.currentBet = obs.CurrentBet
		m.diceCounts = obs.DiceCounts
		m.round = obs.Round

	case TableMsg:
		m.round = msg.Round
		m.diceCounts = msg.DiceCounts
		m.currentBet = msg.Bet

	case DoneMsg:
		m.done = true
		m.prompt = nil
		m.AddLogEntry("", msg.Text)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m.quit()
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := strings.TrimSpace(m.actionInput.Value())
				m.actionInput.SetValue("")
				if model, cmd, handled := m.submit(input); handled {
					return model, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles a line entered in the input pane
func (m *TUIModel) submit(input string) (tea.Model, tea.Cmd, bool) {
	switch strings.ToLower(input) {
	case "quit", "exit":
		model, cmd := m.quit()
		return model, cmd, true
	}
	if m.done {
		model, cmd := m.quit()
		return model, cmd, true
	}
	if m.prompt == nil {
		return m, nil, false
	}

	select {
	case m.inputs <- input:
		m.prompt = nil
		m.inputErr = ""
	default:
		m.logger.Warn("Dropped input, previous move still pending", "input", input)
	}
	return m, nil, false
}

func (m *TUIModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Sequence(tea.ClearScreen, tea.Quit)
}

// Quitting reports whether the player asked to leave
func (m *TUIModel) Quitting() bool { return m.quitting }

// View renders the TUI
func (m *TUIModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.SetContent(m.renderLogPane())
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *TUIModel) renderLogPane() string {
	return strings.Join(m.gameLog, "\n")
}

func (m *TUIModel) renderSidebarPane() string {
	var content strings.Builder

	content.WriteString(RoundStyle.Render(fmt.Sprintf(" Round %d ", m.round)))
	content.WriteString("\n")
	content.WriteString(BetStyle.Render("Bet: " + m.currentBet.String()))
	content.WriteString("\n\n")

	content.WriteString(MutedStyle.Render("Players:"))
	content.WriteString("\n")
	for i, name := range m.names {
		count := 0
		if i < len(m.diceCounts) {
			count = m.diceCounts[i]
		}
		line := fmt.Sprintf("  %s: %d", name, count)
		if i == m.seat {
			line += " (you)"
		}
		if count == 0 && m.diceCounts != nil {
			content.WriteString(OutStyle.Render(line))
		} else {
			content.WriteString(PlayerStyle.Render(line))
		}
		content.WriteString("\n")
	}
	return content.String()
}

func (m *TUIModel) renderActionPane() string {
	var content strings.Builder

	switch {
	case m.prompt != nil:
		content.WriteString(HandStyle.Render("Your dice: "))
		content.WriteString(formatHand(m.prompt.Dice, m.prompt.Locked))
		content.WriteString("\n")
		content.WriteString(m.renderAvailableActions(*m.prompt))
		content.WriteString("\n")
		if m.inputErr != "" {
			content.WriteString(ErrorStyle.Render(m.inputErr))
			content.WriteString("\n")
		}
		m.actionInput.Placeholder = placeholderTurn
	case m.done:
		content.WriteString(HandStyle.Render("Match over"))
		content.WriteString("\n")
		m.actionInput.Placeholder = placeholderDone
	default:
		content.WriteString(HandStyle.Render("Waiting..."))
		content.WriteString("\n")
		m.actionInput.Placeholder = placeholderWait
	}

	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	help := "Tab to scroll log • Ctrl+C to quit"
	if m.focusedPane == 0 {
		help = "Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"
	}
	content.WriteString(MutedStyle.Render(help))
	return content.String()
}

func (m *TUIModel) renderAvailableActions(obs game.Observation) string {
	var actions []string
	if obs.CanRaise() {
		next := obs.CurrentBet + 1
		actions = append(actions, fmt.Sprintf("[bet %s or higher]", next))
		if obs.CanCall() && len(obs.UnlockedDice()) > 0 {
			actions = append(actions, "[reroll]")
		}
	}
	if obs.CanCall() {
		actions = append(actions, fmt.Sprintf("[call %s]", obs.CurrentBet))
	}
	return ActionsStyle.Render("Actions: " + strings.Join(actions, " "))
}

// formatHand shows the player's dice, locked dice in parentheses
func formatHand(faces []dice.Face, locked []bool) string {
	parts := make([]string, len(faces))
	for i, f := range faces {
		s := f.String()
		switch {
		case i < len(locked) && locked[i]:
			s = LockedDieStyle.Render("(" + s + ")")
		case f.IsWild():
			s = WildDieStyle.Render(s)
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// AddLogEntry adds entries to the game log and scrolls to the bottom
func (m *TUIModel) AddLogEntry(entries ...string) {
	m.gameLog = append(m.gameLog, entries...)
	m.logViewport.SetContent(m.renderLogPane())
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// GameLog returns a copy of the game log
func (m *TUIModel) GameLog() []string {
	out := make([]string, len(m.gameLog))
	copy(out, m.gameLog)
	return out
}
