// Package render turns match events into a human readable transcript.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
)

// AllHands is the viewer that sees every player's dice.
const AllHands = -1

// Transcript writes match events to w as they are published. It is a
// game.EventSubscriber and holds no match state of its own.
type Transcript struct {
	w        io.Writer
	names    []string
	viewer   int
	renderer *lipgloss.Renderer
	styles   Styles
	err      error
}

// Option configures a Transcript.
type Option func(*Transcript)

// WithViewer hides every hand except viewer's until dice are revealed at a
// call. Locked dice are always shown.
func WithViewer(player int) Option {
	return func(t *Transcript) { t.viewer = player }
}

// WithColorProfile forces a color profile instead of detecting one from w.
// termenv.Ascii disables styling entirely.
func WithColorProfile(profile termenv.Profile) Option {
	return func(t *Transcript) { t.renderer.SetColorProfile(profile) }
}

// New creates a transcript writing to w. names labels players by id;
// missing names fall back to "player N".
func New(w io.Writer, names []string, opts ...Option) *Transcript {
	t := &Transcript{
		w:        w,
		names:    names,
		viewer:   AllHands,
		renderer: lipgloss.NewRenderer(w),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.styles = NewStyles(t.renderer)
	return t
}

// Err returns the first write error, if any.
func (t *Transcript) Err() error { return t.err }

// OnEvent implements game.EventSubscriber.
func (t *Transcript) OnEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.RoundStartEvent:
		t.roundStart(e)
	case game.ActionEvent:
		t.action(e)
	case game.RoundResultEvent:
		t.roundResult(e.Record)
	case game.MatchOverEvent:
		t.println(t.styles.Winner.Render(fmt.Sprintf("%s wins after %d %s!",
			t.Name(e.Result.Winner), e.Result.Rounds, plural(e.Result.Rounds, "round", "rounds"))))
	}
}

// WriteRound writes a closed round in full, as kept in the match history.
func (t *Transcript) WriteRound(record game.RoundRecord) {
	t.println(t.styles.Header.Render(fmt.Sprintf(" Round %d ", record.Number)))
	for p, hand := range record.Hands {
		if len(hand) > 0 {
			t.println(fmt.Sprintf("  %s: %s", t.Name(p), t.styles.Dice.Render(dice.FormatFaces(hand))))
		}
	}
	for _, entry := range record.Log {
		if entry.Kind == game.EntryRoundResult {
			continue
		}
		t.println(t.FormatEntry(entry))
	}
	t.roundResult(record)
}

// Name returns the display name for player.
func (t *Transcript) Name(player int) string {
	if player >= 0 && player < len(t.names) && t.names[player] != "" {
		return t.names[player]
	}
	return fmt.Sprintf("player %d", player)
}

// FormatEntry formats a single log entry without styling.
func (t *Transcript) FormatEntry(entry game.LogEntry) string {
	name := t.Name(entry.Player)
	switch entry.Kind {
	case game.EntryBet:
		return fmt.Sprintf("%s bets %s", name, entry.Bet)
	case game.EntryRerollBet:
		locked := 0
		for _, l := range entry.Locked {
			if l {
				locked++
			}
		}
		return fmt.Sprintf("%s locks %d, rerolls the rest and bets %s", name, locked, entry.Bet)
	case game.EntryCall:
		return fmt.Sprintf("%s calls %s", name, entry.Bet)
	case game.EntryRoundResult:
		return t.formatResult(*entry.Result)
	}
	return entry.String()
}

func (t *Transcript) formatResult(r game.RoundResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "There are actually %d x %s. ", r.ActualCount, r.Face)
	if r.Loser == game.NoLoser {
		fmt.Fprintf(&b, "Exact! Everyone but %s loses a die.", t.Name(r.Bettor))
	} else {
		fmt.Fprintf(&b, "%s loses %d %s.", t.Name(r.Loser), r.DiceLost, plural(r.DiceLost, "die", "dice"))
	}
	return b.String()
}

func (t *Transcript) roundStart(e game.RoundStartEvent) {
	t.println("")
	t.println(t.styles.Header.Render(fmt.Sprintf(" Round %d ", e.Round)))
	t.println(t.styles.Info.Render(fmt.Sprintf("%s starts, %d dice in play",
		t.Name(e.Starter), sum(e.DiceCounts))))
	for _, p := range e.TurnOrder {
		if t.visible(p) {
			t.println(fmt.Sprintf("  %s: %s", t.Name(p), t.styles.Dice.Render(dice.FormatFaces(e.Hands[p]))))
		} else {
			t.println(fmt.Sprintf("  %s: %d %s", t.Name(p), e.DiceCounts[p], plural(e.DiceCounts[p], "die", "dice")))
		}
	}
}

func (t *Transcript) action(e game.ActionEvent) {
	line := t.FormatEntry(e.Entry)
	switch e.Entry.Kind {
	case game.EntryCall:
		line = t.styles.Call.Render(line)
	default:
		line = t.styles.Bet.Render(line)
	}
	if e.Fallback {
		line += " " + t.styles.Fallback.Render("(fallback)")
	}
	t.println(line)

	if e.Entry.Kind == game.EntryRerollBet && t.visible(e.Entry.Player) {
		t.println(fmt.Sprintf("  %s now holds %s", t.Name(e.Entry.Player), t.styles.Dice.Render(dice.FormatFaces(e.Hand))))
	}
}

func (t *Transcript) roundResult(record game.RoundRecord) {
	for p, hand := range record.Hands {
		if len(hand) > 0 && !t.visible(p) {
			t.println(fmt.Sprintf("  %s had %s", t.Name(p), t.styles.Dice.Render(dice.FormatFaces(hand))))
		}
	}
	t.println(t.styles.Result.Render(t.formatResult(record.Result)))
	for _, p := range record.Result.Eliminated {
		t.println(t.styles.Loss.Render(fmt.Sprintf("%s is out of dice.", t.Name(p))))
	}
}

func (t *Transcript) visible(player int) bool {
	return t.viewer == AllHands || t.viewer == player
}

func (t *Transcript) println(s string) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintln(t.w, s)
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

var _ game.EventSubscriber = (*Transcript)(nil)
