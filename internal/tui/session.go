package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
	"github.com/marno1d/callmybluff/internal/render"
)

// Session runs the terminal UI for one player while a match is played
type Session struct {
	model   *TUIModel
	program *tea.Program
	human   *Human
	feed    *Feed
	logger  *log.Logger
}

// NewSession creates a session for the player in seat
func NewSession(names []string, seat int, logger *log.Logger, opts ...tea.ProgramOption) *Session {
	model := NewTUIModel(names, seat, logger)
	program := tea.NewProgram(model, opts...)
	return &Session{
		model:   model,
		program: program,
		human:   NewHuman(program, model.Inputs(), logger),
		feed:    NewFeed(program, names, seat),
		logger:  logger.WithPrefix("session"),
	}
}

// Policy returns the policy to seat for the player
func (s *Session) Policy() game.Policy { return s.human }

// Subscriber returns the event subscriber that keeps the UI current
func (s *Session) Subscriber() game.EventSubscriber { return s.feed }

// Run starts the UI and calls play with a context that is cancelled when
// the player quits. It returns once the UI has exited and play has
// returned; ErrQuit reports that the player left before the match ended.
func (s *Session) Run(ctx context.Context, play func(context.Context) (*game.MatchResult, error)) (*game.MatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, s.program.Quit)
	defer stop()

	type outcome struct {
		result *game.MatchResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := play(ctx)
		switch {
		case err == nil:
			s.program.Send(DoneMsg{Text: "Press Enter to exit."})
		case ctx.Err() == nil:
			s.program.Send(DoneMsg{Text: "Match aborted: " + err.Error()})
		}
		done <- outcome{result, err}
	}()

	_, runErr := s.program.Run()
	cancel()
	out := <-done
	if runErr != nil {
		return nil, fmt.Errorf("run tui: %w", runErr)
	}
	if out.err != nil && s.model.Quitting() && errors.Is(out.err, context.Canceled) {
		s.logger.Info("Player left the match")
		return out.result, ErrQuit
	}
	return out.result, out.err
}

// Feed forwards match events to the UI: the transcript goes to the game
// log and the table state to the sidebar.
type Feed struct {
	ui         Sender
	transcript *render.Transcript

	round      int
	diceCounts []int
}

// NewFeed creates a feed showing seat's dice and hiding the others'
func NewFeed(ui Sender, names []string, seat int) *Feed {
	return &Feed{
		ui: ui,
		transcript: render.New(&lineWriter{ui: ui}, names,
			render.WithViewer(seat), render.WithColorProfile(lipgloss.ColorProfile())),
	}
}

// OnEvent implements game.EventSubscriber
func (f *Feed) OnEvent(event game.GameEvent) {
	f.transcript.OnEvent(event)

	switch e := event.(type) {
	case game.RoundStartEvent:
		f.round = e.Round
		f.diceCounts = slices.Clone(e.DiceCounts)
		f.send(dice.NoBet)
	case game.ActionEvent:
		if e.Entry.Kind == game.EntryBet || e.Entry.Kind == game.EntryRerollBet {
			f.send(e.Entry.Bet)
		}
	case game.RoundResultEvent:
		f.diceCounts = slices.Clone(e.Record.DiceAfter)
		f.send(dice.NoBet)
	}
}

func (f *Feed) send(bet dice.BetIndex) {
	f.ui.Send(TableMsg{Round: f.round, DiceCounts: slices.Clone(f.diceCounts), Bet: bet})
}

// lineWriter turns writes into LogMsgs, one line per log entry
type lineWriter struct {
	ui  Sender
	mu  sync.Mutex
	buf []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	var lines []string
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	if len(lines) > 0 {
		w.ui.Send(LogMsg{Lines: lines})
	}
	return len(p), nil
}
