package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/marno1d/callmybluff/internal/bot"
	"github.com/marno1d/callmybluff/internal/game"
	"github.com/marno1d/callmybluff/internal/protocol"
	"github.com/marno1d/callmybluff/internal/randutil"
	"github.com/marno1d/callmybluff/internal/statistics"
)

// Seat is one player at the table: a built-in bot, or a remote bot when
// Remote is set.
type Seat struct {
	Name   string
	Bot    string
	Remote bool
}

// Config controls the matches a GameManager runs
type Config struct {
	Seats           []Seat
	StartingDice    int
	DecisionTimeout time.Duration // per remote decision, zero for none
	Seed            int64
	Clock           quartz.Clock
	Monitor         MatchMonitor
}

// Validate checks the table before any bot is seated
func (c Config) Validate() error {
	if len(c.Seats) < 2 {
		return fmt.Errorf("need at least 2 seats, got %d", len(c.Seats))
	}
	var errs []error
	for i, seat := range c.Seats {
		if seat.Remote {
			continue
		}
		if _, err := bot.New(seat.Bot, randutil.New(0), nil); err != nil {
			errs = append(errs, fmt.Errorf("seat %d (%s): %w", i, seat.Name, err))
		}
	}
	return errors.Join(errs...)
}

// GameManager seats remote bots accepted by a Server and plays matches
// between them and the configured built-in bots.
type GameManager struct {
	server *Server
	config Config
	logger *log.Logger

	remotes map[int]*Connection
}

// NewGameManager creates a game manager drawing remote bots from server
func NewGameManager(server *Server, config Config, logger *log.Logger) *GameManager {
	if config.Clock == nil {
		config.Clock = quartz.NewReal()
	}
	if config.StartingDice < 1 {
		config.StartingDice = game.DefaultStartingDice
	}
	if config.Monitor == nil {
		config.Monitor = NullMatchMonitor{}
	}
	return &GameManager{
		server:  server,
		config:  config,
		logger:  logger.WithPrefix("game-manager"),
		remotes: make(map[int]*Connection),
	}
}

// SeatNames returns the seat names, using the remote bot's own name when
// the seat has none.
func (gm *GameManager) SeatNames() []string {
	names := make([]string, len(gm.config.Seats))
	for i, seat := range gm.config.Seats {
		names[i] = seat.Name
		if conn, ok := gm.remotes[i]; ok && names[i] == "" {
			names[i] = conn.Name()
		}
		if names[i] == "" {
			names[i] = fmt.Sprintf("%s-%d", seat.Bot, i)
		}
	}
	return names
}

// SeatRemotes blocks until every remote seat has a connected bot
func (gm *GameManager) SeatRemotes(ctx context.Context) error {
	for i, seat := range gm.config.Seats {
		if !seat.Remote {
			continue
		}
		if conn, ok := gm.remotes[i]; ok {
			select {
			case <-conn.Done():
			default:
				continue
			}
		}
		gm.logger.Info("Waiting for remote bot", "seat", i, "name", seat.Name)
		conn, err := gm.server.Accept(ctx)
		if err != nil {
			return err
		}
		gm.remotes[i] = conn
		gm.logger.Info("Seated remote bot", "seat", i, "bot", conn.Name())
	}
	return nil
}

// Run seats the remote bots and plays matches one after another
func (gm *GameManager) Run(ctx context.Context, matches int) (*statistics.Statistics, error) {
	if err := gm.config.Validate(); err != nil {
		return nil, err
	}
	if err := gm.SeatRemotes(ctx); err != nil {
		return nil, err
	}
	defer func() {
		for _, conn := range gm.remotes {
			conn.Finish()
		}
	}()

	seed := randutil.Seed(gm.config.Seed)
	parent := randutil.New(seed)
	stats := statistics.New(gm.SeatNames())
	remote := make([]bool, len(gm.config.Seats))
	for i, seat := range gm.config.Seats {
		remote[i] = seat.Remote
	}
	gm.logger.Info("Starting run", "matches", matches, "seed", seed)

	monitor := gm.config.Monitor
	monitor.OnRunStart(matches)
	reason := "completed"
	defer func() { monitor.OnRunComplete(stats.Matches, reason) }()

	for i := range matches {
		matchSeed := randutil.Derive(parent)
		result, err := gm.PlayMatch(ctx, matchSeed)
		if err != nil {
			reason = err.Error()
			return nil, fmt.Errorf("match %d (seed %d): %w", i+1, matchSeed, err)
		}
		stats.Add(statistics.MatchResult{
			Seed:       matchSeed,
			Winner:     result.Winner,
			Placements: result.Placements(),
			Rounds:     result.Rounds,
			Actions:    result.Actions,
			Fallbacks:  result.Fallbacks,
		})
		monitor.OnMatchComplete(MatchOutcome{
			MatchID: result.MatchID,
			Played:  i + 1,
			Total:   matches,
			Winner:  result.Winner,
			Rounds:  result.Rounds,
			Remote:  remote,
		})
	}
	return stats, nil
}

// PlayMatch plays one match with the currently seated bots
func (gm *GameManager) PlayMatch(ctx context.Context, seed int64) (*game.MatchResult, error) {
	rng := randutil.New(seed)
	matchID := uuid.NewString()
	names := gm.SeatNames()

	policies := make([]game.Policy, len(gm.config.Seats))
	for i, seat := range gm.config.Seats {
		if seat.Remote {
			conn, ok := gm.remotes[i]
			if !ok {
				return nil, fmt.Errorf("seat %d has no remote bot", i)
			}
			policies[i] = NewNetworkAgent(conn, matchID, gm.config.DecisionTimeout, gm.config.Clock, gm.logger)
			continue
		}
		p, err := bot.New(seat.Bot, randutil.New(randutil.Derive(rng)), gm.logger)
		if err != nil {
			return nil, err
		}
		policies[i] = p
	}

	match, err := game.NewMatch(rng, len(policies), game.WithStartingDice(gm.config.StartingDice))
	if err != nil {
		return nil, err
	}
	engine, err := game.NewEngine(match, policies, gm.logger,
		game.WithMatchID(matchID), game.WithClock(gm.config.Clock))
	if err != nil {
		return nil, err
	}

	b := &broadcaster{remotes: gm.remotes, logger: gm.logger}
	for seat := range gm.remotes {
		b.send(seat, protocol.TypeWelcome, protocol.Welcome{
			Seat:         seat,
			Players:      names,
			StartingDice: gm.config.StartingDice,
			MatchID:      matchID,
		})
	}
	engine.GetEventBus().Subscribe(b)

	gm.logger.Info("Starting match", "match", matchID, "seats", names)
	return engine.Play(ctx)
}

// broadcaster forwards match events to the remote bots, each seeing only
// its own dice until the call.
type broadcaster struct {
	remotes map[int]*Connection
	logger  *log.Logger
}

func (b *broadcaster) OnEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.RoundStartEvent:
		for seat := range b.remotes {
			var hand []int
			if seat < len(e.Hands) {
				hand = protocol.FacesToInts(e.Hands[seat])
			}
			b.send(seat, protocol.TypeRoundStart, protocol.RoundStart{
				MatchID:    e.MatchID,
				Round:      e.Round,
				Starter:    e.Starter,
				TurnOrder:  e.TurnOrder,
				DiceCounts: e.DiceCounts,
				Dice:       hand,
			})
		}
	case game.ActionEvent:
		b.broadcast(protocol.TypePlayerAction, protocol.PlayerAction{
			MatchID:  e.MatchID,
			Round:    e.Round,
			Entry:    protocol.EntryFromGame(e.Entry),
			Fallback: e.Fallback,
		})
	case game.RoundResultEvent:
		b.broadcast(protocol.TypeRoundResult, protocol.RoundResultFromGame(e.MatchID, e.Record))
	case game.MatchOverEvent:
		b.broadcast(protocol.TypeMatchOver, protocol.MatchOver{
			MatchID:    e.MatchID,
			Winner:     e.Result.Winner,
			Placements: e.Result.Placements(),
			Rounds:     e.Result.Rounds,
		})
	}
}

func (b *broadcaster) broadcast(t protocol.MessageType, data any) {
	for seat := range b.remotes {
		b.send(seat, t, data)
	}
}

func (b *broadcaster) send(seat int, t protocol.MessageType, data any) {
	msg, err := protocol.NewMessage(t, data)
	if err != nil {
		b.logger.Error("Failed to create message", "type", t, "error", err)
		return
	}
	if err := b.remotes[seat].SendMessage(msg); err != nil {
		b.logger.Warn("Failed to send message", "type", t, "seat", seat, "error", err)
	}
}
