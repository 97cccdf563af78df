package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// DefaultIllegalActionLimit is how many rejected actions a policy may submit
// for one decision before the engine plays the fallback for it.
const DefaultIllegalActionLimit = 3

// MatchResult summarises a finished match.
type MatchResult struct {
	MatchID        string
	Winner         int
	Rounds         int
	Actions        int
	Eliminated     []int // elimination order, first out first
	IllegalActions []int // rejected actions per player
	Fallbacks      []int // engine-substituted actions per player
	Timeouts       []int // decision timeouts per player
	Duration       time.Duration
}

// Placements returns players from winner to first eliminated.
func (r MatchResult) Placements() []int {
	out := make([]int, 0, len(r.Eliminated)+1)
	out = append(out, r.Winner)
	for i := len(r.Eliminated) - 1; i >= 0; i-- {
		out = append(out, r.Eliminated[i])
	}
	return out
}

// Engine drives a Match to completion by asking each seat's policy for
// actions, publishing events as the match progresses.
type Engine struct {
	id              string
	match           *Match
	policies        []Policy
	logger          *log.Logger
	eventBus        EventBus
	clock           quartz.Clock
	decisionTimeout time.Duration
	illegalLimit    int

	actions   int
	illegal   []int
	fallbacks []int
	timeouts  []int
	started   time.Time

	// busy holds, per player, the completion of a Decide call that was
	// abandoned after a timeout. The policy is not called again until it
	// closes.
	busy []chan struct{}
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock sets the clock used for decision timeouts and event timestamps.
func WithClock(clock quartz.Clock) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// WithDecisionTimeout bounds how long a policy may take per decision. Zero
// disables the limit.
func WithDecisionTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.decisionTimeout = d }
}

// WithIllegalActionLimit sets how many rejected actions are tolerated per
// decision before the fallback action is played.
func WithIllegalActionLimit(n int) EngineOption {
	return func(e *Engine) { e.illegalLimit = n }
}

// WithEventBus publishes to an existing bus instead of a private one.
func WithEventBus(bus EventBus) EngineOption {
	return func(e *Engine) { e.eventBus = bus }
}

// WithMatchID overrides the generated match id.
func WithMatchID(id string) EngineOption {
	return func(e *Engine) { e.id = id }
}

// NewEngine creates an engine for match with one policy per player id.
func NewEngine(match *Match, policies []Policy, logger *log.Logger, opts ...EngineOption) (*Engine, error) {
	if len(policies) != match.NumPlayers() {
		return nil, fmt.Errorf("%w: %d policies for %d players", ErrInvalidConfiguration, len(policies), match.NumPlayers())
	}
	for i, p := range policies {
		if p == nil {
			return nil, fmt.Errorf("%w: no policy for player %d", ErrInvalidConfiguration, i)
		}
	}

	e := &Engine{
		id:           uuid.NewString(),
		match:        match,
		policies:     policies,
		clock:        quartz.NewReal(),
		illegalLimit: DefaultIllegalActionLimit,
		illegal:      make([]int, match.NumPlayers()),
		fallbacks:    make([]int, match.NumPlayers()),
		timeouts:     make([]int, match.NumPlayers()),
		busy:         make([]chan struct{}, match.NumPlayers()),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.eventBus == nil {
		e.eventBus = NewEventBus()
	}
	if e.illegalLimit < 1 {
		e.illegalLimit = 1
	}
	e.logger = logger.WithPrefix("engine").With("match", e.id)
	return e, nil
}

// ID returns the match id used in events and logs.
func (e *Engine) ID() string { return e.id }

// Match returns the match being driven.
func (e *Engine) Match() *Match { return e.match }

// GetEventBus returns the event bus for subscribing to match events
func (e *Engine) GetEventBus() EventBus { return e.eventBus }

// Play runs the match until one player remains or ctx is cancelled.
func (e *Engine) Play(ctx context.Context) (*MatchResult, error) {
	e.started = e.clock.Now()
	e.logger.Debug("Starting match", "players", e.match.NumPlayers(), "turnOrder", e.match.TurnOrder())
	e.publishRoundStart()

	for !e.match.IsOver() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := e.Step(ctx); err != nil {
			return nil, err
		}
	}

	result := e.Result()
	e.logger.Info("Match over", "winner", result.Winner, "rounds", result.Rounds, "actions", result.Actions)
	e.eventBus.Publish(MatchOverEvent{MatchID: e.id, Result: *result, timestamp: e.clock.Now()})
	return result, nil
}

// Result summarises the match so far.
func (e *Engine) Result() *MatchResult {
	winner, _ := e.match.Winner()
	return &MatchResult{
		MatchID:        e.id,
		Winner:         winner,
		Rounds:         len(e.match.history),
		Actions:        e.actions,
		Eliminated:     e.match.Eliminated(),
		IllegalActions: append([]int(nil), e.illegal...),
		Fallbacks:      append([]int(nil), e.fallbacks...),
		Timeouts:       append([]int(nil), e.timeouts...),
		Duration:       e.clock.Since(e.started),
	}
}

// Step asks the current player's policy for one action and applies it.
func (e *Engine) Step(ctx context.Context) (Transition, error) {
	player := e.match.CurrentPlayer()
	obs, err := e.match.Observe(player)
	if err != nil {
		return Transition{}, fmt.Errorf("observe current player: %w", err)
	}
	policy := e.policies[player]

	action, fallback, err := e.decide(ctx, player, policy, obs)
	if err != nil {
		return Transition{}, err
	}

	var tr Transition
	for attempt := 1; ; attempt++ {
		tr, err = e.match.Apply(action)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrIllegalAction) || fallback {
			e.logger.Error("Failed to apply action", "player", player, "action", action, "error", err)
			return Transition{}, err
		}

		e.illegal[player]++
		e.logger.Warn("Illegal action", "player", player, "action", action, "error", err, "attempt", attempt)

		if attempt >= e.illegalLimit {
			action, fallback = obs.Fallback(), true
			e.fallbacks[player]++
			continue
		}
		action, fallback, err = e.decide(ctx, player, policy, obs)
		if err != nil {
			return Transition{}, err
		}
	}

	e.actions++
	e.logger.Debug("Player action", "player", player, "action", action, "fallback", fallback, "phase", tr.Phase)
	e.publishTransition(tr, fallback)
	return tr, nil
}

// decide asks policy for an action, substituting the fallback when the
// policy errors or exceeds the decision timeout. Only cancellation of ctx is
// returned as an error. A policy still working on an abandoned decision is
// waited for within the same timeout and is never called concurrently.
func (e *Engine) decide(ctx context.Context, player int, policy Policy, obs Observation) (Action, bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type decision struct {
		action Action
		err    error
	}
	decided := make(chan decision, 1)

	timedOut := make(chan struct{})
	if e.decisionTimeout > 0 {
		timer := e.clock.AfterFunc(e.decisionTimeout, func() {
			close(timedOut)
		})
		defer timer.Stop()
	}

	if busy := e.busy[player]; busy != nil {
		select {
		case <-busy:
			e.busy[player] = nil
		case <-timedOut:
			e.logger.Warn("Policy still busy with an abandoned decision", "player", player)
			return e.timeoutFallback(player, obs), true, nil
		case <-ctx.Done():
			return Action{}, false, ctx.Err()
		}
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		a, err := policy.Decide(ctx, obs)
		decided <- decision{action: a, err: err}
	}()

	select {
	case d := <-decided:
		if d.err != nil {
			if ctx.Err() != nil {
				return Action{}, false, ctx.Err()
			}
			e.logger.Error("Policy failed, using fallback", "player", player, "error", d.err)
			e.fallbacks[player]++
			return obs.Fallback(), true, nil
		}
		return d.action, false, nil

	case <-timedOut:
		e.busy[player] = finished
		e.logger.Warn("Decision timeout, using fallback", "player", player, "timeout", e.decisionTimeout)
		return e.timeoutFallback(player, obs), true, nil

	case <-ctx.Done():
		e.busy[player] = finished
		return Action{}, false, ctx.Err()
	}
}

func (e *Engine) timeoutFallback(player int, obs Observation) Action {
	e.timeouts[player]++
	e.fallbacks[player]++
	return obs.Fallback()
}

// idle reports whether player's policy has no abandoned decision running.
func (e *Engine) idle(player int) bool {
	busy := e.busy[player]
	if busy == nil {
		return true
	}
	select {
	case <-busy:
		e.busy[player] = nil
		return true
	default:
		return false
	}
}

func (e *Engine) publishTransition(tr Transition, fallback bool) {
	now := e.clock.Now()
	for _, entry := range tr.Entries {
		if entry.Kind == EntryRoundResult {
			continue
		}
		ev := ActionEvent{MatchID: e.id, Round: e.match.Round(), Entry: entry, Fallback: fallback, timestamp: now}
		if tr.Round != nil {
			ev.Round = tr.Round.Number
			ev.Hand = tr.Round.Hands[entry.Player]
		} else {
			ev.Hand = e.match.Dice(entry.Player)
		}
		e.eventBus.Publish(ev)
	}

	if tr.Round == nil {
		return
	}

	record := *tr.Round
	e.logger.Debug("Round over",
		"round", record.Number,
		"bet", record.Result.Bet,
		"actual", record.Result.ActualCount,
		"loser", record.Result.Loser,
		"diceLost", record.Result.DiceLost,
		"eliminated", record.Result.Eliminated)
	e.eventBus.Publish(RoundResultEvent{MatchID: e.id, Record: record, timestamp: now})

	for i, p := range e.policies {
		if !e.idle(i) {
			e.logger.Warn("Skipping round result for busy policy", "player", i, "round", record.Number)
			continue
		}
		p.RoundOver(record.clone())
	}

	if !tr.MatchOver() {
		e.publishRoundStart()
	}
}

func (e *Engine) publishRoundStart() {
	e.eventBus.Publish(RoundStartEvent{
		MatchID:    e.id,
		Round:      e.match.Round(),
		Starter:    e.match.RoundStarter(),
		TurnOrder:  e.match.TurnOrder(),
		DiceCounts: e.match.DiceCounts(),
		Hands:      e.match.Hands(),
		timestamp:  e.clock.Now(),
	})
}
