package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/randutil"
)

// testEventSubscriber captures events for testing
type testEventSubscriber struct {
	mu     sync.Mutex
	events []GameEvent
}

func (s *testEventSubscriber) OnEvent(event GameEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *testEventSubscriber) types() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventType, len(s.events))
	for i, e := range s.events {
		out[i] = e.EventType()
	}
	return out
}

// scriptedPolicy plays a fixed list of actions and then the fallback.
type scriptedPolicy struct {
	actions []Action
	rounds  []RoundRecord
}

func (p *scriptedPolicy) Decide(_ context.Context, obs Observation) (Action, error) {
	if len(p.actions) == 0 {
		return obs.Fallback(), nil
	}
	a := p.actions[0]
	p.actions = p.actions[1:]
	return a, nil
}

func (p *scriptedPolicy) RoundOver(record RoundRecord) {
	p.rounds = append(p.rounds, record)
}

func randomPolicies(n int, seed int64) []Policy {
	policies := make([]Policy, n)
	for i := range policies {
		policies[i] = newRandomPolicy(seed + int64(i))
	}
	return policies
}

func TestEnginePlaysMatchToCompletion(t *testing.T) {
	t.Parallel()
	for _, players := range []int{2, 3, 5} {
		m, err := NewMatch(randutil.New(int64(players)), players)
		require.NoError(t, err)
		policies := randomPolicies(players, 100)

		engine, err := NewEngine(m, policies, testLogger())
		require.NoError(t, err)

		result, err := engine.Play(context.Background())
		require.NoError(t, err)

		assert.Equal(t, engine.ID(), result.MatchID)
		assert.True(t, m.IsOver())
		winner, _ := m.Winner()
		assert.Equal(t, winner, result.Winner)
		assert.Len(t, result.Eliminated, players-1)
		assert.Len(t, result.Placements(), players)
		assert.Equal(t, winner, result.Placements()[0])
		assert.Equal(t, len(m.History()), result.Rounds)
		assert.Positive(t, result.Actions)
		assert.Equal(t, make([]int, players), result.Fallbacks)

		for _, p := range policies {
			assert.Equal(t, result.Rounds, p.(*randomPolicy).rounds, "every policy sees every round")
		}
	}
}

func TestEngineEventOrder(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, 1, wild, 0, 0}, {1, wild}})
	bet := mustEncode(t, 3, 1)
	policies := []Policy{
		&scriptedPolicy{actions: []Action{BetAction(bet)}},
		&scriptedPolicy{actions: []Action{CallAction()}},
	}

	bus := NewEventBus()
	sub := &testEventSubscriber{}
	bus.Subscribe(sub)

	engine, err := NewEngine(m, policies, testLogger(), WithEventBus(bus), WithMatchID("match-1"))
	require.NoError(t, err)
	result, err := engine.Play(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []EventType{
		EventTypeRoundStart,
		EventTypeAction,
		EventTypeAction,
		EventTypeRoundResult,
		EventTypeMatchOver,
	}, sub.types())

	start := sub.events[0].(RoundStartEvent)
	assert.Equal(t, "match-1", start.MatchID)
	assert.Equal(t, 1, start.Round)
	assert.Equal(t, 0, start.Starter)
	assert.Equal(t, [][]dice.Face{{1, 1, wild, 0, 0}, {1, wild}}, start.Hands)

	betEvent := sub.events[1].(ActionEvent)
	assert.Equal(t, EntryBet, betEvent.Entry.Kind)
	assert.Equal(t, bet, betEvent.Entry.Bet)
	assert.False(t, betEvent.Fallback)

	callEvent := sub.events[2].(ActionEvent)
	assert.Equal(t, EntryCall, callEvent.Entry.Kind)
	assert.Equal(t, 1, callEvent.Round)
	assert.Equal(t, []dice.Face{1, wild}, callEvent.Hand, "the caller's revealed hand")

	resultEvent := sub.events[3].(RoundResultEvent)
	assert.Equal(t, 1, resultEvent.Record.Result.Loser)
	assert.Equal(t, 5, resultEvent.Record.Result.ActualCount)

	over := sub.events[4].(MatchOverEvent)
	assert.Equal(t, 0, over.Result.Winner)
	assert.Equal(t, 0, result.Winner)
	assert.Equal(t, []int{1}, result.Eliminated)

	for _, p := range policies {
		sp := p.(*scriptedPolicy)
		require.Len(t, sp.rounds, 1)
		assert.Equal(t, 1, sp.rounds[0].Number)
	}
}

func TestEngineNextRoundStartEvent(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1, 2}, [][]dice.Face{{4, 4, 0, 0, 0}, {4, 1, 1}, {2, 2, 2}})
	policies := []Policy{
		&scriptedPolicy{actions: []Action{BetAction(mustEncode(t, 6, 4))}},
		&scriptedPolicy{actions: []Action{CallAction()}},
		&scriptedPolicy{},
	}
	engine, err := NewEngine(m, policies, testLogger())
	require.NoError(t, err)
	sub := &testEventSubscriber{}
	engine.GetEventBus().Subscribe(sub)

	_, err = engine.Step(context.Background())
	require.NoError(t, err)
	tr, err := engine.Step(context.Background())
	require.NoError(t, err)
	require.True(t, tr.RoundOver())

	types := sub.types()
	require.Len(t, types, 4)
	assert.Equal(t, EventTypeRoundStart, types[3])
	next := sub.events[3].(RoundStartEvent)
	assert.Equal(t, 2, next.Round)
	assert.Equal(t, 1, next.Starter, "the caller opens after an overstated bet")
	assert.Equal(t, []int{2, 3, 3}, next.DiceCounts)
}

func TestEngineIllegalActionsFallBack(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, 2}, {3, 4}})
	// Calling with no outstanding bet is never legal.
	stubborn := PolicyFunc(func(context.Context, Observation) (Action, error) {
		return CallAction(), nil
	})
	engine, err := NewEngine(m, []Policy{stubborn, &scriptedPolicy{}}, testLogger())
	require.NoError(t, err)
	sub := &testEventSubscriber{}
	engine.GetEventBus().Subscribe(sub)

	tr, err := engine.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, tr.Entries, 1)
	assert.Equal(t, LogEntry{Kind: EntryBet, Player: 0, Bet: 0}, tr.Entries[0])

	result := engine.Result()
	assert.Equal(t, []int{DefaultIllegalActionLimit, 0}, result.IllegalActions)
	assert.Equal(t, []int{1, 0}, result.Fallbacks)
	assert.Equal(t, 1, result.Actions)

	require.Len(t, sub.events, 1)
	assert.True(t, sub.events[0].(ActionEvent).Fallback)
}

func TestEngineIllegalActionLimit(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, 2}, {3, 4}})
	calls := 0
	policy := PolicyFunc(func(_ context.Context, obs Observation) (Action, error) {
		calls++
		if calls == 1 {
			return CallAction(), nil
		}
		return BetAction(7), nil
	})
	engine, err := NewEngine(m, []Policy{policy, &scriptedPolicy{}}, testLogger(), WithIllegalActionLimit(2))
	require.NoError(t, err)

	tr, err := engine.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dice.BetIndex(7), tr.Entries[0].Bet, "the policy is asked again after a rejection")
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{1, 0}, engine.Result().IllegalActions)
	assert.Equal(t, []int{0, 0}, engine.Result().Fallbacks)
}

func TestEnginePolicyErrorFallsBack(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, 2}, {3, 4}})
	failing := PolicyFunc(func(context.Context, Observation) (Action, error) {
		return Action{}, errors.New("connection lost")
	})
	engine, err := NewEngine(m, []Policy{&scriptedPolicy{}, failing}, testLogger())
	require.NoError(t, err)

	_, err = engine.Step(context.Background())
	require.NoError(t, err)
	tr, err := engine.Step(context.Background())
	require.NoError(t, err)

	assert.True(t, tr.RoundOver(), "the fallback after a bet is a call")
	assert.Equal(t, []int{0, 1}, engine.Result().Fallbacks)
}

func TestEngineDecisionTimeout(t *testing.T) {
	t.Parallel()
	const timeout = 5 * time.Second
	mockClock := quartz.NewMock(t)

	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, 2}, {3, 4}})
	started := make(chan struct{})
	slow := PolicyFunc(func(ctx context.Context, _ Observation) (Action, error) {
		close(started)
		<-ctx.Done()
		return Action{}, ctx.Err()
	})
	engine, err := NewEngine(m, []Policy{slow, &scriptedPolicy{}}, testLogger(),
		WithClock(mockClock), WithDecisionTimeout(timeout))
	require.NoError(t, err)

	type stepResult struct {
		tr  Transition
		err error
	}
	done := make(chan stepResult, 1)
	go func() {
		tr, err := engine.Step(context.Background())
		done <- stepResult{tr, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	select {
	case <-started:
	case <-ctx.Done():
		t.Fatal("policy was never asked")
	}
	mockClock.Advance(timeout).MustWait(ctx)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, BetAction(0).Bet, res.tr.Entries[0].Bet)
	case <-ctx.Done():
		t.Fatal("step did not finish after the timeout")
	}

	result := engine.Result()
	assert.Equal(t, []int{1, 0}, result.Timeouts)
	assert.Equal(t, []int{1, 0}, result.Fallbacks)
}

// stubbornPolicy ignores ctx and blocks its first decision until released.
// It records whether it was ever entered twice at once.
type stubbornPolicy struct {
	release  chan struct{}
	finished chan struct{}

	active     atomic.Int32
	overlapped atomic.Bool
	calls      atomic.Int32
	rounds     atomic.Int32
}

func newStubbornPolicy() *stubbornPolicy {
	return &stubbornPolicy{release: make(chan struct{}), finished: make(chan struct{})}
}

func (p *stubbornPolicy) enter() {
	if p.active.Add(1) > 1 {
		p.overlapped.Store(true)
	}
}

func (p *stubbornPolicy) leave() { p.active.Add(-1) }

func (p *stubbornPolicy) Decide(_ context.Context, obs Observation) (Action, error) {
	p.enter()
	defer p.leave()
	if p.calls.Add(1) == 1 {
		defer close(p.finished)
		<-p.release
	}
	return obs.Fallback(), nil
}

func (p *stubbornPolicy) RoundOver(RoundRecord) {
	p.enter()
	defer p.leave()
	p.rounds.Add(1)
}

func TestEngineWaitsForAbandonedDecision(t *testing.T) {
	t.Parallel()
	const timeout = 5 * time.Second
	mockClock := quartz.NewMock(t)
	trap := mockClock.Trap().AfterFunc()
	defer trap.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, 2}, {3, 4}})
	stubborn := newStubbornPolicy()
	engine, err := NewEngine(m, []Policy{stubborn, &scriptedPolicy{}}, testLogger(),
		WithClock(mockClock), WithDecisionTimeout(timeout))
	require.NoError(t, err)

	step := func(expire bool) Transition {
		t.Helper()
		type stepResult struct {
			tr  Transition
			err error
		}
		done := make(chan stepResult, 1)
		go func() {
			tr, err := engine.Step(context.Background())
			done <- stepResult{tr, err}
		}()
		trap.MustWait(ctx).MustRelease(ctx)
		if expire {
			mockClock.Advance(timeout).MustWait(ctx)
		}
		select {
		case res := <-done:
			require.NoError(t, res.err)
			return res.tr
		case <-ctx.Done():
			t.Fatal("step did not finish")
			return Transition{}
		}
	}

	// Player 0 times out on the opening bet and keeps running.
	step(true)
	assert.Equal(t, int32(1), stubborn.calls.Load())

	// Player 1 calls the 1x0 fallback bet: nobody holds a 0 or a wild, so
	// player 0 loses a die and player 1 opens the next round.
	tr := step(false)
	require.True(t, tr.RoundOver())
	assert.Zero(t, stubborn.rounds.Load(), "busy policy is not told round results")

	step(false)
	require.Equal(t, 0, m.CurrentPlayer())

	// Still busy: the engine times out again without a second Decide.
	step(true)
	assert.Equal(t, int32(1), stubborn.calls.Load())
	assert.Equal(t, []int{2, 0}, engine.Result().Timeouts)

	close(stubborn.release)
	select {
	case <-stubborn.finished:
	case <-ctx.Done():
		t.Fatal("abandoned decision never returned")
	}

	for !m.IsOver() {
		step(false)
	}
	assert.False(t, stubborn.overlapped.Load(), "policy was entered concurrently")
}

func TestEngineContextCancelled(t *testing.T) {
	t.Parallel()
	m, err := NewMatch(randutil.New(1), 3)
	require.NoError(t, err)
	engine, err := NewEngine(m, randomPolicies(3, 1), testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.Play(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineCancelWhileDeciding(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, 2}, {3, 4}})
	ctx, cancel := context.WithCancel(context.Background())
	blocking := PolicyFunc(func(ctx context.Context, _ Observation) (Action, error) {
		cancel()
		<-ctx.Done()
		return Action{}, ctx.Err()
	})
	engine, err := NewEngine(m, []Policy{blocking, &scriptedPolicy{}}, testLogger())
	require.NoError(t, err)

	_, err = engine.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{0, 0}, engine.Result().Fallbacks)
	assert.Empty(t, m.Log(), "nothing is applied after cancellation")
}

func TestNewEngineValidatesPolicies(t *testing.T) {
	t.Parallel()
	m := fixedMatch(t, []int{0, 1}, [][]dice.Face{{1, 2}, {3, 4}})

	_, err := NewEngine(m, []Policy{&scriptedPolicy{}}, testLogger())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewEngine(m, []Policy{&scriptedPolicy{}, nil}, testLogger())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestEventBusUnsubscribe(t *testing.T) {
	t.Parallel()
	bus := NewEventBus()
	a, b := &testEventSubscriber{}, &testEventSubscriber{}
	bus.Subscribe(a)
	bus.Subscribe(b)
	bus.Publish(MatchOverEvent{MatchID: "x"})
	bus.Unsubscribe(a)
	bus.Publish(MatchOverEvent{MatchID: "y"})

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 2)
	assert.Equal(t, "match_over", b.events[1].EventType().String())
}
