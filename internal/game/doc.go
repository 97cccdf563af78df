// Package game implements the rules engine for the call-my-bluff dice
// bidding game.
//
// The main type is Match, which owns the players' dice and locks, the turn
// order, the outstanding bet and the action log. The only way to change a
// Match is Apply, which validates an Action for the current player, applies
// it, and returns the log entries it appended.
//
// # Basic Usage
//
//	rng := randutil.New(42)
//	m, err := game.NewMatch(rng, 3)
//	if err != nil {
//	    return err
//	}
//	obs, _ := m.Observe(m.CurrentPlayer())
//	tr, err := m.Apply(game.BetAction(bet.Index()))
//	if tr.MatchOver() {
//	    winner, _ := m.Winner()
//	}
//
// # Deterministic Testing
//
// Every random draw (turn-order shuffle, initial dice, rerolls) comes from
// the *rand.Rand passed to NewMatch. Tests can also fix the first round with
// options:
//
//	m, _ := game.NewMatch(rng, 2,
//	    game.WithTurnOrder([]int{0, 1}),
//	    game.WithHands([][]dice.Face{{1, 1, 5}, {2, 3}}))
//
// # Architecture
//
//   - Match: state plus the Apply transition (validation, bets, rerolls,
//     call resolution and elimination)
//   - Observation: per-player projection handed to policies
//   - Policy: the interface decision makers implement
//   - Engine: drives a Match with one Policy per player, enforcing decision
//     timeouts and publishing events on an EventBus
//
// Rejected actions return an *IllegalActionError and leave the match
// untouched. Corruption detected after a transition is reported once as an
// *InvariantError, after which the match refuses further actions.
package game
