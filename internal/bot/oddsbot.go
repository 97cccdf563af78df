package bot

import (
	"context"
	"math"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
	"github.com/marno1d/callmybluff/internal/probability"
)

const (
	// oddsLookahead is how many raises above the current bet are weighed.
	oddsLookahead = 10
	// rerollMargin is how much a reroll must lower the expected loss before
	// the bot gives away information by locking dice.
	rerollMargin = 0.05
	// bluffDiscount scales how much an opponent's bluff rate lowers the
	// expected cost of calling them.
	bluffDiscount = 0.5
)

var defaultTable = sync.OnceValue(func() *probability.Table {
	return probability.Binomial(probability.DefaultMaxDice)
})

// OddsBot minimises its expected dice loss using a probability table. It
// compares the expected loss of calling with the expected loss of being
// called on each of the next raises, optionally locking matching dice to
// reroll the rest, and discounts the cost of calling opponents that have
// been caught bluffing.
type OddsBot struct {
	table  *probability.Table
	bluffs *BluffTracker
	logger *log.Logger
}

// NewOdds creates an OddsBot. A nil table uses the exact binomial table.
func NewOdds(logger *log.Logger, table *probability.Table) *OddsBot {
	if table == nil {
		table = defaultTable()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &OddsBot{
		table:  table,
		bluffs: NewBluffTracker(),
		logger: logger.WithPrefix("bot").With("bot", NameOdds),
	}
}

// Bluffs exposes the bot's opponent model.
func (o *OddsBot) Bluffs() *BluffTracker { return o.bluffs }

func (o *OddsBot) RoundOver(record game.RoundRecord) {
	o.bluffs.Observe(record)
}

func (o *OddsBot) Decide(_ context.Context, obs game.Observation) (game.Action, error) {
	unknown := obs.UnknownDice()
	table := o.tableFor(unknown)

	best, bestLoss := o.bestRaise(obs, table)

	if obs.CanCall() {
		quantity, face, err := dice.Decode(obs.CurrentBet)
		if err != nil {
			return game.Action{}, err
		}
		need := quantity - obs.KnownMatching(face)
		callLoss := table.CallerLoss(unknown, need, face)
		rate := o.bluffs.Rate(obs.PreviousPlayer)
		callLoss *= 1 - bluffDiscount*rate

		o.logger.Debug("Odds decision",
			"player", obs.Player,
			"bet", obs.CurrentBet,
			"unknown", unknown,
			"need", need,
			"callLoss", callLoss,
			"raiseLoss", bestLoss,
			"bluffRate", rate)

		if best.Type == game.ActionCall || callLoss < bestLoss {
			return game.CallAction(), nil
		}
	}
	return best, nil
}

// bestRaise returns the raise with the lowest expected loss if called, or a
// call when no raise is possible.
func (o *OddsBot) bestRaise(obs game.Observation, table *probability.Table) (game.Action, float64) {
	best, bestLoss := game.CallAction(), math.Inf(1)
	unknown := obs.UnknownDice()

	n := 0
	for index := range obs.Raises() {
		if n == oddsLookahead {
			break
		}
		n++
		quantity, face, _ := dice.Decode(index)
		need := quantity - obs.KnownMatching(face)

		loss := table.BettorLoss(unknown, need, face)
		if loss < bestLoss {
			best, bestLoss = game.BetAction(index), loss
		}

		if !obs.CanCall() {
			continue
		}
		lock, rerolled, ok := lockMatching(obs, face)
		if !ok {
			continue
		}
		// Rerolled dice never matched, so need is unchanged while the number
		// of dice that could still match grows.
		rerollTable := o.tableFor(unknown + rerolled)
		rerollLoss := rerollTable.BettorLoss(unknown+rerolled, need, face)
		if rerollLoss+rerollMargin < bestLoss {
			best, bestLoss = game.RerollBetAction(lock, index), rerollLoss
		}
	}
	return best, bestLoss
}

// tableFor returns a table covering n unknown dice, growing the bot's table
// when a match has more dice than it was built for.
func (o *OddsBot) tableFor(n int) *probability.Table {
	if !o.table.Covers(n) {
		o.table = probability.Binomial(n)
	}
	return o.table
}

var _ game.Policy = (*OddsBot)(nil)
