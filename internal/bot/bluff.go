package bot

import (
	"github.com/marno1d/callmybluff/dice"
	"github.com/marno1d/callmybluff/internal/game"
)

// Until a player has made a few bets their rate is pulled towards the prior.
const (
	priorBluffs = 1
	priorBets   = 3
)

// BluffTracker estimates how often each player bets more than the revealed
// dice support. A bet counts as a bluff when the hands revealed at the end
// of its round hold fewer matching dice than it claimed.
type BluffTracker struct {
	bets   map[int]int
	bluffs map[int]int
}

// NewBluffTracker creates an empty tracker.
func NewBluffTracker() *BluffTracker {
	return &BluffTracker{bets: make(map[int]int), bluffs: make(map[int]int)}
}

// Observe scores every bet in a closed round against its revealed hands.
func (b *BluffTracker) Observe(record game.RoundRecord) {
	for _, e := range record.Log {
		if e.Kind != game.EntryBet && e.Kind != game.EntryRerollBet {
			continue
		}
		quantity, face, err := dice.Decode(e.Bet)
		if err != nil {
			continue
		}
		b.bets[e.Player]++
		if dice.CountMatching(record.Hands, face) < quantity {
			b.bluffs[e.Player]++
		}
	}
}

// Bets returns how many of player's bets have been scored.
func (b *BluffTracker) Bets(player int) int { return b.bets[player] }

// Rate returns player's smoothed bluff rate in (0,1).
func (b *BluffTracker) Rate(player int) float64 {
	return float64(b.bluffs[player]+priorBluffs) / float64(b.bets[player]+priorBets)
}
