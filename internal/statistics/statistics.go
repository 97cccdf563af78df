package statistics

import (
	"fmt"
	"math"
	"sort"
)

// MatchResult represents the outcome of a single simulated match
type MatchResult struct {
	Seed       int64 // RNG seed for this match (for replay)
	Winner     int   // winning seat
	Placements []int // seats from winner to first eliminated
	Rounds     int   // rounds played
	Actions    int   // actions applied
	Fallbacks  []int // engine-substituted actions per seat
}

// SeatStats tracks statistics for a single seat
type SeatStats struct {
	Name         string
	Matches      int
	Wins         int
	SumPlacement int // 1 for a win, 2 for runner-up, ...
	Fallbacks    int
}

// Statistics aggregates a batch of simulated matches. Round counts are kept
// individually for median/percentile calculation.
type Statistics struct {
	Matches int
	SumR    float64 // sum of rounds per match
	SumR2   float64 // sum of squares for variance calculation
	Values  []float64
	Actions int

	Seats []SeatStats
}

// New creates statistics for the named seats.
func New(seatNames []string) *Statistics {
	s := &Statistics{Seats: make([]SeatStats, len(seatNames))}
	for i, name := range seatNames {
		s.Seats[i].Name = name
	}
	return s
}

// Mean returns the mean number of rounds per match
func (s *Statistics) Mean() float64 {
	if s.Matches == 0 {
		return 0
	}
	return s.SumR / float64(s.Matches)
}

// Variance returns the sample variance of rounds per match
func (s *Statistics) Variance() float64 {
	if s.Matches < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumR2 - float64(s.Matches)*mean*mean) / float64(s.Matches-1)
}

// StdDev returns the sample standard deviation of rounds per match
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Matches == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Matches))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Add incorporates a match result into the statistics
func (s *Statistics) Add(result MatchResult) {
	rounds := float64(result.Rounds)
	s.Matches++
	s.SumR += rounds
	s.SumR2 += rounds * rounds
	s.Values = append(s.Values, rounds)
	s.Actions += result.Actions

	for place, seat := range result.Placements {
		if seat < 0 || seat >= len(s.Seats) {
			continue
		}
		s.Seats[seat].Matches++
		s.Seats[seat].SumPlacement += place + 1
	}
	if result.Winner >= 0 && result.Winner < len(s.Seats) {
		s.Seats[result.Winner].Wins++
	}
	for seat, n := range result.Fallbacks {
		if seat < len(s.Seats) {
			s.Seats[seat].Fallbacks += n
		}
	}
}

// Merge folds other into s. Both must describe the same seats.
func (s *Statistics) Merge(other *Statistics) {
	s.Matches += other.Matches
	s.SumR += other.SumR
	s.SumR2 += other.SumR2
	s.Values = append(s.Values, other.Values...)
	s.Actions += other.Actions
	for i := range s.Seats {
		if i >= len(other.Seats) {
			break
		}
		s.Seats[i].Matches += other.Seats[i].Matches
		s.Seats[i].Wins += other.Seats[i].Wins
		s.Seats[i].SumPlacement += other.Seats[i].SumPlacement
		s.Seats[i].Fallbacks += other.Seats[i].Fallbacks
	}
}

// Median returns the median number of rounds
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the round count at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// WinRate returns the fraction of matches won by seat
func (s *Statistics) WinRate(seat int) float64 {
	if seat < 0 || seat >= len(s.Seats) || s.Seats[seat].Matches == 0 {
		return 0
	}
	return float64(s.Seats[seat].Wins) / float64(s.Seats[seat].Matches)
}

// WinRateInterval95 returns the Wilson score interval for seat's win rate
func (s *Statistics) WinRateInterval95(seat int) (float64, float64) {
	if seat < 0 || seat >= len(s.Seats) || s.Seats[seat].Matches == 0 {
		return 0, 1
	}
	const z = 1.96
	n := float64(s.Seats[seat].Matches)
	p := s.WinRate(seat)
	denom := 1 + z*z/n
	centre := (p + z*z/(2*n)) / denom
	margin := z * math.Sqrt(p*(1-p)/n+z*z/(4*n*n)) / denom
	return max(0, centre-margin), min(1, centre+margin)
}

// AveragePlacement returns seat's mean finishing place, 1 being a win
func (s *Statistics) AveragePlacement(seat int) float64 {
	if seat < 0 || seat >= len(s.Seats) || s.Seats[seat].Matches == 0 {
		return 0
	}
	return float64(s.Seats[seat].SumPlacement) / float64(s.Seats[seat].Matches)
}

// Validate performs consistency checks on the aggregated data
func (s *Statistics) Validate() error {
	if s.Matches <= 0 {
		return fmt.Errorf("invalid matches count: %d", s.Matches)
	}

	if len(s.Values) != s.Matches {
		return fmt.Errorf("values array length (%d) does not match matches count (%d)",
			len(s.Values), s.Matches)
	}

	totalWins := 0
	for i, seat := range s.Seats {
		totalWins += seat.Wins
		if seat.Matches != s.Matches {
			return fmt.Errorf("seat %d (%s) played %d of %d matches", i, seat.Name, seat.Matches, s.Matches)
		}
	}
	if totalWins != s.Matches {
		return fmt.Errorf("total wins (%d) does not match matches count (%d)", totalWins, s.Matches)
	}

	return nil
}
