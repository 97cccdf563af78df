package server

// MatchMonitor receives notifications about the progress of a run of
// matches.
type MatchMonitor interface {
	// OnRunStart is called before the first match.
	OnRunStart(matches int)

	// OnMatchComplete is called after each match.
	OnMatchComplete(outcome MatchOutcome)

	// OnRunComplete is called once no more matches will be played.
	OnRunComplete(played int, reason string)
}

// MatchOutcome captures the result of a single match
type MatchOutcome struct {
	MatchID string
	Played  int // matches completed so far, including this one
	Total   int
	Winner  int
	Rounds  int
	// Remote marks the seats played by remote bots.
	Remote []bool
}

// RemoteWon reports whether a remote bot won the match
func (o MatchOutcome) RemoteWon() bool {
	return o.Winner >= 0 && o.Winner < len(o.Remote) && o.Remote[o.Winner]
}

// NullMatchMonitor is a no-op implementation.
type NullMatchMonitor struct{}

func (NullMatchMonitor) OnRunStart(int)              {}
func (NullMatchMonitor) OnMatchComplete(MatchOutcome) {}
func (NullMatchMonitor) OnRunComplete(int, string)    {}

// MultiMatchMonitor fans events out to multiple monitors.
type MultiMatchMonitor struct {
	monitors []MatchMonitor
}

// NewMultiMatchMonitor builds a composite monitor, pruning nil entries and
// returning a NullMatchMonitor when no monitors are provided.
func NewMultiMatchMonitor(monitors ...MatchMonitor) MatchMonitor {
	filtered := make([]MatchMonitor, 0, len(monitors))
	for _, monitor := range monitors {
		if monitor != nil {
			filtered = append(filtered, monitor)
		}
	}

	switch len(filtered) {
	case 0:
		return NullMatchMonitor{}
	case 1:
		return filtered[0]
	default:
		return MultiMatchMonitor{monitors: filtered}
	}
}

func (m MultiMatchMonitor) OnRunStart(matches int) {
	for _, monitor := range m.monitors {
		monitor.OnRunStart(matches)
	}
}

func (m MultiMatchMonitor) OnMatchComplete(outcome MatchOutcome) {
	for _, monitor := range m.monitors {
		monitor.OnMatchComplete(outcome)
	}
}

func (m MultiMatchMonitor) OnRunComplete(played int, reason string) {
	for _, monitor := range m.monitors {
		monitor.OnRunComplete(played, reason)
	}
}
