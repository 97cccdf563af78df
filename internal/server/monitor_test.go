package server

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testMonitor struct {
	startCalls    int
	completeCalls int
	matchCalls    int
	lastOutcome   MatchOutcome
	lastReason    string
}

func (tm *testMonitor) OnRunStart(int) { tm.startCalls++ }

func (tm *testMonitor) OnRunComplete(_ int, reason string) {
	tm.completeCalls++
	tm.lastReason = reason
}

func (tm *testMonitor) OnMatchComplete(outcome MatchOutcome) {
	tm.matchCalls++
	tm.lastOutcome = outcome
}

func TestNewMultiMatchMonitor(t *testing.T) {
	m1 := &testMonitor{}
	m2 := &testMonitor{}

	monitor := NewMultiMatchMonitor(nil, m1, m2)
	monitor.OnRunStart(42)
	monitor.OnMatchComplete(MatchOutcome{MatchID: "match-1", Played: 1})
	monitor.OnRunComplete(10, "reason")

	for _, m := range []*testMonitor{m1, m2} {
		assert.Equal(t, 1, m.startCalls)
		assert.Equal(t, 1, m.matchCalls)
		assert.Equal(t, "match-1", m.lastOutcome.MatchID)
		assert.Equal(t, 1, m.completeCalls)
	}
}

func TestNewMultiMatchMonitorShortcuts(t *testing.T) {
	assert.IsType(t, NullMatchMonitor{}, NewMultiMatchMonitor())
	assert.IsType(t, NullMatchMonitor{}, NewMultiMatchMonitor(nil))

	m := &testMonitor{}
	assert.Same(t, m, NewMultiMatchMonitor(m))
}

func TestDotsMonitor(t *testing.T) {
	var buf bytes.Buffer
	d := NewDotsMonitor(&buf)
	d.lineWidth = 2

	d.OnMatchComplete(MatchOutcome{Winner: 0, Remote: []bool{true, false}})
	d.OnMatchComplete(MatchOutcome{Winner: 1, Remote: []bool{true, false}})
	d.OnMatchComplete(MatchOutcome{Winner: 1, Remote: []bool{false, false}})
	d.OnRunComplete(3, "done")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, dotGreen+dotRed+"\n"+dotGray+"\n"), "dots wrap at the line width: %q", out)
	assert.Contains(t, out, "Completed 3 matches (done)")
}

func TestMatchOutcomeRemoteWon(t *testing.T) {
	assert.True(t, MatchOutcome{Winner: 1, Remote: []bool{false, true}}.RemoteWon())
	assert.False(t, MatchOutcome{Winner: 0, Remote: []bool{false, true}}.RemoteWon())
	assert.False(t, MatchOutcome{Winner: -1, Remote: []bool{true}}.RemoteWon())
}
