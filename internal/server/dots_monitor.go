package server

import (
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	dotGreen = "\033[32m●\033[0m" // a remote bot won
	dotRed   = "\033[31m●\033[0m" // a built-in bot won
	dotGray  = "\033[90m●\033[0m" // no remote bots seated
)

// DotsMonitor implements MatchMonitor for minimal progress output: one
// colored dot per match, green when a remote bot won and red when a
// built-in bot did.
type DotsMonitor struct {
	writer    io.Writer
	mu        sync.Mutex
	dotCount  int
	lineWidth int // Wrap after this many dots
}

// NewDotsMonitor creates a new dots monitor.
func NewDotsMonitor(writer io.Writer) *DotsMonitor {
	if writer == nil {
		writer = os.Stdout
	}

	return &DotsMonitor{
		writer:    writer,
		lineWidth: 80,
	}
}

// OnRunStart implements MatchMonitor.
func (d *DotsMonitor) OnRunStart(int) {}

// OnMatchComplete implements MatchMonitor.
func (d *DotsMonitor) OnMatchComplete(outcome MatchOutcome) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprint(d.writer, selectDot(outcome))

	d.dotCount++
	if d.dotCount >= d.lineWidth {
		fmt.Fprintln(d.writer)
		d.dotCount = 0
	}
}

// OnRunComplete implements MatchMonitor.
func (d *DotsMonitor) OnRunComplete(played int, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dotCount > 0 {
		fmt.Fprintln(d.writer)
	}
	fmt.Fprintf(d.writer, "\nCompleted %d matches (%s)\n", played, reason)
}

func selectDot(outcome MatchOutcome) string {
	hasRemote := false
	for _, r := range outcome.Remote {
		hasRemote = hasRemote || r
	}
	switch {
	case !hasRemote:
		return dotGray
	case outcome.RemoteWon():
		return dotGreen
	default:
		return dotRed
	}
}
